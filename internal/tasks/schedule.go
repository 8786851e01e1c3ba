package tasks

import "github.com/zeddy89/Context-Engine/internal/errkind"

// DecisionKind tells the caller which of the three outcomes Next produced.
type DecisionKind int

const (
	// Ready means Decision.Task is the next task to work on.
	Ready DecisionKind = iota
	// Blocked means incomplete tasks remain but none can start.
	Blocked
	// Done means every task passes.
	Done
)

func (k DecisionKind) String() string {
	switch k {
	case Ready:
		return "ready"
	case Blocked:
		return "blocked"
	case Done:
		return "done"
	}
	return "unknown"
}

// MarshalText renders the kind by name in JSON.
func (k DecisionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// BlockedTask is one entry of a blocked report.
type BlockedTask struct {
	ID string `json:"id"`
	// Unmet lists direct dependencies that do not pass yet.
	Unmet []string `json:"unmet,omitempty"`
	// Flagged is true when the task itself is marked blocked.
	Flagged bool   `json:"flagged,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Decision is the result of Next.
type Decision struct {
	Kind    DecisionKind  `json:"kind"`
	Task    *Task         `json:"task,omitempty"`
	Blocked []BlockedTask `json:"blocked,omitempty"`
}

// Next selects the next eligible task: incomplete, not flagged blocked,
// every dependency passing. Among eligible tasks the lowest Priority wins,
// ties going to declaration order. Next is a pure query; it never mutates
// ts.
//
// A dependency cycle anywhere in ts is an ErrConfiguration error, even
// when some other task is eligible. When nothing is eligible a Blocked
// decision lists each incomplete task with its direct unmet dependencies.
func Next(ts []Task) (Decision, error) {
	if err := checkCycles(ts); err != nil {
		return Decision{}, err
	}

	passing := make(map[string]bool, len(ts))
	for _, t := range ts {
		if t.Passes {
			passing[t.ID] = true
		}
	}

	best := -1
	incomplete := 0
	for i, t := range ts {
		if t.Passes {
			continue
		}
		incomplete++
		if t.Blocked || len(unmet(t, passing)) > 0 {
			continue
		}
		if best == -1 || t.Priority < ts[best].Priority {
			best = i
		}
	}

	switch {
	case best >= 0:
		task := ts[best].Clone()
		return Decision{Kind: Ready, Task: &task}, nil
	case incomplete == 0:
		return Decision{Kind: Done}, nil
	}

	report := make([]BlockedTask, 0, incomplete)
	for _, t := range ts {
		if t.Passes {
			continue
		}
		report = append(report, BlockedTask{
			ID:      t.ID,
			Unmet:   unmet(t, passing),
			Flagged: t.Blocked,
			Reason:  t.BlockedReason,
		})
	}
	return Decision{Kind: Blocked, Blocked: report}, nil
}

// checkCycles reports self-dependencies and cycles. Dependencies on
// unknown ids are left to the blocked report.
func checkCycles(ts []Task) error {
	if len(topoOrder(ts)) == len(ts) {
		return nil
	}
	if ids := cyclicIDs(ts, nil); len(ids) > 0 {
		return errkind.Errorf(errkind.ErrConfiguration, "schedule", ids, "dependency cycle")
	}
	return nil
}

// unmet returns t's dependencies that are not passing, in declared order.
func unmet(t Task, passing map[string]bool) []string {
	var out []string
	for _, d := range t.Dependencies {
		if !passing[d] {
			out = append(out, d)
		}
	}
	return out
}
