package tasks

// Progress counts tasks by state.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
	Blocked   int `json:"blocked"`
}

// Summarize counts ts. Remaining includes blocked tasks; a passing task
// is never counted as blocked, even if its stale flag is still set.
func Summarize(ts []Task) Progress {
	p := Progress{Total: len(ts)}
	for _, t := range ts {
		switch {
		case t.Passes:
			p.Completed++
		case t.Blocked:
			p.Blocked++
		}
	}
	p.Remaining = p.Total - p.Completed
	return p
}

// Percent returns the completed share as a whole percentage.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}
