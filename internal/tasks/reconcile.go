package tasks

// Reconcile marks tasks complete when the event log shows they were
// completed but the task list was never updated, e.g. after a crash
// between doing the work and saving.
//
// A task with Passes=false and at least one event carrying its exact id
// gets Passes=true and CompletedAt set to the earliest such event. Tasks
// that already pass are untouched, so Reconcile never flips true to false
// and applying it twice equals applying it once. ts is not modified; the
// returned slice is a copy. fixed lists the ids that changed, in
// declaration order.
func Reconcile(ts []Task, events []CompletionEvent) (out []Task, fixed []string) {
	earliest := make(map[string]CompletionEvent, len(events))
	for _, ev := range events {
		if ev.TaskID == "" {
			continue
		}
		cur, ok := earliest[ev.TaskID]
		if !ok || ev.ObservedAt.Before(cur.ObservedAt) {
			earliest[ev.TaskID] = ev
		}
	}

	out = make([]Task, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
		if t.Passes {
			continue
		}
		ev, ok := earliest[t.ID]
		if !ok {
			continue
		}
		at := ev.ObservedAt.UTC()
		out[i].Passes = true
		out[i].CompletedAt = &at
		fixed = append(fixed, t.ID)
	}
	return out, fixed
}
