// Package task decides which tasks warrant a due-soon reminder.
package task

import (
	"time"

	"github.com/mhollis/cadence/internal/model"
)

// DueSoonWindow is the fixed lookahead for "coming due" alerts. Tasks due
// further out, exactly at, or past their due time are not notifiable.
const DueSoonWindow = 30 * time.Minute

// FilterNotifiable returns the tasks that are high-priority, incomplete,
// and due within the lookahead window relative to now. Output order is not
// significant; per-task dedup is the caller's responsibility.
func FilterNotifiable(tasks []model.Task, now time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Priority != model.PriorityHigh && t.Priority != model.PriorityCritical {
			continue
		}
		if t.Status == model.StatusCompleted {
			continue
		}
		if t.DueDate == nil {
			continue
		}
		until := t.DueDate.Sub(now)
		if until <= 0 || until > DueSoonWindow {
			continue
		}
		out = append(out, t)
	}
	return out
}
