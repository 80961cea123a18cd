package model

import "time"

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

type Status string

const (
	StatusBacklog    Status = "Backlog"
	StatusPlanned    Status = "Planned"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

// Task is the minimal task descriptor submitted by the frontend for
// due-soon evaluation. The notification core never stores tasks.
type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Priority Priority   `json:"priority"`
	Status   Status     `json:"status"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}
