package models

const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskToggled = "task.toggled"
	EventTaskDeleted = "task.deleted"
)

// TaskEvent is published to the broker on every task mutation and fanned
// out to live streams.
type TaskEvent struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id"`
	UserID    string `json:"user_id"`
	Task      *Task  `json:"task,omitempty"` // omitted for deletions
	Timestamp int64  `json:"timestamp"`
}
