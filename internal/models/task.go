package models

import (
	"time"
)

type Task struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	DueDate     time.Time  `json:"due_date" db:"due_date"` // start-of-day UTC
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type TaskWithOwner struct {
	Task
	OwnerName  string `json:"owner_name" db:"owner_name"`
	OwnerEmail string `json:"owner_email" db:"owner_email"`
}

// TaskBuckets is the four-way partition of a student's task list relative
// to the current day. The three incomplete buckets are disjoint by due
// date; Completed holds every completed task regardless of date.
type TaskBuckets struct {
	Overdue   []Task `json:"overdue"`
	Today     []Task `json:"today"`
	Upcoming  []Task `json:"upcoming"`
	Completed []Task `json:"completed"`
}
