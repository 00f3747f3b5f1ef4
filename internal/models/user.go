package models

import (
	"time"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PhotoKey     string    `json:"photo_key,omitempty" db:"photo_key"`
	Role         Role      `json:"role" db:"role"`
	Bio          string    `json:"bio,omitempty" db:"bio"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserWithStats carries the per-student task aggregates used by the admin
// directory listing, the sort options and the CSV report.
type UserWithStats struct {
	User
	TotalTasks     int `json:"total_tasks" db:"total_tasks"`
	CompletedTasks int `json:"completed_tasks" db:"completed_tasks"`
	OverdueTasks   int `json:"overdue_tasks" db:"overdue_tasks"`
	CompletionRate int `json:"completion_rate" db:"completion_rate"`
}
