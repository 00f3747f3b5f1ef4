package models

import "time"

type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationWarning NotificationLevel = "warning"
)

// Notification is a transient entry recomputed on every request; there is
// no delivery or acknowledgment semantics and nothing is persisted.
type Notification struct {
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}
