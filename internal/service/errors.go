package service

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired or revoked")
	ErrForbidden          = errors.New("access denied")
	ErrAdminExists        = errors.New("an admin account already exists")

	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyTitle   = errors.New("title must not be empty")
	ErrPastDueDate  = errors.New("due date must not be in the past")
	ErrBadDueDate   = errors.New("due date must be in YYYY-MM-DD format")

	ErrNoPhoto      = errors.New("no profile photo uploaded")
	ErrPhotoTooBig  = errors.New("photo exceeds the maximum allowed size")
	ErrInvalidPhoto = errors.New("photo must be an image")
)
