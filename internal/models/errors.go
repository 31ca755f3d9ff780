package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrExternalService  = errors.New("external service failure")
	ErrTimeout          = errors.New("operation timed out")
)

// RequireAdmin returns ErrPermissionDenied unless the actor is an admin.
func RequireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return ErrPermissionDenied
	}
	return nil
}
