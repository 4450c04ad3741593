package models

import "errors"

// Sentinel errors shared by the lifecycle, routing and service layers.
// Wrap with fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrEmptyTargetSet    = errors.New("notification resolved no target roles")
	ErrUnknownEventType  = errors.New("unknown notification event type")
)
