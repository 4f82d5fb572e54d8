// Package app holds the application services and business logic.
package app

import (
	"errors"

	"technowear/internal/domain"
)

var (
	// ErrNoSession indicates that no live session exists for the browser.
	ErrNoSession = errors.New("no active session")
	// ErrInvalidTransition indicates an action that the current auth mode does not allow.
	ErrInvalidTransition = errors.New("action not available in current mode")
	// ErrOAuthUnavailable indicates that redirect-based sign-in is not configured.
	ErrOAuthUnavailable = errors.New("oauth sign-in is not configured")
	// ErrNotFound indicates that the requested row does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStep indicates a pairing wizard action out of order.
	ErrInvalidStep = errors.New("pairing wizard is not at that step")
	// ErrConfirmationNotFound indicates an unknown or already used delete confirmation.
	ErrConfirmationNotFound = errors.New("delete confirmation not found")
	// ErrConfirmationExpired indicates a delete confirmation that timed out.
	ErrConfirmationExpired = errors.New("delete confirmation expired")
	// ErrAddGarment wraps a backend failure while inserting a garment.
	ErrAddGarment = errors.New("failed to add garment")
	// ErrUnknownTab indicates an unsupported dashboard tab.
	ErrUnknownTab = errors.New("unknown dashboard tab")
)

// User-facing messages of backend failures.
const (
	MsgAddGoal       = "Failed to add goal"
	MsgLoadGarments  = "Failed to load garments"
	MsgRemoveGarment = "Failed to remove garment"
)

// Failure is a backend failure reported to the user as Message.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message + ": " + f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

func fail(msg string, err error) error { return &Failure{Message: msg, Err: err} }

// backendMessage returns the user-facing message of a backend failure, or
// fallback when the error carries none.
func backendMessage(err error, fallback string) string {
	var be *domain.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
