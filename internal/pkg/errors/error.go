package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict: resource already exists")
	ErrInternal       = errors.New("internal server error")
	ErrRateLimited    = errors.New("too many requests")
	ErrSessionExpired = errors.New("session expired or invalid")
)

// Roster errors
var (
	// ErrProtectedRecord is returned when a mutation would delete the admin
	// record or strip its admin rights.
	ErrProtectedRecord = errors.New("admin record is protected")
	// ErrMalformedImport is returned when an import payload is rejected.
	ErrMalformedImport = errors.New("malformed import")
	// ErrPersistenceUnavailable marks storage access failures. The roster never
	// returns it to callers; it is used to tag log entries and backend errors.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrDuplicateMobile        = errors.New("a customer with this mobile number already exists")
)

// Login errors
var (
	ErrNotMember          = errors.New("no member registered with this mobile number")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrAccountInactive    = errors.New("account is inactive, please contact support")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
