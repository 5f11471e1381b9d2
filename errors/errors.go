package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrCompletionUnavailable indicates the language-model service could not be reached
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrReadOnlyViolation indicates a generated query tried to do more than read
	ErrReadOnlyViolation = errors.New("query is not a read-only statement")

	// ErrTurnInProgress indicates a conversation already has a turn running
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrSessionClosed indicates the conversation was cleared or closed
	ErrSessionClosed = errors.New("session closed")

	// ErrNoData indicates a query or filter combination matched nothing
	ErrNoData = errors.New("no data found")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
