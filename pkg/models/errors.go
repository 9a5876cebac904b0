package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a case or child row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleWrite is returned when the observed version no longer matches.
	ErrStaleWrite = errors.New("stale write: case was modified by another request")
)

// ExportBlockedMessage is shown when a close-send transition fails the readiness gate.
const ExportBlockedMessage = "Ensure all the required fields are complete before you close the case to send to the equalities body"

// ValidationError is a user-facing rejection of a write. Nothing is saved.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

// IsExportBlocked reports whether err is the readiness gate rejection.
func IsExportBlocked(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Message == ExportBlockedMessage
}

// InvariantError is a broken data invariant: a programming error, not a user error.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s: %s", e.Invariant, e.Detail)
}
