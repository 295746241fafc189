package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProfileNotFound = errors.New("profile not found")
var ErrJobNotFound = errors.New("job not found")
var ErrConversationNotFound = errors.New("conversation not found")
var ErrConversationExists = errors.New("conversation already exists")
var ErrPermissionDenied = errors.New("permission denied")
var ErrAlreadyApplied = errors.New("already applied to this job")
var ErrOperationInFlight = errors.New("operation already in flight")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountExists = errors.New("account already exists")
var ErrAccountNotFound = errors.New("account not found")

// PartialFailureError reports a multi-step coordinator that completed some
// but not all of its steps. Remaining names the steps still to run, in order;
// re-invoking the coordinator with the same input is safe and converges.
type PartialFailureError struct {
	Completed []string
	Remaining []string
	Cause     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: completed [%s], remaining [%s]: %v",
		strings.Join(e.Completed, ", "), strings.Join(e.Remaining, ", "), e.Cause)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Cause
}

// ValidationError marks a document that fails schema expectations. It is
// absorbed per-document: the offending record is skipped so one malformed
// document cannot break an entire projection.
type ValidationError struct {
	Collection string
	DocID      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s document %q: %s", e.Collection, e.DocID, e.Reason)
}
