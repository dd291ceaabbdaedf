package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/l3aro/go-deodorant/pkg/fragment"
)

// ErrIncomplete matches every *IncompleteError.
var ErrIncomplete = errors.New("analysis incomplete")

// Reasons an analysis stops early.
const (
	ReasonCancelled       = "cancelled"
	ReasonDeadline        = "deadline exceeded"
	ReasonStatementLimit  = "statement limit exceeded"
	ReasonSyntaxErrors    = "syntax errors"
	ReasonUnresolved      = "unresolved method"
	ReasonStructuralError = "structural error"
)

// IncompleteError reports that a method was only partly analysed. The
// result returned alongside it holds whatever was built, and its facts are
// a lower bound.
type IncompleteError struct {
	MethodID string
	Reason   string
	Err      error
}

func (e *IncompleteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("analysis of %s incomplete: %s", e.MethodID, e.Reason)
	}
	return fmt.Sprintf("analysis of %s incomplete: %s: %v", e.MethodID, e.Reason, e.Err)
}

func (e *IncompleteError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIncomplete) hold.
func (e *IncompleteError) Is(target error) bool { return target == ErrIncomplete }

// incomplete classifies err into an IncompleteError for method.
func incomplete(method string, err error) *IncompleteError {
	reason := ReasonStructuralError
	switch {
	case errors.Is(err, context.Canceled):
		reason = ReasonCancelled
	case errors.Is(err, context.DeadlineExceeded):
		reason = ReasonDeadline
	case errors.Is(err, fragment.ErrTooManyStatements):
		reason = ReasonStatementLimit
	case errors.Is(err, fragment.ErrSyntax):
		reason = ReasonSyntaxErrors
	}
	return &IncompleteError{MethodID: method, Reason: reason, Err: err}
}
