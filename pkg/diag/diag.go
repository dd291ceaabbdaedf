// Package diag records recoverable per-statement problems met while
// analysing a method. None of them abort the analysis.
package diag

import (
	"errors"
	"fmt"
	"sync"

	"github.com/l3aro/go-deodorant/internal/log"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// Kind classifies a diagnostic.
type Kind string

const (
	UnresolvedReference Kind = "unresolved_reference"  // a name could not be bound; the fact is skipped
	MissingType         Kind = "missing_type"          // a type was unavailable; Object is used instead
	MalformedAliasChain Kind = "malformed_alias_chain" // alias propagation stopped at a repeated variable
)

var (
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrMissingType         = errors.New("missing type")
	ErrMalformedAliasChain = errors.New("malformed alias chain")
)

// Diagnostic is one recovered problem.
type Diagnostic struct {
	Kind    Kind       `json:"kind" msgpack:"kind"`
	Message string     `json:"message" msgpack:"message"`
	Key     syntax.Key `json:"key" msgpack:"key"`
}

func (d Diagnostic) Error() string {
	if d.Key.IsZero() {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s at line %d", d.Kind, d.Message, d.Key.Line)
}

// Unwrap returns the sentinel error matching the kind.
func (d Diagnostic) Unwrap() error {
	switch d.Kind {
	case UnresolvedReference:
		return ErrUnresolvedReference
	case MissingType:
		return ErrMissingType
	case MalformedAliasChain:
		return ErrMalformedAliasChain
	}
	return nil
}

// Reporter collects diagnostics for one analysis run and logs them.
// A nil *Reporter drops everything.
type Reporter struct {
	mu     sync.Mutex
	logger log.Logger
	diags  []Diagnostic
}

// NewReporter creates a reporter. A nil logger discards log output.
func NewReporter(logger log.Logger) *Reporter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Reporter{logger: logger}
}

// Report records a diagnostic.
func (r *Reporter) Report(kind Kind, key syntax.Key, format string, args ...interface{}) {
	if r == nil {
		return
	}
	d := Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Key: key}

	r.mu.Lock()
	r.diags = append(r.diags, d)
	r.mu.Unlock()

	if kind == MalformedAliasChain {
		r.logger.Warn(d.Message, "kind", kind, "line", key.Line)
		return
	}
	r.logger.Debug(d.Message, "kind", kind, "line", key.Line)
}

// Diagnostics returns the recorded diagnostics in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.diags...)
}

// Count returns how many diagnostics of kind were reported.
func (r *Reporter) Count(kind Kind) int {
	n := 0
	for _, d := range r.Diagnostics() {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
