package diag

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l3aro/go-deodorant/internal/log"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(log.New(log.LoggerConfig{Level: log.WarnLevel, Output: &buf}))

	r.Report(UnresolvedReference, syntax.Key{Line: 3}, "cannot bind %s", "foo")
	r.Report(MalformedAliasChain, syntax.Key{Line: 7}, "cycle at %s", "a")

	diags := r.Diagnostics()
	assert.Len(t, diags, 2)
	assert.Equal(t, 1, r.Count(UnresolvedReference))
	assert.Equal(t, "cannot bind foo", diags[0].Message)

	// Only the alias warning reaches a warn-level logger.
	assert.NotContains(t, buf.String(), "cannot bind")
	assert.Contains(t, buf.String(), "cycle at a")
}

func TestDiagnosticUnwrap(t *testing.T) {
	tests := []struct {
		kind Kind
		want error
	}{
		{UnresolvedReference, ErrUnresolvedReference},
		{MissingType, ErrMissingType},
		{MalformedAliasChain, ErrMalformedAliasChain},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var err error = Diagnostic{Kind: tt.kind, Message: "x"}
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestNilReporter(t *testing.T) {
	var r *Reporter
	r.Report(MissingType, syntax.Key{}, "ignored")
	assert.Empty(t, r.Diagnostics())
}
