package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJava(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWorkspaceResolvesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	counter := writeJava(t, dir, "Counter.java", `class Counter {
    int n;
    int next() { return n + 1; }
}
`)
	user := writeJava(t, dir, "User.java", `class User {
    int use(Counter c) {
        int v = c.next();
        return v;
    }
}
`)

	w, err := LoadWorkspace(context.Background(), []string{user, counter, user}, 2)
	require.NoError(t, err)
	defer w.Close()

	assert.Len(t, w.Sources(), 2)
	src, ok := w.Source(user)
	require.True(t, ok)

	e := NewEngine(w.Program, DefaultOptions())
	res, err := e.AnalyzeMethod(context.Background(), src, MethodRef{Class: "User", Name: "use"})
	require.NoError(t, err)

	through := res.Fragment.InvokedMethodsThroughParameters()
	require.Len(t, through, 1)
	assert.Equal(t, "c", through[0].Variable.Name())
	require.Len(t, through[0].Methods, 1)
	assert.Equal(t, "Counter::next():int", through[0].Methods[0].Signature())
}

func TestLoadWorkspaceMissingFile(t *testing.T) {
	_, err := LoadWorkspace(context.Background(), []string{filepath.Join(t.TempDir(), "Nope.java")}, 1)
	assert.Error(t, err)
}
