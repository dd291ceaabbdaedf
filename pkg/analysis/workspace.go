package analysis

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// Workspace is a declaration index over a set of parsed files. The
// sources stay open for as long as the workspace does, since the index
// hands out their syntax nodes.
type Workspace struct {
	Program *resolve.Program
	sources map[string]*syntax.Source
	order   []*syntax.Source
}

// LoadWorkspace parses paths concurrently and indexes them in the order
// given. Paths are made absolute so lookups are independent of the caller's
// working directory.
func LoadWorkspace(ctx context.Context, paths []string, workers int) (*Workspace, error) {
	if workers < 1 {
		workers = 1
	}
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		abs[i] = a
	}

	parsed := make([]*syntax.Source, len(abs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range abs {
		i, path := i, path
		g.Go(func() error {
			src, err := syntax.ParseFile(gctx, path)
			if err != nil {
				return err
			}
			parsed[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, src := range parsed {
			if src != nil {
				src.Close()
			}
		}
		return nil, err
	}

	w := &Workspace{
		Program: resolve.NewProgram(),
		sources: make(map[string]*syntax.Source, len(parsed)),
	}
	for _, src := range parsed {
		if _, dup := w.sources[src.Path]; dup {
			src.Close()
			continue
		}
		w.sources[src.Path] = src
		w.order = append(w.order, src)
		w.Program.AddSource(src)
	}
	return w, nil
}

// Source returns the parsed file at path.
func (w *Workspace) Source(path string) (*syntax.Source, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	src, ok := w.sources[abs]
	return src, ok
}

// Sources returns the parsed files in load order.
func (w *Workspace) Sources() []*syntax.Source {
	return append([]*syntax.Source(nil), w.order...)
}

// Close releases every syntax tree.
func (w *Workspace) Close() {
	for _, src := range w.order {
		src.Close()
	}
	w.order = nil
	w.sources = nil
}
