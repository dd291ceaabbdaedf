package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l3aro/go-deodorant/internal/log"
	"github.com/l3aro/go-deodorant/internal/scanner"
	"github.com/l3aro/go-deodorant/pkg/analysis"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// session is the loaded workspace for one command.
type session struct {
	ws     *analysis.Workspace
	src    *syntax.Source
	engine *analysis.Engine
}

func (s *session) Close() { s.ws.Close() }

// openSession indexes file together with every Java source under the
// configured source roots.
func openSession(ctx context.Context, file string) (*session, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", file)
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	cfg := settings.cfg
	paths, err := scanner.Sources(cfg.SourceRoots, scanner.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("scanning source roots: %w", err)
	}
	paths = appendMissing(paths, abs)

	spinner := log.NewProgressSpinner(os.Stderr, fmt.Sprintf("Indexing %d files...", len(paths)))
	spinner.Start()
	ws, err := analysis.LoadWorkspace(ctx, paths, cfg.Workers)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	settings.logger.Debug("indexed sources", "files", len(paths), "classes", len(ws.Program.Classes()))

	src, ok := ws.Source(abs)
	if !ok {
		ws.Close()
		return nil, fmt.Errorf("%s was not indexed", file)
	}

	engine := analysis.NewEngine(ws.Program, analysis.Options{
		Resolve:       resolve.Options{ExternalCalls: cfg.ExternalCalls},
		MaxStatements: cfg.MaxStatements,
		Timeout:       cfg.Timeout,
		Workers:       cfg.Workers,
		Logger:        settings.logger,
	})
	return &session{ws: ws, src: src, engine: engine}, nil
}

func appendMissing(paths []string, path string) []string {
	for _, p := range paths {
		if p == path {
			return paths
		}
	}
	return append(paths, path)
}
