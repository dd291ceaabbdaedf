// Package analysis runs the full pipeline for Java methods: fact
// collection, control flow, dependences and alias widening.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-deodorant/internal/log"
	"github.com/l3aro/go-deodorant/pkg/cfg"
	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/pdg"
	"github.com/l3aro/go-deodorant/pkg/resolve"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// Options configures an Engine.
type Options struct {
	Resolve       resolve.Options
	MaxStatements int           // 0 means unlimited
	Timeout       time.Duration // per method, 0 means none
	Workers       int           // AnalyzeAll concurrency, at least 1
	Logger        log.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Resolve: resolve.DefaultOptions(),
		Workers: 4,
	}
}

// MethodRef names a method to analyse. A positive Line selects among
// overloads by declaration line.
type MethodRef struct {
	Class string
	Name  string
	Line  int
}

func (m MethodRef) String() string {
	if m.Line > 0 {
		return fmt.Sprintf("%s.%s:%d", m.Class, m.Name, m.Line)
	}
	return m.Class + "." + m.Name
}

// ParseMethodRef parses Class.method or Class.method:line.
func ParseMethodRef(s string) (MethodRef, error) {
	var ref MethodRef
	if i := strings.LastIndex(s, ":"); i >= 0 {
		line, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return ref, fmt.Errorf("invalid line in %q: %w", s, err)
		}
		ref.Line = line
		s = s[:i]
	}
	dot := strings.LastIndex(s, ".")
	if dot <= 0 || dot == len(s)-1 {
		return ref, fmt.Errorf("invalid method reference %q, want Class.method", s)
	}
	ref.Class, ref.Name = s[:dot], s[dot+1:]
	return ref, nil
}

// Result is everything built for one method. When Incomplete is set the
// parts present are partial.
type Result struct {
	Method      *resolve.MethodInfo
	Fragment    *fragment.Fragment
	CFG         *cfg.CFG
	PDG         *pdg.PDG
	Diagnostics []diag.Diagnostic
	Incomplete  bool
	Reason      string

	// owned is the private parse AnalyzeAll made for this result
	owned *syntax.Source
}

// Close releases a syntax tree parsed on behalf of the result. Node
// predicates that read syntax answer false once it is released.
func (r *Result) Close() {
	if r != nil && r.owned != nil {
		r.owned.Close()
		r.owned = nil
	}
}

// Engine analyses methods against a declaration index. The index is only
// read, so one engine may analyse several methods concurrently.
type Engine struct {
	program *resolve.Program
	opts    Options
	logger  log.Logger
}

// NewEngine creates an engine over program.
func NewEngine(program *resolve.Program, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Engine{program: program, opts: opts, logger: logger}
}

// Program returns the declaration index.
func (e *Engine) Program() *resolve.Program { return e.program }

// AnalyzeMethod analyses one method declared in src. On cancellation,
// deadline, statement limit or syntax errors it returns the partial result
// together with an *IncompleteError.
func (e *Engine) AnalyzeMethod(ctx context.Context, src *syntax.Source, ref MethodRef) (*Result, error) {
	m, err := e.program.FindMethod(ref.Class, ref.Name, ref.Line)
	if err != nil {
		return &Result{Incomplete: true, Reason: ReasonUnresolved},
			&IncompleteError{MethodID: ref.String(), Reason: ReasonUnresolved, Err: err}
	}
	return e.analyze(ctx, src, m)
}

func (e *Engine) analyze(ctx context.Context, src *syntax.Source, m *resolve.MethodInfo) (*Result, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	id := m.ID()
	start := time.Now()
	e.logger.Debug("analysing method", "method", id, "file", src.Path)

	reporter := diag.NewReporter(e.logger)
	res := &Result{Method: m}
	fail := func(err error) (*Result, error) {
		inc := incomplete(id, err)
		res.Incomplete = true
		res.Reason = inc.Reason
		res.Diagnostics = reporter.Diagnostics()
		e.logger.Warn("analysis incomplete", "method", id, "reason", inc.Reason)
		return res, inc
	}

	r, err := resolve.NewMethodResolver(e.program, src, m, e.opts.Resolve, reporter)
	if err != nil {
		return fail(err)
	}

	root, err := fragment.Build(ctx, r, reporter, fragment.Options{MaxStatements: e.opts.MaxStatements})
	res.Fragment = root
	var syntaxErr error
	switch {
	case errors.Is(err, fragment.ErrSyntax):
		// the tree is usable; keep going and flag it at the end
		syntaxErr = err
	case err != nil:
		return fail(err)
	}

	g, err := cfg.Build(id, root, src)
	if err != nil {
		return fail(err)
	}
	res.CFG = g

	p, err := pdg.NewPDGBuilder(g, r, reporter).Build(ctx)
	res.PDG = p
	if err != nil {
		return fail(err)
	}
	if syntaxErr != nil {
		return fail(syntaxErr)
	}

	res.Diagnostics = reporter.Diagnostics()
	e.logger.Debug("analysed method", "method", id, "nodes", len(p.Nodes), "edges", len(p.Edges),
		"diagnostics", len(res.Diagnostics), "elapsed", time.Since(start).String())
	return res, nil
}

// Methods lists the methods with bodies declared in the source at path.
func Methods(program *resolve.Program, path string) []*resolve.MethodInfo {
	var out []*resolve.MethodInfo
	for _, c := range program.Classes() {
		if c.Source == nil || c.Source.Path != path {
			continue
		}
		for _, m := range c.Methods {
			if !m.Body.IsZero() {
				out = append(out, m)
			}
		}
	}
	return out
}

// AnalyzeAll analyses every method declared in path. Each worker parses
// its own copy of content, so no syntax tree is shared between methods.
// Results keep declaration order and must be closed by the caller. The
// returned error joins the IncompleteErrors of all partial results.
func (e *Engine) AnalyzeAll(ctx context.Context, path string, content []byte) ([]*Result, error) {
	methods := Methods(e.program, path)
	results := make([]*Result, len(methods))
	errs := make([]error, len(methods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			src, err := syntax.Parse(gctx, path, content)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			res, err := e.analyze(gctx, src, m)
			res.owned = src
			results[i], errs[i] = res, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}
