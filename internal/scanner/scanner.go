// Package scanner finds Java sources under a set of source roots. It
// respects .deoignore files with gitignore-style patterns and skips build
// output directories.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo describes a discovered source file.
type FileInfo struct {
	Path     string // relative to the source root, slash separated
	FullPath string // absolute
	Package  string // package implied by the directory layout
	Size     int64
}

// Options configures the scanner.
type Options struct {
	SkipHidden      bool     // skip names starting with .
	FollowSymlinks  bool     // follow file symlinks that stay inside the root
	DefaultExcludes []string // directory names never entered
	IgnoreFileName  string   // default .deoignore
	Extensions      []string // default .java
}

// DefaultOptions returns scanner options for Maven and Gradle style trees.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".deoignore",
		Extensions:     []string{".java"},
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			".idea",
			".gradle",
			".mvn",
			"target",
			"build",
			"out",
			"bin",
			"node_modules",
		},
	}
}

// descriptor files that declare no types
var skipNames = map[string]bool{
	"package-info.java": true,
	"module-info.java":  true,
}

// Scanner walks one source root at a time.
type Scanner struct {
	opts Options
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".deoignore"
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".java"}
	}
	return &Scanner{opts: opts}
}

// Scan walks root and returns the matching sources in path order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if !s.wanted(info.Name()) {
			return nil, nil
		}
		return []FileInfo{{Path: info.Name(), FullPath: absRoot, Size: info.Size()}}, nil
	}

	patterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the walk goes on
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.excluded(d.Name()) || matchIgnore(rel+"/", patterns) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path)
			if err == nil {
				patterns = append(patterns, scoped(rel, nested)...)
			}
			return nil
		}

		if !s.wanted(d.Name()) || matchIgnore(rel, patterns) {
			return nil
		}

		fi, err := s.resolve(absRoot, path, d)
		if err != nil || fi == nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     rel,
			FullPath: path,
			Package:  packageOf(rel),
			Size:     fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

// resolve returns the file info for a regular file or an in-root symlink
// to one, nil when the entry should be skipped.
func (s *Scanner) resolve(absRoot, path string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Info()
	}
	if !s.opts.FollowSymlinks {
		return nil, nil
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, nil
	}
	if target != absRoot && !strings.HasPrefix(target, absRoot+string(filepath.Separator)) {
		return nil, nil
	}
	fi, err := os.Stat(target)
	if err != nil || fi.IsDir() {
		return nil, nil
	}
	return fi, nil
}

func (s *Scanner) wanted(name string) bool {
	if skipNames[name] {
		return false
	}
	ext := filepath.Ext(name)
	for _, e := range s.opts.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads the ignore file in dir, if any.
func (s *Scanner) loadIgnorePatterns(dir string) ([]IgnorePattern, error) {
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}
	return patterns, sc.Err()
}

// scoped anchors patterns read from a nested ignore file to its directory.
func scoped(dir string, patterns []IgnorePattern) []IgnorePattern {
	for i := range patterns {
		patterns[i].base = dir
	}
	return patterns
}

// matchIgnore applies patterns in order; a later negation re-includes.
func matchIgnore(rel string, patterns []IgnorePattern) bool {
	ignored := false
	for _, p := range patterns {
		if p.Match(rel) {
			ignored = !p.IsNegation()
		}
	}
	return ignored
}

// packageOf derives the package name from the directory of rel.
func packageOf(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

// Sources scans every root with opts and returns the distinct absolute
// paths of the sources found, sorted.
func Sources(roots []string, opts Options) ([]string, error) {
	s := New(opts)
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		files, err := s.Scan(root)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f.FullPath] {
				seen[f.FullPath] = true
				out = append(out, f.FullPath)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Scan scans root with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
