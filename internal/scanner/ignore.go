package scanner

import (
	"path"
	"path/filepath"
	"strings"
)

// IgnorePattern is one gitignore-style line.
type IgnorePattern struct {
	raw      string
	negate   bool // !pattern
	dirOnly  bool // pattern/
	anchored bool // /pattern
	segments []string
	base     string // directory of the ignore file, relative to the root
}

// ParseIgnorePattern parses a gitignore-style pattern.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{raw: pattern}
	if strings.HasPrefix(pattern, "!") {
		p.negate = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.anchored = true
		pattern = pattern[1:]
	}
	p.segments = strings.Split(pattern, "/")
	return p
}

// String returns the pattern as written.
func (p IgnorePattern) String() string { return p.raw }

// IsNegation reports whether the pattern re-includes what it matches.
func (p IgnorePattern) IsNegation() bool { return p.negate }

// Match reports whether rel, or one of its parent directories, matches.
// Directory paths carry a trailing slash. Negation patterns match like
// any other; callers decide what a match means.
func (p IgnorePattern) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	isDir := strings.HasSuffix(rel, "/")
	rel = strings.TrimSuffix(rel, "/")
	if p.base != "" {
		if !strings.HasPrefix(rel, p.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, p.base+"/")
	}

	parts := strings.Split(rel, "/")
	for end := len(parts); end >= 1; end-- {
		if end == len(parts) && p.dirOnly && !isDir {
			continue
		}
		if p.matchPath(parts[:end]) {
			return true
		}
	}
	return false
}

func (p IgnorePattern) matchPath(parts []string) bool {
	if p.anchored {
		return matchSegments(p.segments, parts)
	}
	for i := range parts {
		if matchSegments(p.segments, parts[i:]) {
			return true
		}
	}
	return false
}

// matchSegments matches pattern segments against path segments; ** spans
// any number of directories.
func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}
