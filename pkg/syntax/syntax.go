// Package syntax wraps the tree-sitter Java grammar. It is the front end the
// analysis packages consume: parsing, stable node keys, node helpers and the
// expression extractor used while decomposing method bodies.
package syntax

import (
	"context"
	"fmt"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// javaParserPool is a pool of reusable tree-sitter parsers for Java.
var javaParserPool = sync.Pool{
	New: func() interface{} {
		parser := sitter.NewParser()
		parser.SetLanguage(java.GetLanguage())
		return parser
	},
}

// Source is one parsed Java compilation unit.
//
// Nodes handed out by a Source are only valid until Close is called. Anything
// that has to outlive the tree should hold a Key and go through Locate.
type Source struct {
	Path    string
	Content []byte

	mu   sync.RWMutex
	tree *sitter.Tree
}

// Parse parses Java source code held in memory.
func Parse(ctx context.Context, path string, content []byte) (*Source, error) {
	parser := javaParserPool.Get().(*sitter.Parser)
	defer javaParserPool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing %s failed", path)
	}

	return &Source{
		Path:    path,
		Content: content,
		tree:    tree,
	}, nil
}

// ParseFile reads and parses a Java file.
func ParseFile(ctx context.Context, path string) (*Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Parse(ctx, path, content)
}

// Root returns the compilation unit node, or nil once the source is closed.
func (s *Source) Root() *sitter.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return nil
	}
	return s.tree.RootNode()
}

// Close releases the syntax tree. Keys taken from it stop resolving.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree != nil {
		s.tree.Close()
		s.tree = nil
	}
}

// Text returns the source text covered by node.
func (s *Source) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= uint32(len(s.Content)) || end > uint32(len(s.Content)) {
		return ""
	}
	return string(s.Content[start:end])
}

// Key returns the stable key of node within this source.
func (s *Source) Key(node *sitter.Node) Key {
	return KeyOf(s.Path, node)
}

// Locate resolves key against the current tree.
func (s *Source) Locate(key Key) (*sitter.Node, bool) {
	if key.Path != s.Path {
		return nil, false
	}
	root := s.Root()
	if root == nil {
		return nil, false
	}
	node := locate(root, key)
	return node, node != nil
}

func locate(node *sitter.Node, key Key) *sitter.Node {
	if node.StartByte() == key.Start && node.EndByte() == key.End && node.Type() == key.Kind {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.StartByte() > key.Start || child.EndByte() < key.End {
			continue
		}
		if found := locate(child, key); found != nil {
			return found
		}
	}
	return nil
}
