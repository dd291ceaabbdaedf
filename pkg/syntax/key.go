package syntax

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Key identifies a syntax node by position instead of by pointer. Two keys are
// equal iff they denote the same node of the same file.
type Key struct {
	Path  string `json:"path,omitempty" msgpack:"path,omitempty"`
	Start uint32 `json:"start" msgpack:"start"`
	End   uint32 `json:"end" msgpack:"end"`
	Kind  string `json:"kind" msgpack:"kind"`
	Line  int    `json:"line" msgpack:"line"` // 1-based
}

// Locator resolves keys back to live nodes.
type Locator interface {
	Locate(key Key) (*sitter.Node, bool)
}

// KeyOf builds the key of node. A nil node yields the zero key.
func KeyOf(path string, node *sitter.Node) Key {
	if node == nil {
		return Key{}
	}
	return Key{
		Path:  path,
		Start: node.StartByte(),
		End:   node.EndByte(),
		Kind:  node.Type(),
		Line:  int(node.StartPoint().Row) + 1,
	}
}

// IsZero reports whether k was built from a nil node.
func (k Key) IsZero() bool {
	return k == Key{}
}

func (k Key) String() string {
	if k.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s:%d[%d:%d]%s", k.Path, k.Line, k.Start, k.End, k.Kind)
}
