// Package cfg builds statement-level control flow graphs over fragment trees.
// Each graph has a synthetic entry node (id 0) and a synthetic exit node.
package cfg

import (
	"golang.org/x/tools/container/intsets"

	"github.com/l3aro/go-deodorant/pkg/fragment"
	"github.com/l3aro/go-deodorant/pkg/syntax"
)

// NodeID identifies a node. IDs are dense and assigned in source order.
type NodeID int

// EntryID is the method entry node.
const EntryID NodeID = 0

// NodeType represents the type of a CFG node.
type NodeType string

const (
	NodeTypeEntry     NodeType = "entry"     // Method entry point
	NodeTypeExit      NodeType = "exit"      // Method exit point
	NodeTypeBranch    NodeType = "branch"    // if, switch, catch
	NodeTypeLoop      NodeType = "loop"      // for, enhanced for, while, do
	NodeTypeCase      NodeType = "case"      // switch label
	NodeTypeReturn    NodeType = "return"    // return or throw
	NodeTypeJump      NodeType = "jump"      // break or continue
	NodeTypeStatement NodeType = "statement" // Regular statements
)

// EdgeType represents the type of a CFG edge.
type EdgeType string

const (
	EdgeTypeUnconditional EdgeType = "unconditional" // Unconditional jump
	EdgeTypeTrue          EdgeType = "true"          // True branch of conditional
	EdgeTypeFalse         EdgeType = "false"         // False branch of conditional
	EdgeTypeBackEdge      EdgeType = "back_edge"     // Back edge (loop continuation)
	EdgeTypeBreak         EdgeType = "break"         // Break from loop/switch
	EdgeTypeContinue      EdgeType = "continue"      // Continue to next iteration
	EdgeTypeCase          EdgeType = "case"          // Switch to one of its labels
	EdgeTypeException     EdgeType = "exception"     // Try to one of its handlers
)

// Node is one statement of the method.
type Node struct {
	ID        NodeID                 `json:"id" msgpack:"id"`
	Type      NodeType               `json:"type" msgpack:"type"`
	Statement fragment.StatementType `json:"statement,omitempty" msgpack:"statement,omitempty"`
	Key       syntax.Key             `json:"key" msgpack:"key"`
	Line      int                    `json:"line" msgpack:"line"`
	Text      string                 `json:"text" msgpack:"text"`

	// Fragment is the statement fragment the node was built from.
	Fragment *fragment.Fragment `json:"-" msgpack:"-"`
}

// Facts returns the fragments whose facts belong to this node alone. A leaf
// statement owns its own facts; a composite owns only its header
// expressions, since its fragment also rolls up the nested statements.
func (n *Node) Facts() []*fragment.Fragment {
	if n.Fragment == nil {
		return nil
	}
	switch n.Fragment.Kind() {
	case fragment.KindStatement:
		return []*fragment.Fragment{n.Fragment}
	case fragment.KindComposite:
		return n.Fragment.Expressions()
	}
	return nil
}

// IsDecision reports whether the node chooses between successors.
func (n *Node) IsDecision() bool {
	return n.Type == NodeTypeBranch || n.Type == NodeTypeLoop
}

// Edge is a directed control flow edge.
type Edge struct {
	From NodeID   `json:"from" msgpack:"from"`
	To   NodeID   `json:"to" msgpack:"to"`
	Type EdgeType `json:"type" msgpack:"type"`
	Back bool     `json:"back,omitempty" msgpack:"back,omitempty"` // closes a loop
}

// BasicBlock is a maximal straight-line run of nodes.
type BasicBlock struct {
	ID           int      `json:"id" msgpack:"id"`
	Nodes        []NodeID `json:"nodes" msgpack:"nodes"`
	Predecessors []int    `json:"predecessors" msgpack:"predecessors"`
	Successors   []int    `json:"successors" msgpack:"successors"`
}

// Loop is a loop statement with the nodes it encloses, header included.
type Loop struct {
	Header NodeID
	Nodes  intsets.Sparse
}

// Contains reports whether id lies inside the loop.
func (l *Loop) Contains(id NodeID) bool { return l.Nodes.Has(int(id)) }

// CFG represents the complete Control Flow Graph for a method.
type CFG struct {
	Method               string       `json:"method" msgpack:"method"`
	Nodes                []*Node      `json:"nodes" msgpack:"nodes"`
	Edges                []Edge       `json:"edges" msgpack:"edges"`
	Exit                 NodeID       `json:"exit" msgpack:"exit"`
	Blocks               []BasicBlock `json:"blocks" msgpack:"blocks"`
	CyclomaticComplexity int          `json:"cyclomatic_complexity" msgpack:"cyclomatic_complexity"`

	loops []*Loop
	succ  [][]Edge
	pred  [][]Edge
}
