package pdg

import (
	"container/list"
	"sort"

	"github.com/l3aro/go-deodorant/pkg/cfg"
)

// DependencyInfo contains the control and data dependences of the
// statements on one line, split by direction.
type DependencyInfo struct {
	ControlIn  []*Edge `json:"control_in" msgpack:"control_in"`
	ControlOut []*Edge `json:"control_out" msgpack:"control_out"`
	DataIn     []*Edge `json:"data_in" msgpack:"data_in"`
	DataOut    []*Edge `json:"data_out" msgpack:"data_out"`
}

// NodesAtLine returns the statement nodes that start on line.
func (p *PDG) NodesAtLine(line int) []*Node {
	var out []*Node
	for _, n := range p.Statements() {
		if n.CFG.Line == line {
			out = append(out, n)
		}
	}
	return out
}

// lines returns the sorted distinct lines of the statement nodes in ids.
func (p *PDG) lines(ids []cfg.NodeID) []int {
	seen := make(map[int]bool)
	var lines []int
	for _, id := range ids {
		n := p.Node(id)
		if n == nil || id == cfg.EntryID || id == p.CFG.Exit || seen[n.CFG.Line] {
			continue
		}
		seen[n.CFG.Line] = true
		lines = append(lines, n.CFG.Line)
	}
	sort.Ints(lines)
	return lines
}

// traverse walks dependences from the start nodes breadth first. With a
// variable filter only data edges of that variable are followed; control
// edges are always followed.
func (p *PDG) traverse(start []*Node, backward bool, variable *string) []cfg.NodeID {
	visited := make(map[cfg.NodeID]bool)
	queue := list.New()
	for _, n := range start {
		queue.PushBack(n.ID)
		visited[n.ID] = true
	}

	var result []cfg.NodeID
	for queue.Len() > 0 {
		id := queue.Remove(queue.Front()).(cfg.NodeID)
		result = append(result, id)

		edges := p.Nodes[id].out
		if backward {
			edges = p.Nodes[id].in
		}
		for _, e := range edges {
			if variable != nil && e.Type == DepTypeData && e.Label != *variable {
				continue
			}
			next := e.To
			if backward {
				next = e.From
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			queue.PushBack(next)
		}
	}
	return result
}

// BackwardSlice returns the lines that may affect the statements on line.
func BackwardSlice(p *PDG, line int, variable *string) []int {
	if p == nil {
		return nil
	}
	start := p.NodesAtLine(line)
	if len(start) == 0 {
		return nil
	}
	return p.lines(p.traverse(start, true, variable))
}

// ForwardSlice returns the lines the statements on line may affect.
func ForwardSlice(p *PDG, line int, variable *string) []int {
	if p == nil {
		return nil
	}
	start := p.NodesAtLine(line)
	if len(start) == 0 {
		return nil
	}
	return p.lines(p.traverse(start, false, variable))
}

// GetDependencies returns all dependences of the statements on line.
func GetDependencies(p *PDG, line int) DependencyInfo {
	var info DependencyInfo
	if p == nil {
		return info
	}
	for _, n := range p.NodesAtLine(line) {
		for _, e := range n.in {
			if e.Type == DepTypeControl {
				info.ControlIn = append(info.ControlIn, e)
			} else {
				info.DataIn = append(info.DataIn, e)
			}
		}
		for _, e := range n.out {
			if e.Type == DepTypeControl {
				info.ControlOut = append(info.ControlOut, e)
			} else {
				info.DataOut = append(info.DataOut, e)
			}
		}
	}

	sortEdges := func(edges []*Edge) {
		sort.SliceStable(edges, func(i, j int) bool {
			if edges[i].From != edges[j].From {
				return edges[i].From < edges[j].From
			}
			return edges[i].To < edges[j].To
		})
	}
	sortEdges(info.ControlIn)
	sortEdges(info.ControlOut)
	sortEdges(info.DataIn)
	sortEdges(info.DataOut)
	return info
}

// GetVariableNames returns the distinct variable names on data edges.
func GetVariableNames(p *PDG) []string {
	if p == nil {
		return nil
	}
	set := make(map[string]bool)
	for _, e := range p.Edges {
		if e.Type == DepTypeData && e.Label != "" {
			set[e.Label] = true
		}
	}
	names := make([]string, 0, len(set))
	for v := range set {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}

// FindNodesByVariable returns the nodes that define or use a variable with
// the given name.
func FindNodesByVariable(p *PDG, name string) []cfg.NodeID {
	if p == nil {
		return nil
	}
	var ids []cfg.NodeID
	for _, n := range p.Nodes {
		for _, v := range append(n.defined.Items(), n.used.Items()...) {
			if v.Name() == name {
				ids = append(ids, n.ID)
				break
			}
		}
	}
	return ids
}

// GetNodeAtLine returns the node on line if exactly one starts there.
func GetNodeAtLine(p *PDG, line int) *Node {
	if p == nil {
		return nil
	}
	nodes := p.NodesAtLine(line)
	if len(nodes) != 1 {
		return nil
	}
	return nodes[0]
}

// Slice returns the ids of the nodes reachable from id along dependences,
// backwards unless forward is set.
func (p *PDG) Slice(id cfg.NodeID, forward bool, variable *string) []cfg.NodeID {
	n := p.Node(id)
	if n == nil {
		return nil
	}
	ids := p.traverse([]*Node{n}, !forward, variable)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
