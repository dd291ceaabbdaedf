package pdg

import (
	"github.com/l3aro/go-deodorant/pkg/diag"
	"github.com/l3aro/go-deodorant/pkg/syntax"
	"github.com/l3aro/go-deodorant/pkg/variable"
)

// ReachingAliasSet records which reference variables may point to the same
// object at a program point. A link v -> w means v was last assigned from w.
// Along different paths v may carry several links.
type ReachingAliasSet struct {
	links map[variable.Decl]*variable.Set[variable.Decl]
	order []variable.Decl
}

// NewReachingAliasSet returns an empty set.
func NewReachingAliasSet() *ReachingAliasSet {
	return &ReachingAliasSet{links: map[variable.Decl]*variable.Set[variable.Decl]{}}
}

func (s *ReachingAliasSet) targets(v variable.Decl) *variable.Set[variable.Decl] {
	t, ok := s.links[v]
	if !ok {
		t = variable.NewSet[variable.Decl]()
		s.links[v] = t
		s.order = append(s.order, v)
	}
	return t
}

// InsertAlias records that v now refers to whatever w refers to.
func (s *ReachingAliasSet) InsertAlias(v, w variable.Decl) {
	if v == w {
		return
	}
	s.RemoveAlias(v)
	s.targets(v).Add(w)
}

// RemoveAlias forgets everything v pointed to. Variables that were assigned
// from v keep pointing to v's former targets.
func (s *ReachingAliasSet) RemoveAlias(v variable.Decl) {
	old := s.links[v]
	for _, u := range s.order {
		t := s.links[u]
		if u == v || !t.Remove(v) || old == nil {
			continue
		}
		for _, w := range old.Items() {
			if w != u {
				t.Add(w)
			}
		}
	}
	if old != nil {
		s.links[v] = variable.NewSet[variable.Decl]()
	}
}

// ContainsAlias reports whether d takes part in any link.
func (s *ReachingAliasSet) ContainsAlias(d variable.Decl) bool {
	for _, u := range s.order {
		t := s.links[u]
		if t.Len() == 0 {
			continue
		}
		if u == d || t.Contains(d) {
			return true
		}
	}
	return false
}

// Aliases returns every variable that may refer to the same object as d.
// A chain that revisits a variable is reported and not followed further.
func (s *ReachingAliasSet) Aliases(d variable.Decl, key syntax.Key, reporter *diag.Reporter) []variable.Decl {
	group := variable.NewSet(d)

	// forward: what d was assigned from
	var walk func(v variable.Decl, path *variable.Set[variable.Decl])
	walk = func(v variable.Decl, path *variable.Set[variable.Decl]) {
		t, ok := s.links[v]
		if !ok {
			return
		}
		for _, w := range t.Items() {
			if path.Contains(w) {
				reporter.Report(diag.MalformedAliasChain, key, "alias chain of %s revisits %s", d.Name, w.Name)
				continue
			}
			group.Add(w)
			path.Add(w)
			walk(w, path)
			path.Remove(w)
		}
	}
	walk(d, variable.NewSet(d))

	// backward: everything assigned from a member of the group
	for changed := true; changed; {
		changed = false
		for _, u := range s.order {
			if group.Contains(u) {
				continue
			}
			for _, w := range s.links[u].Items() {
				if group.Contains(w) {
					group.Add(u)
					changed = true
					break
				}
			}
		}
	}

	group.Remove(d)
	return group.Items()
}

// Clone returns an independent copy.
func (s *ReachingAliasSet) Clone() *ReachingAliasSet {
	c := NewReachingAliasSet()
	for _, u := range s.order {
		c.targets(u).AddAll(s.links[u].Items()...)
	}
	return c
}

// Union merges other into s. It reports whether s changed.
func (s *ReachingAliasSet) Union(other *ReachingAliasSet) bool {
	changed := false
	for _, u := range other.order {
		t := s.targets(u)
		for _, w := range other.links[u].Items() {
			if t.Add(w) {
				changed = true
			}
		}
	}
	return changed
}

// Equal reports whether both sets hold the same links.
func (s *ReachingAliasSet) Equal(other *ReachingAliasSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for u, t := range s.links {
		for _, w := range t.Items() {
			o, ok := other.links[u]
			if !ok || !o.Contains(w) {
				return false
			}
		}
	}
	return true
}

// Len returns the number of links.
func (s *ReachingAliasSet) Len() int {
	n := 0
	for _, t := range s.links {
		n += t.Len()
	}
	return n
}
