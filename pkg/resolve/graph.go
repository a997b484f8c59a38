// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"slices"

	"github.com/srcpack/srcpack/pkg/srcpath"
)

// RootOrigin names the synthetic origin that maps the entry file to itself.
// It can never collide with a real path because '<' does not appear in
// normalized manifest paths produced by this package.
const RootOrigin = "<entry>"

type (
	// Edge maps a source path to its destination path. An empty Dest
	// excludes the source.
	Edge struct {
		Source string `json:"source" yaml:"source" toml:"source"`
		Dest   string `json:"dest" yaml:"dest" toml:"dest"`
	}

	// EdgeSet is the ordered source→destination mapping contributed by one
	// origin. Setting a source twice keeps its first position and the last
	// destination.
	EdgeSet struct {
		edges []Edge
		index map[string]int
	}

	// Graph is the state of one resolution run: the visited set and the edge
	// sets of every processed origin, in discovery order.
	Graph struct {
		entry    string
		origins  []string
		sets     map[string]*EdgeSet
		visited  map[string]struct{}
		warnings []Warning
	}
)

func newEdgeSet() *EdgeSet {
	return &EdgeSet{index: make(map[string]int)}
}

func (s *EdgeSet) set(src, dest string) {
	if i, ok := s.index[src]; ok {
		s.edges[i].Dest = dest
		return
	}
	s.index[src] = len(s.edges)
	s.edges = append(s.edges, Edge{Source: src, Dest: dest})
}

// Lookup returns the destination recorded for src.
func (s *EdgeSet) Lookup(src string) (string, bool) {
	i, ok := s.index[src]
	if !ok {
		return "", false
	}
	return s.edges[i].Dest, true
}

// Edges returns a copy of the edges in insertion order.
func (s *EdgeSet) Edges() []Edge {
	return slices.Clone(s.edges)
}

// Len returns the number of edges.
func (s *EdgeSet) Len() int {
	return len(s.edges)
}

func newGraph(entry string) *Graph {
	g := &Graph{
		entry:   entry,
		sets:    make(map[string]*EdgeSet),
		visited: make(map[string]struct{}),
	}
	g.origin(RootOrigin).set(entry, entry)
	return g
}

// origin returns the edge set of o, creating it on first use.
func (g *Graph) origin(o string) *EdgeSet {
	if s, ok := g.sets[o]; ok {
		return s
	}
	s := newEdgeSet()
	g.sets[o] = s
	g.origins = append(g.origins, o)
	return s
}

func (g *Graph) warn(w Warning) {
	g.warnings = append(g.warnings, w)
}

// Entry returns the normalized entry path.
func (g *Graph) Entry() string {
	return g.entry
}

// Origins returns all origins in discovery order, RootOrigin first.
func (g *Graph) Origins() []string {
	return slices.Clone(g.origins)
}

// EdgeSet returns the edges contributed by origin.
func (g *Graph) EdgeSet(origin string) (*EdgeSet, bool) {
	s, ok := g.sets[origin]
	return s, ok
}

// Visited reports whether p was processed during the run.
func (g *Graph) Visited(p string) bool {
	_, ok := g.visited[p]
	return ok
}

// VisitedCount returns the number of distinct paths processed.
func (g *Graph) VisitedCount() int {
	return len(g.visited)
}

// Warnings returns the recoverable conditions met while building the graph.
func (g *Graph) Warnings() []Warning {
	return slices.Clone(g.warnings)
}

// SelfRemap returns the destination file p declares for itself, i.e. the
// edge p→d found in p's own edge set.
func (g *Graph) SelfRemap(p string) (string, bool) {
	if p == "" || p == RootOrigin {
		return "", false
	}
	s, ok := g.sets[p]
	if !ok {
		return "", false
	}
	return s.Lookup(p)
}

// finalDest applies the override chain to one edge. A file that redefines
// its own target wins over whatever another file assigned to it; failing
// that, a file sitting at the assigned destination may redirect it. A file
// listing itself unchanged redefines nothing.
func (g *Graph) finalDest(src, dest string) string {
	if self, ok := g.SelfRemap(src); ok && self != src {
		return self
	}
	if dest != "" && dest != src {
		if self, ok := g.SelfRemap(dest); ok && self != dest {
			return self
		}
	}
	return dest
}

// Resolve runs the second pass: every edge of every origin gets its final
// destination. Escaping destinations are reported as warnings on the mapping.
func (g *Graph) Resolve() *Mapping {
	m := &Mapping{Entry: g.entry, Warnings: g.Warnings()}
	warned := make(map[Edge]struct{})

	for _, o := range g.origins {
		for _, e := range g.sets[o].edges {
			final := g.finalDest(e.Source, e.Dest)
			escapes := srcpath.Escapes(final)
			m.Entries = append(m.Entries, Entry{
				Origin:   o,
				Source:   e.Source,
				Declared: e.Dest,
				Dest:     final,
				Escapes:  escapes,
			})

			key := Edge{Source: e.Source, Dest: final}
			if _, seen := warned[key]; seen || !escapes {
				continue
			}
			warned[key] = struct{}{}
			m.Warnings = append(m.Warnings, Warning{
				Kind:    WarnPathEscape,
				Origin:  o,
				Path:    final,
				Message: "destination references a path above the prefix root",
			})
		}
	}
	return m
}
