// Package selection tracks which document objects are selected.
package selection

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/loom/internal/graph"
)

// Group is an immutable, ordered, duplicate-free set of selected objects
// with the hit object (the one under the pointer when the group was made).
type Group struct {
	items   []*graph.Object
	members *roaring.Bitmap
	hit     *graph.Object

	ancestorDone bool
	ancestor     *graph.Object
}

// NewGroup builds a group from objs, dropping nils and duplicates while
// keeping first-seen order. hit defaults to the first item and must be a
// member otherwise.
func NewGroup(objs []*graph.Object, hit *graph.Object) *Group {
	g := &Group{members: roaring.New()}
	for _, o := range objs {
		if o == nil || !g.members.CheckedAdd(uint32(o.ID())) {
			continue
		}
		g.items = append(g.items, o)
	}
	if hit != nil && g.members.Contains(uint32(hit.ID())) {
		g.hit = hit
	} else if len(g.items) > 0 {
		g.hit = g.items[0]
	}
	return g
}

// Of is NewGroup with the first object as hit.
func Of(objs ...*graph.Object) *Group { return NewGroup(objs, nil) }

func (g *Group) Items() []*graph.Object { return append([]*graph.Object(nil), g.items...) }
func (g *Group) Len() int               { return len(g.items) }
func (g *Group) IsEmpty() bool          { return len(g.items) == 0 }
func (g *Group) Hit() *graph.Object     { return g.hit }

// Members returns a copy of the member id set.
func (g *Group) Members() *roaring.Bitmap { return g.members.Clone() }

func (g *Group) Contains(o *graph.Object) bool {
	return o != nil && g.members.Contains(uint32(o.ID()))
}

// CommonAncestor returns the lowest object that is a strict ancestor of
// every item. When the document root is selected the root itself is
// returned. Items spread over disconnected trees have no ancestor.
func (g *Group) CommonAncestor() *graph.Object {
	if g.ancestorDone {
		return g.ancestor
	}
	g.ancestorDone = true
	if len(g.items) == 0 {
		return nil
	}
	for _, o := range g.items {
		if d := o.Document(); d != nil && d.Root() == o {
			g.ancestor = o
			return o
		}
	}

	// Candidate ancestors of the first item, nearest first; narrow to the
	// ones shared by every other item.
	var path []*graph.Object
	for p := g.items[0].Parent(); p != nil; p = p.Parent() {
		path = append(path, p)
	}
	lowest := 0
	for _, o := range g.items[1:] {
		ancestors := roaring.New()
		for p := o.Parent(); p != nil; p = p.Parent() {
			ancestors.Add(uint32(p.ID()))
		}
		for lowest < len(path) && !ancestors.Contains(uint32(path[lowest].ID())) {
			lowest++
		}
	}
	if lowest < len(path) {
		g.ancestor = path[lowest]
	}
	return g.ancestor
}

// SameParent returns the single parent shared by every item, or nil.
func (g *Group) SameParent() *graph.Object {
	if len(g.items) == 0 {
		return nil
	}
	parent := g.items[0].Parent()
	for _, o := range g.items[1:] {
		if o.Parent() != parent {
			return nil
		}
	}
	return parent
}

// Model is the current selection of one document.
type Model struct {
	doc   *graph.Document
	group *Group
	seq   uint64
}

func NewModel(doc *graph.Document) *Model {
	return &Model{doc: doc, group: Of()}
}

// Select replaces the current group. nil clears the selection.
func (m *Model) Select(g *Group) {
	if g == nil {
		g = Of()
	}
	m.group = g
	m.seq = m.doc.Sequence()
}

func (m *Model) Clear() { m.Select(nil) }

// Group returns the current group, first dropping members that left the
// tree since it was selected.
func (m *Model) Group() *Group {
	if m.seq != m.doc.Sequence() {
		m.revalidate()
	}
	return m.group
}

func (m *Model) revalidate() {
	keep := make([]*graph.Object, 0, m.group.Len())
	for _, o := range m.group.items {
		if m.doc.Contains(o) {
			keep = append(keep, o)
		}
	}
	if len(keep) != m.group.Len() {
		m.group = NewGroup(keep, m.group.hit)
	} else {
		// same members, but the tree moved under them
		m.group = NewGroup(m.group.items, m.group.hit)
	}
	m.seq = m.doc.Sequence()
}

func (m *Model) IsEmpty() bool { return m.Group().IsEmpty() }

func (m *Model) IsSelected(o *graph.Object) bool { return m.Group().Contains(o) }

// Ancestor returns the common ancestor of the current group.
func (m *Model) Ancestor() *graph.Object { return m.Group().CommonAncestor() }
