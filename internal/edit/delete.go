package edit

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/selection"
)

// NewDeleteSelection detaches the selected objects. Objects whose ancestor
// is also selected go with that ancestor. Selecting the root empties the
// document. Afterwards the shared parent, if any, is selected.
func NewDeleteSelection(e *Editor) *Job {
	j := newJob(KindDelete, "Delete")
	j.state = ParametersSet

	doc := e.doc
	g := e.selection.Group()
	if g.IsEmpty() {
		return j.reject("nothing selected")
	}
	if root := doc.Root(); g.Contains(root) {
		j.add(&setRootEdit{})
		j.target = root
		return j.computed(nil)
	}

	members := g.Members()
	var tops []*graph.Object
	for _, o := range g.Items() {
		if !hasSelectedAncestor(o, members) {
			tops = append(tops, o)
		}
	}
	for _, o := range tops {
		j.add(&removeEdit{child: o})
	}
	if len(tops) > 1 {
		j.description = fmt.Sprintf("Delete %d Objects", len(tops))
	}

	parent := g.SameParent()
	if parent == nil {
		return j.computed(nil)
	}
	j.target = parent
	return j.computed(selection.Of(parent))
}

func hasSelectedAncestor(o *graph.Object, members *roaring.Bitmap) bool {
	for p := o.Parent(); p != nil; p = p.Parent() {
		if members.Contains(uint32(p.ID())) {
			return true
		}
	}
	return false
}
