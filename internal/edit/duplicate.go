package edit

import (
	"fmt"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/selection"
)

// NewDuplicateSelection duplicates the selected objects next to their
// originals. The selection must be non-empty, exclude the root, contain
// only resolved objects sharing one parent, and sit in a collection slot.
// Duplicates are appended to that slot in selection order and positioned
// elements are shifted by Config.DuplicateDelta.
func NewDuplicateSelection(e *Editor) *Job {
	j := newJob(KindDuplicate, "Duplicate")
	j.state = ParametersSet

	doc := e.doc
	g := e.selection.Group()
	if g.IsEmpty() {
		return j.reject("nothing selected")
	}
	if doc.Root() == nil || g.Contains(doc.Root()) {
		return j.reject("selection includes the root")
	}
	items := g.Items()
	for _, o := range items {
		if o.Type() == nil || o.IsVirtual() {
			return j.reject("object %d has no resolved type", o.ID())
		}
	}
	parent := g.SameParent()
	if parent == nil {
		return j.reject("selection spans several parents")
	}
	m := mask.New(parent)
	acc := m.AccessoryOf(items[0])
	if acc == nil || !acc.Collection {
		return j.reject("selection is not in a collection slot")
	}
	for _, o := range items[1:] {
		if m.AccessoryOf(o) != acc {
			return j.reject("selection spans several slots")
		}
	}

	dups := make([]*graph.Object, 0, len(items))
	for _, o := range items {
		dup := doc.Duplicate(o).Root()
		if err := e.offset(dup, e.cfg.DuplicateDelta); err != nil {
			return j.reject("offset duplicate of %d: %v", o.ID(), err)
		}
		dups = append(dups, dup)
	}
	if !m.AcceptsObjects(acc, dups) {
		return j.reject("%s.%s rejects the duplicates", parent.TypeName(), acc.Name())
	}

	for _, dup := range dups {
		j.add(&moveEdit{obj: dup})
		j.add(&insertEdit{child: dup, parent: parent, acc: acc, index: -1})
	}
	if len(dups) > 1 {
		j.description = fmt.Sprintf("Duplicate %d Objects", len(dups))
	}
	j.target = parent
	return j.computed(selection.Of(dups...))
}
