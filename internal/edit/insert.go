package edit

import (
	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/selection"
)

// NewInsertAccessory places child in parent's accessory named accName (the
// main accessory when empty) at index, -1 appending. index counts the
// slot's children as they are before the edit. An attached child is moved,
// dropping its transient values when the parent changes.
func NewInsertAccessory(e *Editor, child, parent *graph.Object, accName string, index int) *Job {
	j := newJob(KindInsert, "Insert")
	j.state = ParametersSet

	doc := e.doc
	switch {
	case child == nil || parent == nil:
		return j.reject("missing child or parent")
	case !doc.Contains(parent):
		return j.reject("parent %d is not in the document", parent.ID())
	case child == doc.Root():
		return j.reject("the root cannot be inserted elsewhere")
	case child == parent || parent.IsDescendantOf(child):
		return j.reject("object %d would contain itself", child.ID())
	}

	m := mask.New(parent)
	acc := m.MainAccessory()
	if accName != "" {
		acc = m.Accessory(accName)
	}
	if acc == nil {
		return j.reject("%s has no accessory %q", parent.TypeName(), accName)
	}
	if !m.AcceptsObject(acc, child) {
		return j.reject("%s.%s rejects %s", parent.TypeName(), acc.Name(), child.TypeName())
	}

	n := len(parent.Children(acc.Name()))
	if index < -1 || index > n {
		return j.reject("index %d not in [-1, %d]", index, n)
	}

	from := child.Parent()
	sameSlot := from == parent && child.ParentAccessory() == acc
	if sameSlot {
		cur := child.IndexInParent()
		if index == cur || index == cur+1 || (index == -1 && cur == n-1) {
			return j.reject("object %d is already there", child.ID())
		}
		if index > cur {
			index--
		}
	} else if !acc.Collection && !child.IsVirtual() && len(m.SubComponents(acc, false)) > 0 {
		return j.reject("%s.%s is occupied", parent.TypeName(), acc.Name())
	}

	if child.Document() != doc {
		if from != nil {
			return j.reject("object %d is attached in another document", child.ID())
		}
		j.add(&moveEdit{obj: child})
	}
	if from != nil {
		j.add(&removeEdit{child: child})
	}
	if from != parent {
		j.add(&pruneEdit{obj: child, filter: graph.TransientProperties, what: "transient"})
	}
	j.add(&insertEdit{child: child, parent: parent, acc: acc, index: index})
	j.target = parent
	return j.computed(selection.Of(child))
}
