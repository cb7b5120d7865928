package edit

import (
	"fmt"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/metadata"
)

// subEdit is one primitive tree edit. Each variant carries its own inverse:
// undo restores exactly the state do captured, so reverting never has to
// work out what the opposite operation was.
type subEdit interface {
	do(d *graph.Document) error
	undo(d *graph.Document) error
	String() string
}

// moveEdit transfers a detached object from its current document into the
// one the job applies to. A source root is given back to its document on
// undo.
type moveEdit struct {
	obj *graph.Object

	src     *graph.Document
	wasRoot bool
}

func (e *moveEdit) do(d *graph.Document) error {
	e.src = e.obj.Document()
	e.wasRoot = e.src != nil && e.src.Root() == e.obj
	return graph.MoveToDocument(e.obj, d)
}

func (e *moveEdit) undo(d *graph.Document) error {
	if e.src == nil || e.src == d {
		return nil
	}
	if err := graph.MoveToDocument(e.obj, e.src); err != nil {
		return err
	}
	if e.wasRoot {
		return e.src.SetRoot(e.obj)
	}
	return nil
}

func (e *moveEdit) String() string {
	return fmt.Sprintf("move %d", e.obj.ID())
}

type insertEdit struct {
	child  *graph.Object
	parent *graph.Object
	acc    *metadata.ComponentProperty
	index  int
}

func (e *insertEdit) do(d *graph.Document) error {
	return d.InsertAsAccessory(e.child, e.parent, e.acc, e.index)
}

func (e *insertEdit) undo(d *graph.Document) error {
	_, _, _, err := d.RemoveFromParent(e.child)
	return err
}

func (e *insertEdit) String() string {
	return fmt.Sprintf("insert %d into %d.%s@%d", e.child.ID(), e.parent.ID(), e.acc.Name(), e.index)
}

// removeEdit records where the child was when it was removed, so sibling
// removals in the same job revert to the right positions.
type removeEdit struct {
	child *graph.Object

	parent *graph.Object
	acc    *metadata.ComponentProperty
	index  int
}

func (e *removeEdit) do(d *graph.Document) error {
	parent, acc, index, err := d.RemoveFromParent(e.child)
	if err != nil {
		return err
	}
	e.parent, e.acc, e.index = parent, acc, index
	return nil
}

func (e *removeEdit) undo(d *graph.Document) error {
	return d.InsertAsAccessory(e.child, e.parent, e.acc, e.index)
}

func (e *removeEdit) String() string {
	return fmt.Sprintf("remove %d", e.child.ID())
}

type setRootEdit struct {
	root *graph.Object
	prev *graph.Object
}

func (e *setRootEdit) do(d *graph.Document) error {
	e.prev = d.Root()
	return d.SetRoot(e.root)
}

func (e *setRootEdit) undo(d *graph.Document) error {
	return d.SetRoot(e.prev)
}

func (e *setRootEdit) String() string {
	if e.root == nil {
		return "set root <nil>"
	}
	return fmt.Sprintf("set root %d", e.root.ID())
}

type pruneEdit struct {
	obj    *graph.Object
	filter graph.PropertyFilter
	what   string

	removed []*graph.Property
}

func (e *pruneEdit) do(d *graph.Document) error {
	e.removed = d.PruneProperties(e.obj, e.filter)
	return nil
}

func (e *pruneEdit) undo(d *graph.Document) error {
	return d.RestoreProperties(e.obj, e.removed)
}

func (e *pruneEdit) String() string {
	return fmt.Sprintf("prune %s properties of %d", e.what, e.obj.ID())
}

type setValueEdit struct {
	obj   *graph.Object
	name  string
	value any
	clear bool

	had           bool
	prev          any
	prevTransient bool
}

func (e *setValueEdit) do(d *graph.Document) error {
	if p := e.obj.Property(e.name); p != nil && !p.IsComponent() {
		e.had, e.prev, e.prevTransient = true, p.Value(), p.IsTransient()
	} else {
		e.had, e.prev, e.prevTransient = false, nil, false
	}
	if e.clear {
		return d.ClearValue(e.obj, e.name)
	}
	return d.SetValue(e.obj, e.name, e.value)
}

func (e *setValueEdit) undo(d *graph.Document) error {
	switch {
	case !e.had:
		return d.ClearValue(e.obj, e.name)
	case e.prevTransient:
		return d.SetTransientValue(e.obj, e.name, e.prev)
	default:
		return d.SetValue(e.obj, e.name, e.prev)
	}
}

func (e *setValueEdit) String() string {
	if e.clear {
		return fmt.Sprintf("clear %d.%s", e.obj.ID(), e.name)
	}
	return fmt.Sprintf("set %d.%s=%v", e.obj.ID(), e.name, e.value)
}
