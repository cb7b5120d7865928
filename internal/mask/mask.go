// Package mask answers structural questions about a document object: which
// slots (accessories) it has and whether a candidate child fits in one.
// A Mask never mutates the tree. Masks are cheap and meant to be built per
// query; the metadata they read is cached by the registry.
package mask

import (
	"errors"
	"fmt"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/metadata"
)

// ErrUnknownAccessory is the panic value for accessory-specific queries
// made with a slot the mask does not recognize.
var ErrUnknownAccessory = errors.New("accessory not declared by object")

// Mask is a query view over one object and its resolved class.
type Mask struct {
	obj   *graph.Object
	class *metadata.Class
	main  *metadata.ComponentProperty
	accs  []*metadata.ComponentProperty // excluding main
}

// New builds the mask of obj. Virtual objects get an empty mask; collection
// objects expose their items as an untyped main collection slot.
func New(obj *graph.Object) *Mask {
	m := &Mask{obj: obj}
	switch obj.Kind() {
	case graph.KindCollection:
		m.main = graph.ItemsAccessory
	case graph.KindElement:
		m.class = obj.Class()
		if m.class == nil {
			break
		}
		m.main = m.class.MainAccessory()
		for _, cp := range m.class.ComponentProperties() {
			if cp != m.main {
				m.accs = append(m.accs, cp)
			}
		}
	}
	return m
}

func (m *Mask) Object() *graph.Object { return m.obj }

// Accessories returns the declared slots other than the main one, in
// declaration order.
func (m *Mask) Accessories() []*metadata.ComponentProperty {
	return append([]*metadata.ComponentProperty(nil), m.accs...)
}

// MainAccessory returns the slot receiving unqualified children, or nil.
func (m *Mask) MainAccessory() *metadata.ComponentProperty { return m.main }

// Accessory returns the slot called name, main included.
func (m *Mask) Accessory(name string) *metadata.ComponentProperty {
	if m.main != nil && m.main.Name() == name {
		return m.main
	}
	for _, a := range m.accs {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// IsAcceptingAccessory reports whether acc is one of the object's slots.
func (m *Mask) IsAcceptingAccessory(acc *metadata.ComponentProperty) bool {
	if acc == nil {
		return false
	}
	if acc == m.main {
		return true
	}
	for _, a := range m.accs {
		if a == acc {
			return true
		}
	}
	return false
}

// AcceptsObject reports whether candidate fits acc by type. Virtual
// candidates fit everywhere the slot exists.
func (m *Mask) AcceptsObject(acc *metadata.ComponentProperty, candidate *graph.Object) bool {
	if !m.IsAcceptingAccessory(acc) {
		return false
	}
	if candidate.IsVirtual() {
		return true
	}
	if acc.ContentType == nil {
		return true
	}
	t := candidate.Type()
	return t != nil && t.IsAssignableTo(acc.ContentType)
}

// AcceptsObjects is AcceptsObject for a set: every candidate must fit, and
// a single-object slot refuses more than one real (non-virtual) candidate.
func (m *Mask) AcceptsObjects(acc *metadata.ComponentProperty, candidates []*graph.Object) bool {
	solid := 0
	for _, c := range candidates {
		if !m.AcceptsObject(acc, c) {
			return false
		}
		if !c.IsVirtual() {
			solid++
		}
	}
	if acc != nil && !acc.Collection && solid > 1 {
		return false
	}
	return true
}

// IsAcceptingSubComponent checks candidates against the main slot,
// refusing a single-object main slot that already holds a real child.
func (m *Mask) IsAcceptingSubComponent(candidates ...*graph.Object) bool {
	if m.main == nil || !m.AcceptsObjects(m.main, candidates) {
		return false
	}
	if !m.main.Collection && len(m.SubComponents(m.main, false)) > 0 {
		return false
	}
	return true
}

// CanInsert is the full check for inserting one more child into acc: type
// acceptance plus the single-object occupancy rule.
func (m *Mask) CanInsert(acc *metadata.ComponentProperty, candidate *graph.Object) bool {
	if !m.AcceptsObject(acc, candidate) {
		return false
	}
	if acc.Collection || candidate.IsVirtual() {
		return true
	}
	return len(m.SubComponents(acc, false)) == 0
}

// SubComponents returns the live children of acc. It panics with
// ErrUnknownAccessory when acc is not one of the object's slots.
func (m *Mask) SubComponents(acc *metadata.ComponentProperty, includeVirtuals bool) []*graph.Object {
	if !m.IsAcceptingAccessory(acc) {
		panic(fmt.Errorf("%w: %s on %s", ErrUnknownAccessory, acc, m.obj.TypeName()))
	}
	children := m.obj.Children(acc.Name())
	if includeVirtuals {
		return children
	}
	out := children[:0]
	for _, c := range children {
		if !c.IsVirtual() {
			out = append(out, c)
		}
	}
	return out
}

// AccessoryOf returns the slot of this object that child occupies, or nil
// when child's parent is some other object.
func (m *Mask) AccessoryOf(child *graph.Object) *metadata.ComponentProperty {
	if child.Parent() != m.obj {
		return nil
	}
	acc := child.ParentAccessory()
	if !m.IsAcceptingAccessory(acc) {
		return nil
	}
	return acc
}

// Accepts adapts the mask to graph.Acceptor so documents can enforce slot
// typing on every insert.
func Accepts(parent *graph.Object, acc *metadata.ComponentProperty, child *graph.Object) bool {
	return New(parent).CanInsert(acc, child)
}

var _ graph.Acceptor = Accepts
