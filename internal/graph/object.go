package graph

import (
	"sort"
	"sync/atomic"

	"github.com/agentic-research/loom/internal/metadata"
)

// ObjectID identifies an object for its whole life, across documents.
// IDs are process-wide and monotonic so they can be kept in roaring bitmaps.
type ObjectID uint32

var lastID atomic.Uint32

func newID() ObjectID { return ObjectID(lastID.Add(1)) }

// Kind is the closed set of document object variants.
type Kind int

const (
	KindElement Kind = iota
	KindCollection
	KindVirtual
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindCollection:
		return "collection"
	case KindVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// ItemsAccessory is the slot holding a collection object's items.
var ItemsAccessory = metadata.NewComponentProperty("", nil, true, true)

// Object is a node of the document tree.
type Object struct {
	id       ObjectID
	kind     Kind
	typ      *metadata.Type // nil for virtual objects
	typeName string

	doc    *Document
	parent *Property

	props map[string]*Property // elements only
	items *Property            // collections only
}

func (o *Object) ID() ObjectID        { return o.id }
func (o *Object) Kind() Kind          { return o.kind }
func (o *Object) Document() *Document { return o.doc }

// Type returns the resolved runtime type, nil for virtual objects.
func (o *Object) Type() *metadata.Type { return o.typ }

// TypeName returns the declared type name, resolved or not.
func (o *Object) TypeName() string { return o.typeName }

func (o *Object) IsVirtual() bool    { return o.kind == KindVirtual }
func (o *Object) IsCollection() bool { return o.kind == KindCollection }

// IsNode reports whether the object is a node-bearing element with a
// resolved type.
func (o *Object) IsNode() bool { return o.kind == KindElement && o.typ != nil }

// Class returns the object's resolved metadata, nil when it has none.
func (o *Object) Class() *metadata.Class {
	if o.typ == nil || o.doc == nil {
		return nil
	}
	return o.doc.registry.Resolve(o.typ)
}

// ParentProperty returns the slot the object occupies, nil when detached.
func (o *Object) ParentProperty() *Property { return o.parent }

// Parent returns the object owning the slot this object occupies.
func (o *Object) Parent() *Object {
	if o.parent == nil {
		return nil
	}
	return o.parent.owner
}

// ParentAccessory returns the accessory this object was inserted through.
func (o *Object) ParentAccessory() *metadata.ComponentProperty {
	if o.parent == nil {
		return nil
	}
	return o.parent.accessory
}

// IndexInParent returns the object's position in its slot, or -1.
func (o *Object) IndexInParent() int {
	if o.parent == nil {
		return -1
	}
	return o.parent.indexOf(o)
}

// IsDescendantOf reports whether o lies strictly below ancestor.
func (o *Object) IsDescendantOf(ancestor *Object) bool {
	for p := o.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Property returns the property called name, or nil.
func (o *Object) Property(name string) *Property {
	if o.props == nil {
		return nil
	}
	return o.props[name]
}

// Properties returns the object's properties sorted by name.
func (o *Object) Properties() []*Property {
	out := make([]*Property, 0, len(o.props))
	for _, p := range o.props {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Children returns the live children of the named slot.
func (o *Object) Children(name string) []*Object {
	if o.kind == KindCollection && name == ItemsAccessory.Name() {
		return o.items.Children()
	}
	if p := o.Property(name); p != nil && p.component {
		return p.Children()
	}
	return nil
}

// Items returns a collection object's items.
func (o *Object) Items() []*Object {
	if o.items == nil {
		return nil
	}
	return o.items.Children()
}

// AllChildren returns every child, slot by slot in name order.
func (o *Object) AllChildren() []*Object {
	if o.kind == KindCollection {
		return o.Items()
	}
	var out []*Object
	for _, p := range o.Properties() {
		if p.component {
			out = append(out, p.children...)
		}
	}
	return out
}

// Value returns an explicitly set value, falling back to the descriptor
// default. Virtual objects and collections never report a value.
func (o *Object) Value(name string) (any, bool) {
	if o.kind != KindElement {
		return nil, false
	}
	if p := o.Property(name); p != nil && !p.component {
		return p.value, true
	}
	if c := o.Class(); c != nil {
		if vp, ok := c.Lookup(name).(*metadata.ValueProperty); ok {
			return vp.Default, true
		}
	}
	return nil, false
}

// Walk visits o and its descendants in pre-order until fn returns false.
func (o *Object) Walk(fn func(*Object) bool) bool {
	if !fn(o) {
		return false
	}
	for _, c := range o.AllChildren() {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

func (o *Object) setDocument(d *Document) {
	o.Walk(func(x *Object) bool {
		if x.doc != nil && x.doc != d {
			delete(x.doc.objects, x.id)
		}
		x.doc = d
		if d != nil {
			d.objects[x.id] = x
		}
		return true
	})
}
