// Package graph is the mutable document object tree.
//
// A Document owns at most one root Object. Objects hold a back-reference to
// the Property they occupy, and every mutation below checks the tree
// invariants before it touches anything: an operation either succeeds
// completely or returns an error with the tree unchanged.
package graph

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"

	"github.com/agentic-research/loom/internal/metadata"
)

var (
	ErrNotFound        = errors.New("object not found")
	ErrAttached        = errors.New("object is attached")
	ErrNotAttached     = errors.New("object is not attached")
	ErrForeignDocument = errors.New("object belongs to another document")
	ErrRejected        = errors.New("slot rejects object")
	ErrIndex           = errors.New("index out of range")
	ErrCycle           = errors.New("object would become its own ancestor")
	ErrReadOnly        = errors.New("property is read-only")
	ErrUnknownProperty = errors.New("unknown property")
	ErrVirtual         = errors.New("object type is unresolved")
	ErrNoProperties    = errors.New("collections have no properties")
)

// Acceptor decides whether child may be inserted into parent's accessory.
// The hierarchy mask supplies the real implementation; graph only needs
// the answer.
type Acceptor func(parent *Object, acc *metadata.ComponentProperty, child *Object) bool

// Document owns one tree of objects plus any detached objects created in
// or moved to it.
type Document struct {
	registry *metadata.Registry
	accepts  Acceptor
	location string

	root     *Object
	objects  map[ObjectID]*Object
	sequence uint64
}

type DocumentOption func(*Document)

// WithLocation sets the opaque location identifier. Documents get a random
// one otherwise.
func WithLocation(loc string) DocumentOption {
	return func(d *Document) { d.location = loc }
}

// WithAcceptor installs the slot acceptance check used by InsertAsAccessory.
func WithAcceptor(a Acceptor) DocumentOption {
	return func(d *Document) { d.accepts = a }
}

// NewDocument returns an empty document. Without WithAcceptor, inserts only
// check that the slot is declared by the parent: content types and
// cardinality go unchecked until SetAcceptor installs a real acceptor.
func NewDocument(reg *metadata.Registry, opts ...DocumentOption) *Document {
	if reg == nil {
		reg = metadata.NewRegistry(nil)
	}
	d := &Document{
		registry: reg,
		objects:  make(map[ObjectID]*Object),
	}
	for _, o := range opts {
		o(d)
	}
	if d.location == "" {
		d.location = uuid.NewString()
	}
	return d
}

// TypedSlots reports whether an acceptor other than the declared-slot
// fallback is installed.
func (d *Document) TypedSlots() bool { return d.accepts != nil }

// SetAcceptor replaces the slot acceptance check. It does not revisit
// objects already inserted.
func (d *Document) SetAcceptor(a Acceptor) { d.accepts = a }

func (d *Document) Registry() *metadata.Registry { return d.registry }
func (d *Document) Location() string             { return d.location }
func (d *Document) Root() *Object                { return d.root }
func (d *Document) IsEmpty() bool                { return d.root == nil }

// Sequence increases on every structural or value mutation. Selections and
// other caches compare it to detect staleness.
func (d *Document) Sequence() uint64 { return d.sequence }

// Object returns the object with the given id owned by d, attached or not.
func (d *Document) Object(id ObjectID) (*Object, error) {
	o, ok := d.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

// Contains reports whether o is part of d's tree (not merely owned by d).
func (d *Document) Contains(o *Object) bool {
	if o == nil || o.doc != d || d.root == nil {
		return false
	}
	return o == d.root || o.IsDescendantOf(d.root)
}

func (d *Document) touch() { d.sequence++ }

// NewElement creates a detached element of type t owned by d.
func (d *Document) NewElement(t *metadata.Type) *Object {
	o := &Object{id: newID(), kind: KindElement, typ: t, typeName: t.Name, props: map[string]*Property{}}
	d.adopt(o)
	return o
}

// NewCollection creates a detached collection object. t may be nil.
func (d *Document) NewCollection(t *metadata.Type) *Object {
	o := &Object{id: newID(), kind: KindCollection, typ: t}
	if t != nil {
		o.typeName = t.Name
	}
	o.items = &Property{owner: o, component: true, accessory: ItemsAccessory}
	d.adopt(o)
	return o
}

// NewVirtual creates a detached placeholder for an object whose type
// could not be resolved.
func (d *Document) NewVirtual(typeName string) *Object {
	o := &Object{id: newID(), kind: KindVirtual, typeName: typeName, props: map[string]*Property{}}
	d.adopt(o)
	return o
}

// NewObject creates an element when typeName resolves through the
// registry's catalog and a virtual object otherwise.
func (d *Document) NewObject(typeName string) *Object {
	if t, ok := d.registry.Catalog().Lookup(typeName); ok {
		return d.NewElement(t)
	}
	return d.NewVirtual(typeName)
}

func (d *Document) adopt(o *Object) {
	o.doc = d
	d.objects[o.id] = o
}

// SetRoot makes o the root. The previous root stays owned by d but is no
// longer part of the tree. o must be detached and owned by d; nil empties
// the document.
func (d *Document) SetRoot(o *Object) error {
	if o != nil {
		if o.doc != d {
			return ErrForeignDocument
		}
		if o.parent != nil {
			return ErrAttached
		}
	}
	d.root = o
	d.touch()
	return nil
}

// MoveToDocument transfers o and its subtree to target. o must not occupy
// a slot; if it is the root of its current document that document becomes
// empty. The object arrives detached.
func MoveToDocument(o *Object, target *Document) error {
	if o.parent != nil {
		return ErrAttached
	}
	src := o.doc
	if src == target {
		return nil
	}
	if src != nil && src.root == o {
		src.root = nil
		src.touch()
	}
	o.setDocument(target)
	return nil
}

// InsertAsAccessory inserts child into parent's accessory at index
// (-1 appends). child must be detached and owned by the same document.
func (d *Document) InsertAsAccessory(child, parent *Object, acc *metadata.ComponentProperty, index int) error {
	if child.doc != d || parent.doc != d {
		return ErrForeignDocument
	}
	if child.parent != nil || d.root == child {
		return ErrAttached
	}
	if parent == child || parent.IsDescendantOf(child) {
		return ErrCycle
	}
	if acc == nil {
		return fmt.Errorf("%w: no accessory", ErrRejected)
	}
	accepts := d.accepts
	if accepts == nil {
		accepts = declaredAccessory
	}
	if !accepts(parent, acc, child) {
		return fmt.Errorf("%w: %s into %s.%s", ErrRejected, child.typeName, parent.typeName, acc.Name())
	}

	p, err := parent.slot(acc)
	if err != nil {
		return err
	}
	if index < -1 || index > p.Len() {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndex, index, p.Len())
	}
	if !p.accessory.Collection && !child.IsVirtual() && nonVirtual(p.children) > 0 {
		return fmt.Errorf("%w: %s.%s holds a single object", ErrRejected, parent.typeName, acc.Name())
	}

	p.insert(child, index)
	child.parent = p
	if p.owner.props != nil && p.name != "" {
		p.owner.props[p.name] = p
	}
	d.touch()
	return nil
}

// slot returns the component property for acc without registering a new
// one on the object; InsertAsAccessory does that once the insert is sure.
func (o *Object) slot(acc *metadata.ComponentProperty) (*Property, error) {
	if o.kind == KindCollection {
		if acc != ItemsAccessory {
			return nil, fmt.Errorf("%w: collection has no slot %q", ErrRejected, acc.Name())
		}
		return o.items, nil
	}
	if p := o.Property(acc.Name()); p != nil {
		if !p.component {
			return nil, fmt.Errorf("%w: %q holds a value", ErrRejected, acc.Name())
		}
		return p, nil
	}
	return &Property{name: acc.Name(), owner: o, component: true, accessory: acc}, nil
}

func nonVirtual(objs []*Object) int {
	n := 0
	for _, o := range objs {
		if !o.IsVirtual() {
			n++
		}
	}
	return n
}

// RemoveFromParent detaches o from the slot it occupies and returns where
// it was so the removal can be inverted.
func (d *Document) RemoveFromParent(o *Object) (parent *Object, acc *metadata.ComponentProperty, index int, err error) {
	if o.doc != d {
		return nil, nil, -1, ErrForeignDocument
	}
	p := o.parent
	if p == nil {
		return nil, nil, -1, ErrNotAttached
	}
	index = p.indexOf(o)
	if index < 0 {
		return nil, nil, -1, fmt.Errorf("object %d missing from its parent slot %q", o.id, p.name)
	}
	p.removeAt(index)
	o.parent = nil
	if p.Len() == 0 && p.owner.props != nil {
		delete(p.owner.props, p.name)
	}
	d.touch()
	return p.owner, p.accessory, index, nil
}

// SetValue sets a value property. Static ("Owner.name") properties are
// accepted without a descriptor; everything else must be a writable value
// property of the object's class.
func (d *Document) SetValue(o *Object, name string, v any) error {
	return d.setValue(o, name, v, false)
}

// SetTransientValue sets a value owned by the current parent context.
func (d *Document) SetTransientValue(o *Object, name string, v any) error {
	return d.setValue(o, name, v, true)
}

func (d *Document) setValue(o *Object, name string, v any, transient bool) error {
	if err := d.checkValueTarget(o, name); err != nil {
		return err
	}
	p := o.props[name]
	if p == nil {
		p = &Property{name: name, owner: o}
		o.props[name] = p
	} else if p.component {
		return fmt.Errorf("%w: %q holds components", ErrRejected, name)
	}
	p.value = v
	p.transient = transient
	d.touch()
	return nil
}

// ClearValue removes an explicit value, returning to the default.
func (d *Document) ClearValue(o *Object, name string) error {
	if err := d.checkValueTarget(o, name); err != nil {
		return err
	}
	if p := o.props[name]; p != nil && !p.component {
		delete(o.props, name)
		d.touch()
	}
	return nil
}

func (d *Document) checkValueTarget(o *Object, name string) error {
	if o.doc != d {
		return ErrForeignDocument
	}
	switch o.kind {
	case KindVirtual:
		return ErrVirtual
	case KindCollection:
		return ErrNoProperties
	}
	if IsStaticName(name) {
		return nil
	}
	vp, ok := o.Class().Lookup(name).(*metadata.ValueProperty)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, o.typeName, name)
	}
	if vp.ReadOnly {
		return fmt.Errorf("%w: %s.%s", ErrReadOnly, o.typeName, name)
	}
	return nil
}

// PruneProperties removes the value properties of o matching filter and
// returns them. Component properties are never pruned.
func (d *Document) PruneProperties(o *Object, filter PropertyFilter) []*Property {
	var removed []*Property
	for _, p := range o.Properties() {
		if p.component || !filter(p) {
			continue
		}
		delete(o.props, p.name)
		removed = append(removed, p)
	}
	if len(removed) > 0 {
		d.touch()
	}
	return removed
}

// RestoreProperties puts back properties returned by PruneProperties.
func (d *Document) RestoreProperties(o *Object, props []*Property) error {
	for _, p := range props {
		if p.owner != o {
			return fmt.Errorf("property %q belongs to object %d", p.name, p.owner.id)
		}
		if cur := o.props[p.name]; cur != nil && cur.component {
			return fmt.Errorf("%w: %q holds components", ErrRejected, p.name)
		}
	}
	for _, p := range props {
		o.props[p.name] = p
	}
	if len(props) > 0 {
		d.touch()
	}
	return nil
}

// Duplicate returns a standalone document whose root is a deep copy of
// o's subtree. Every copy gets a new identity.
func (d *Document) Duplicate(o *Object) *Document {
	scratch := &Document{
		registry: d.registry,
		accepts:  d.accepts,
		location: uuid.NewString(),
		objects:  make(map[ObjectID]*Object),
	}
	scratch.root = scratch.copyObject(o)
	return scratch
}

func (d *Document) copyObject(src *Object) *Object {
	o := &Object{id: newID(), kind: src.kind, typ: src.typ, typeName: src.typeName}
	d.adopt(o)
	if src.items != nil {
		o.items = &Property{owner: o, component: true, accessory: ItemsAccessory}
		for _, c := range src.items.children {
			cc := d.copyObject(c)
			cc.parent = o.items
			o.items.children = append(o.items.children, cc)
		}
	}
	if src.props != nil {
		o.props = make(map[string]*Property, len(src.props))
		for name, sp := range src.props {
			p := &Property{
				name:      name,
				owner:     o,
				component: sp.component,
				accessory: sp.accessory,
				value:     copyValue(sp.value),
				transient: sp.transient,
			}
			for _, c := range sp.children {
				cc := d.copyObject(c)
				cc.parent = p
				p.children = append(p.children, cc)
			}
			o.props[name] = p
		}
	}
	return o
}

func copyValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = copyValue(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = copyValue(x)
		}
		return out
	default:
		return v
	}
}

// Verify checks the structural invariants of the tree: every object is
// reached once, its parent property lists it and is owned by its recorded
// parent, and it belongs to this document.
func (d *Document) Verify() error {
	if d.root == nil {
		return nil
	}
	if d.root.parent != nil {
		return fmt.Errorf("root %d has a parent", d.root.id)
	}
	seen := roaring.New()
	var err error
	var visit func(o *Object)
	visit = func(o *Object) {
		if err != nil {
			return
		}
		if !seen.CheckedAdd(uint32(o.id)) {
			err = fmt.Errorf("object %d reached twice", o.id)
			return
		}
		if o.doc != d {
			err = fmt.Errorf("object %d: %w", o.id, ErrForeignDocument)
			return
		}
		check := func(p *Property) {
			for _, c := range p.children {
				if c.parent != p {
					err = fmt.Errorf("object %d: parent property mismatch in %d.%s", c.id, o.id, p.name)
					return
				}
				if p.owner != o {
					err = fmt.Errorf("property %d.%s owned by %d", o.id, p.name, p.owner.id)
					return
				}
				visit(c)
				if err != nil {
					return
				}
			}
		}
		if o.items != nil {
			check(o.items)
		}
		for _, p := range o.Properties() {
			if p.component {
				check(p)
			}
		}
	}
	visit(d.root)
	return err
}

// declaredAccessory is the fallback Acceptor: the slot must be one the
// parent actually declares.
func declaredAccessory(parent *Object, acc *metadata.ComponentProperty, _ *Object) bool {
	if parent.kind == KindCollection {
		return acc == ItemsAccessory
	}
	c := parent.Class()
	if c == nil {
		return false
	}
	for _, cp := range c.ComponentProperties() {
		if cp == acc {
			return true
		}
	}
	return false
}
