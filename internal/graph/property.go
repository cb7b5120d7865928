package graph

import (
	"strings"

	"github.com/agentic-research/loom/internal/metadata"
)

// Property belongs to exactly one object. A value property holds a single
// value; a component property holds an ordered list of child objects.
type Property struct {
	name  string
	owner *Object

	component bool
	accessory *metadata.ComponentProperty // component properties only
	children  []*Object

	value any
	// transient values are set by the parent context and are dropped when
	// the object moves to another parent.
	transient bool
}

func (p *Property) Name() string      { return p.name }
func (p *Property) Owner() *Object    { return p.owner }
func (p *Property) IsComponent() bool { return p.component }
func (p *Property) Value() any        { return p.value }
func (p *Property) IsTransient() bool { return p.transient }

// IsStatic reports whether the property is an attached one, written
// "Owner.name" (for instance a grid row index set on a grid child).
func (p *Property) IsStatic() bool { return !p.component && IsStaticName(p.name) }

// IsStaticName reports whether name is a parent-qualified ("Owner.name")
// property such as a layout constraint.
func IsStaticName(name string) bool { return strings.Contains(name, ".") }

// Accessory returns the slot description children were inserted through.
func (p *Property) Accessory() *metadata.ComponentProperty { return p.accessory }

// Children returns a copy of the child list.
func (p *Property) Children() []*Object {
	if p == nil {
		return nil
	}
	return append([]*Object(nil), p.children...)
}

func (p *Property) Len() int { return len(p.children) }

func (p *Property) indexOf(o *Object) int {
	for i, c := range p.children {
		if c == o {
			return i
		}
	}
	return -1
}

func (p *Property) insert(o *Object, index int) {
	if index < 0 || index >= len(p.children) {
		p.children = append(p.children, o)
		return
	}
	p.children = append(p.children, nil)
	copy(p.children[index+1:], p.children[index:])
	p.children[index] = o
}

func (p *Property) removeAt(i int) {
	copy(p.children[i:], p.children[i+1:])
	p.children[len(p.children)-1] = nil
	p.children = p.children[:len(p.children)-1]
}

// PropertyFilter selects properties for PruneProperties.
type PropertyFilter func(*Property) bool

// StaticProperties matches attached ("Owner.name") properties.
func StaticProperties(p *Property) bool { return p.IsStatic() }

// TransientProperties matches values set by a previous parent.
func TransientProperties(p *Property) bool { return p.transient }

// Named matches the given property names.
func Named(names ...string) PropertyFilter {
	return func(p *Property) bool {
		for _, n := range names {
			if p.name == n {
				return true
			}
		}
		return false
	}
}
