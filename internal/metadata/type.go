// Package metadata describes component types and the properties they declare.
//
// Types are registered explicitly as descriptor tables (Member lists) instead of
// being discovered at run time. A Registry turns each Type into a Class the first
// time it is asked for one and keeps that Class for the life of the process.
package metadata

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType   = errors.New("unknown component type")
	ErrDuplicateType = errors.New("component type already registered")
	ErrDuplicateMain = errors.New("more than one main accessory")
	ErrTypeCycle     = errors.New("inheritance cycle")
)

// Member is one entry of a type's descriptor table, in declaration order.
type Member struct {
	Name string
	// Type is a value kind keyword (see ParseValueKind) or "component".
	// Members with any other keyword are ignored during introspection.
	Type     string
	ReadOnly bool
	Default  any
	// Static marks attached properties that only make sense under a
	// particular kind of parent (layout constraints and the like).
	Static bool
	// Group holds the members of a compound "group" property.
	Group []Member

	// Component members only.
	Content         string // content type name, empty means untyped
	Collection      bool
	Main            bool
	FreePositioning bool
}

// Type is a component type tag with a single-inheritance chain.
type Type struct {
	Name    string
	Super   *Type
	Members []Member
	// Shadows lists inherited property names hidden from this type and its subtypes.
	Shadows []string
	// RequiresSizing marks types that need an explicit size when used as a document root.
	RequiresSizing bool
	// Defaults, when set, supplies member defaults in place of Member.Default.
	// An error stops introspection at that member.
	Defaults func(member string) (any, error)
}

// IsAssignableTo reports whether t is super or a descendant of it.
func (t *Type) IsAssignableTo(super *Type) bool {
	for c := t; c != nil; c = c.Super {
		if c == super {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Catalog maps type names to types. Component member content types are
// looked up here when a Class is built.
type Catalog struct {
	types map[string]*Type
	order []string
}

func NewCatalog() *Catalog {
	return &Catalog{types: make(map[string]*Type)}
}

// Add registers t. Its Super, if set, must already be in the catalog.
func (c *Catalog) Add(t *Type) error {
	if _, ok := c.types[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.Name)
	}
	if t.Super != nil {
		if known, ok := c.types[t.Super.Name]; !ok || known != t.Super {
			return fmt.Errorf("%w: %s extends %s", ErrUnknownType, t.Name, t.Super.Name)
		}
	}
	c.types[t.Name] = t
	c.order = append(c.order, t.Name)
	return nil
}

// Lookup returns the type registered under name.
func (c *Catalog) Lookup(name string) (*Type, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Types returns every registered type in registration order.
func (c *Catalog) Types() []*Type {
	out := make([]*Type, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.types[n])
	}
	return out
}

func (c *Catalog) Len() int { return len(c.order) }
