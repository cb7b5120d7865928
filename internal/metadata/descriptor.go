package metadata

import "strings"

// ValueKind enumerates the value types introspection recognizes.
type ValueKind int

const (
	KindBoolean ValueKind = iota
	KindInteger
	KindFloat
	KindString
	KindEnum
	KindColor
	KindFont
	KindDuration
	KindEventHandler
	KindList
	KindGroup
)

var valueKindNames = [...]string{
	KindBoolean:      "boolean",
	KindInteger:      "integer",
	KindFloat:        "float",
	KindString:       "string",
	KindEnum:         "enum",
	KindColor:        "color",
	KindFont:         "font",
	KindDuration:     "duration",
	KindEventHandler: "handler",
	KindList:         "list",
	KindGroup:        "group",
}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(valueKindNames) {
		return "unknown"
	}
	return valueKindNames[k]
}

// aliases accepted in descriptor tables besides the canonical names.
var valueKindAliases = map[string]ValueKind{
	"bool":   KindBoolean,
	"int":    KindInteger,
	"long":   KindInteger,
	"double": KindFloat,
	"number": KindFloat,
	"paint":  KindColor,
	"event":  KindEventHandler,
}

// ParseValueKind maps a member type keyword to a ValueKind.
func ParseValueKind(s string) (ValueKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range valueKindNames {
		if name == s {
			return ValueKind(k), true
		}
	}
	k, ok := valueKindAliases[s]
	return k, ok
}

// ComponentKeyword is the member type keyword for sub-component slots.
const ComponentKeyword = "component"

// Descriptor is a resolved property description. It is either a
// *ValueProperty or a *ComponentProperty.
type Descriptor interface {
	Name() string
	descriptor()
}

// ValueProperty describes a property holding a single value.
type ValueProperty struct {
	name     string
	Kind     ValueKind
	ReadOnly bool
	Default  any
	Static   bool
	// Relocalized is set when the property re-declares an inherited one
	// with a different default.
	Relocalized bool
	// Group is non-empty for KindGroup properties.
	Group []*ValueProperty
}

func (p *ValueProperty) Name() string { return p.name }
func (p *ValueProperty) descriptor()  {}

// SubProperty returns the group member called name.
func (p *ValueProperty) SubProperty(name string) *ValueProperty {
	for _, g := range p.Group {
		if g.name == name {
			return g
		}
	}
	return nil
}

// ComponentProperty describes a slot that holds child objects. It is the
// accessory type consulted by hierarchy masks.
type ComponentProperty struct {
	name string
	// ContentType is nil for untyped slots, which accept anything.
	ContentType     *Type
	Collection      bool
	Main            bool
	FreePositioning bool
}

func (p *ComponentProperty) Name() string { return p.name }
func (p *ComponentProperty) descriptor()  {}

func (p *ComponentProperty) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.name
}

// NewComponentProperty builds a slot description outside any class. It is
// used for synthetic slots such as the items of a collection object.
func NewComponentProperty(name string, content *Type, collection, main bool) *ComponentProperty {
	return &ComponentProperty{name: name, ContentType: content, Collection: collection, Main: main}
}
