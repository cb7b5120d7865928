package api

import "github.com/zclconf/go-cty/cty"

// Catalog represents the root of a catalog file. It declares the component
// classes documents may contain and tunes the editor.
type Catalog struct {
	// Settings overrides the editor defaults (optional).
	Settings *Settings `hcl:"settings,block"`
	// Classes in any order; a class may extend one declared later.
	Classes []Class `hcl:"class,block"`
}

// Settings holds editor tuning. Unset attributes keep their defaults.
type Settings struct {
	DuplicateDelta   *float64 `hcl:"duplicate_delta,optional"`
	PasteDelta       *float64 `hcl:"paste_delta,optional"`
	XProperty        *string  `hcl:"x_property,optional"`
	YProperty        *string  `hcl:"y_property,optional"`
	WidthProperty    *string  `hcl:"width_property,optional"`
	HeightProperty   *string  `hcl:"height_property,optional"`
	PredefinedWidth  *float64 `hcl:"predefined_width,optional"`
	PredefinedHeight *float64 `hcl:"predefined_height,optional"`
	HistoryLimit     *int     `hcl:"history_limit,optional"`
}

// Class represents one component type.
type Class struct {
	// Name is the type tag objects are created with.
	Name string `hcl:"name,label"`
	// Extends names the superclass.
	Extends string `hcl:"extends,optional"`
	// RequiresSizing asks for a predefined size when the class becomes a root.
	RequiresSizing bool `hcl:"requires_sizing,optional"`
	// Shadows hides inherited properties.
	Shadows     []string    `hcl:"shadows,optional"`
	Properties  []Property  `hcl:"property,block"`
	Accessories []Accessory `hcl:"accessory,block"`
}

// Property represents a value property.
type Property struct {
	Name string `hcl:"name,label"`
	// Type is a value kind such as "double", "string" or "group".
	Type     string    `hcl:"type"`
	Default  cty.Value `hcl:"default,optional"`
	ReadOnly bool      `hcl:"read_only,optional"`
	Static   bool      `hcl:"static,optional"`
	// Members of a "group" property.
	Members []Property `hcl:"member,block"`
}

// Accessory represents a slot holding sub-components.
type Accessory struct {
	Name string `hcl:"name,label"`
	// Content restricts the slot to a class and its subclasses (optional).
	Content         string `hcl:"content,optional"`
	Collection      bool   `hcl:"collection,optional"`
	Main            bool   `hcl:"main,optional"`
	FreePositioning bool   `hcl:"free_positioning,optional"`
}
