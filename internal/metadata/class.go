package metadata

// Class is the resolved metadata of one Type. It holds only the properties
// the type itself declares (or relocalizes); inherited ones are reached
// through Parent. A Class never changes once the Registry has published it.
type Class struct {
	Type   *Type
	Parent *Class
	// Err records an introspection failure. Properties collected before the
	// failure are kept.
	Err error

	own      []Descriptor
	byName   map[string]Descriptor
	shadowed map[string]struct{}
	main     *ComponentProperty
}

func newClass(t *Type, parent *Class) *Class {
	c := &Class{
		Type:     t,
		Parent:   parent,
		byName:   make(map[string]Descriptor),
		shadowed: make(map[string]struct{}, len(t.Shadows)),
	}
	for _, s := range t.Shadows {
		c.shadowed[s] = struct{}{}
	}
	return c
}

func (c *Class) add(d Descriptor) {
	c.own = append(c.own, d)
	c.byName[d.Name()] = d
	if cp, ok := d.(*ComponentProperty); ok && cp.Main {
		c.main = cp
	}
}

// Own returns the descriptors declared by this class, in declaration order.
func (c *Class) Own() []Descriptor {
	return append([]Descriptor(nil), c.own...)
}

// Shadows reports whether this class hides the inherited property name.
func (c *Class) Shadows(name string) bool {
	_, ok := c.shadowed[name]
	return ok
}

// chain returns the class and its ancestors, most-derived first.
func (c *Class) chain() []*Class {
	var out []*Class
	for k := c; k != nil; k = k.Parent {
		out = append(out, k)
	}
	return out
}

// Lookup returns the effective descriptor called name, or nil. Group
// sub-properties are searched when no direct match exists.
func (c *Class) Lookup(name string) Descriptor {
	hidden := map[string]struct{}{}
	for k := c; k != nil; k = k.Parent {
		if d, ok := k.byName[name]; ok {
			if _, h := hidden[name]; !h {
				return d
			}
		}
		for s := range k.shadowed {
			hidden[s] = struct{}{}
		}
	}

	clear(hidden)
	for k := c; k != nil; k = k.Parent {
		for _, d := range k.own {
			vp, ok := d.(*ValueProperty)
			if !ok || vp.Kind != KindGroup {
				continue
			}
			if _, h := hidden[vp.name]; h {
				continue
			}
			if sub := vp.SubProperty(name); sub != nil {
				return sub
			}
		}
		for s := range k.shadowed {
			hidden[s] = struct{}{}
		}
	}
	return nil
}

// Properties returns the effective descriptors, ancestors' declarations
// first. A relocalized descriptor takes the place of the one it overrides.
func (c *Class) Properties() []Descriptor {
	chain := c.chain()
	// hidden[i] is the set of names shadowed by chain[0:i].
	hidden := make([]map[string]struct{}, len(chain))
	acc := map[string]struct{}{}
	for i, k := range chain {
		hidden[i] = make(map[string]struct{}, len(acc))
		for n := range acc {
			hidden[i][n] = struct{}{}
		}
		for n := range k.shadowed {
			acc[n] = struct{}{}
		}
	}

	var out []Descriptor
	index := map[string]int{}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, d := range chain[i].own {
			if _, h := hidden[i][d.Name()]; h {
				continue
			}
			if at, ok := index[d.Name()]; ok {
				out[at] = d
				continue
			}
			index[d.Name()] = len(out)
			out = append(out, d)
		}
	}
	return out
}

// ComponentProperties returns the effective sub-component slots in
// declaration order.
func (c *Class) ComponentProperties() []*ComponentProperty {
	var out []*ComponentProperty
	for _, d := range c.Properties() {
		if cp, ok := d.(*ComponentProperty); ok {
			out = append(out, cp)
		}
	}
	return out
}

// ValueProperties returns the effective value properties in declaration order.
func (c *Class) ValueProperties() []*ValueProperty {
	var out []*ValueProperty
	for _, d := range c.Properties() {
		if vp, ok := d.(*ValueProperty); ok {
			out = append(out, vp)
		}
	}
	return out
}

// MainAccessory returns the main slot declared closest to this class. An
// ancestor's main slot is demoted to a plain accessory when a descendant
// declares its own.
func (c *Class) MainAccessory() *ComponentProperty {
	hidden := map[string]struct{}{}
	for k := c; k != nil; k = k.Parent {
		if k.main != nil {
			if _, h := hidden[k.main.name]; !h {
				return k.main
			}
		}
		for s := range k.shadowed {
			hidden[s] = struct{}{}
		}
	}
	return nil
}
