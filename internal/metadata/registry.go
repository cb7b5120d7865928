package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// Registry resolves Types into Classes. Each Type is introspected at most
// once; the resulting Class is shared by every document for the life of
// the process. Preload types before handing the registry to concurrent
// readers to keep the write path off the hot path.
type Registry struct {
	catalog *Catalog
	log     zerolog.Logger

	mu      sync.RWMutex
	classes map[*Type]*Class
}

type Option func(*Registry)

// WithLogger sets the logger used to report introspection failures.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

func NewRegistry(catalog *Catalog, opts ...Option) *Registry {
	if catalog == nil {
		catalog = NewCatalog()
	}
	r := &Registry{
		catalog: catalog,
		log:     zerolog.Nop(),
		classes: make(map[*Type]*Class),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Catalog returns the catalog used to look up content types.
func (r *Registry) Catalog() *Catalog { return r.catalog }

// Preload resolves every given type, or every catalog type when none are given.
func (r *Registry) Preload(types ...*Type) {
	if len(types) == 0 {
		types = r.catalog.Types()
	}
	for _, t := range types {
		r.Resolve(t)
	}
}

// Resolve returns the Class for t, introspecting it (and any unresolved
// ancestors) on first use.
func (r *Registry) Resolve(t *Type) *Class {
	if t == nil {
		return nil
	}
	r.mu.RLock()
	c, ok := r.classes[t]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(t, map[*Type]struct{}{})
}

func (r *Registry) resolveLocked(t *Type, visiting map[*Type]struct{}) *Class {
	if c, ok := r.classes[t]; ok {
		return c
	}
	if _, ok := visiting[t]; ok {
		c := newClass(t, nil)
		c.Err = fmt.Errorf("%w at %s", ErrTypeCycle, t.Name)
		return c
	}
	visiting[t] = struct{}{}

	var parent *Class
	if t.Super != nil {
		parent = r.resolveLocked(t.Super, visiting)
	}
	c := r.introspect(t, parent)
	r.classes[t] = c
	return c
}

func (r *Registry) introspect(t *Type, parent *Class) *Class {
	c := newClass(t, parent)
	for _, m := range t.Members {
		d, err := r.describe(t, m, parent)
		if err != nil {
			c.Err = errors.Join(c.Err, fmt.Errorf("introspect %s.%s: %w", t.Name, m.Name, err))
			break
		}
		if d == nil {
			continue
		}
		if cp, ok := d.(*ComponentProperty); ok && cp.Main && c.main != nil {
			c.Err = errors.Join(c.Err, fmt.Errorf("%w in %s: %s and %s", ErrDuplicateMain, t.Name, c.main.name, cp.name))
			cp.Main = false
		}
		c.add(d)
	}
	if c.Err != nil {
		r.log.Warn().Err(c.Err).Str("type", t.Name).Int("properties", len(c.own)).
			Msg("component introspection incomplete")
	}
	return c
}

// describe returns nil, nil for members that are skipped: unrecognized
// kinds and inherited declarations that change nothing.
func (r *Registry) describe(t *Type, m Member, parent *Class) (Descriptor, error) {
	if m.Type == ComponentKeyword {
		if parent != nil {
			if _, ok := parent.Lookup(m.Name).(*ComponentProperty); ok {
				return nil, nil
			}
		}
		cp := &ComponentProperty{
			name:            m.Name,
			Collection:      m.Collection,
			Main:            m.Main,
			FreePositioning: m.FreePositioning,
		}
		if m.Content != "" {
			ct, ok := r.catalog.Lookup(m.Content)
			if !ok {
				r.log.Debug().Str("type", t.Name).Str("property", m.Name).Str("content", m.Content).
					Msg("skipping accessory with unknown content type")
				return nil, nil
			}
			cp.ContentType = ct
		}
		return cp, nil
	}

	kind, ok := ParseValueKind(m.Type)
	if !ok {
		return nil, nil
	}
	def := m.Default
	if t.Defaults != nil {
		v, err := t.Defaults(m.Name)
		if err != nil {
			return nil, err
		}
		def = v
	}

	if parent != nil {
		if inherited, ok := parent.Lookup(m.Name).(*ValueProperty); ok {
			if reflect.DeepEqual(inherited.Default, def) {
				return nil, nil
			}
			relocalized := *inherited
			relocalized.Default = def
			relocalized.Relocalized = true
			return &relocalized, nil
		}
	}

	vp := &ValueProperty{
		name:     m.Name,
		Kind:     kind,
		ReadOnly: m.ReadOnly,
		Default:  def,
		Static:   m.Static,
	}
	if kind == KindGroup {
		for _, g := range m.Group {
			gk, ok := ParseValueKind(g.Type)
			if !ok || gk == KindGroup {
				continue
			}
			vp.Group = append(vp.Group, &ValueProperty{
				name:     g.Name,
				Kind:     gk,
				ReadOnly: g.ReadOnly,
				Default:  g.Default,
				Static:   g.Static,
			})
		}
	}
	return vp, nil
}

// QueryProperty returns the effective descriptor called name for t, or nil.
func (r *Registry) QueryProperty(t *Type, name string) Descriptor {
	c := r.Resolve(t)
	if c == nil {
		return nil
	}
	return c.Lookup(name)
}

// QueryComponentProperties returns t's sub-component slots.
func (r *Registry) QueryComponentProperties(t *Type) []*ComponentProperty {
	c := r.Resolve(t)
	if c == nil {
		return nil
	}
	return c.ComponentProperties()
}

// Properties returns every effective descriptor of t.
func (r *Registry) Properties(t *Type) []Descriptor {
	c := r.Resolve(t)
	if c == nil {
		return nil
	}
	return c.Properties()
}

// Lookup resolves a type name through the catalog.
func (r *Registry) Lookup(name string) (*Class, bool) {
	t, ok := r.catalog.Lookup(name)
	if !ok {
		return nil, false
	}
	return r.Resolve(t), true
}
