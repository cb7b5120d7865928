// Package catalog loads component catalogs written in HCL and turns them
// into metadata types plus editor settings.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"

	"github.com/agentic-research/loom/api"
	"github.com/agentic-research/loom/internal/edit"
	"github.com/agentic-research/loom/internal/metadata"
)

var ErrInvalid = errors.New("invalid catalog")

//go:embed widgets.hcl
var builtin []byte

// Catalog is a loaded catalog file.
type Catalog struct {
	Types  *metadata.Catalog
	Config edit.Config
}

type Option func(*builder)

// WithLogger receives notes about catalog entries left for the registry
// to omit.
func WithLogger(l zerolog.Logger) Option {
	return func(b *builder) { b.log = l }
}

// Default returns the built-in widget catalog.
func Default(opts ...Option) (*Catalog, error) {
	return Load("widgets.hcl", builtin, opts...)
}

// LoadFile reads and builds the catalog at path.
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	var f api.Catalog
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return Build(&f, opts...)
}

// Load builds a catalog from HCL source. filename is used in diagnostics
// and must end in .hcl.
func Load(filename string, src []byte, opts ...Option) (*Catalog, error) {
	var f api.Catalog
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return Build(&f, opts...)
}

// Build converts a decoded catalog file. Classes are registered superclass
// first whatever their order in the file.
func Build(f *api.Catalog, opts ...Option) (*Catalog, error) {
	byName := make(map[string]*api.Class, len(f.Classes))
	for i := range f.Classes {
		c := &f.Classes[i]
		if _, dup := byName[c.Name]; dup {
			return nil, fmt.Errorf("%w: class %q declared twice", ErrInvalid, c.Name)
		}
		byName[c.Name] = c
	}

	b := &builder{classes: byName, types: metadata.NewCatalog(), state: map[string]int{}, log: zerolog.Nop()}
	for _, o := range opts {
		o(b)
	}
	for i := range f.Classes {
		if _, err := b.build(f.Classes[i].Name); err != nil {
			return nil, err
		}
	}
	return &Catalog{Types: b.types, Config: settings(f.Settings)}, nil
}

type builder struct {
	classes map[string]*api.Class
	types   *metadata.Catalog
	state   map[string]int // 1 visiting, 2 done
	log     zerolog.Logger
}

func (b *builder) build(name string) (*metadata.Type, error) {
	switch b.state[name] {
	case 1:
		return nil, fmt.Errorf("%w: %w at %s", ErrInvalid, metadata.ErrTypeCycle, name)
	case 2:
		t, _ := b.types.Lookup(name)
		return t, nil
	}
	c, ok := b.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalid, metadata.ErrUnknownType, name)
	}
	b.state[name] = 1

	t := &metadata.Type{Name: c.Name, Shadows: c.Shadows, RequiresSizing: c.RequiresSizing}
	if c.Extends != "" {
		super, err := b.build(c.Extends)
		if err != nil {
			return nil, err
		}
		t.Super = super
	}
	for _, p := range c.Properties {
		m, err := b.member(c.Name, p, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalid, c.Name, p.Name, err)
		}
		t.Members = append(t.Members, m)
	}
	for _, a := range c.Accessories {
		t.Members = append(t.Members, metadata.Member{
			Name:            a.Name,
			Type:            metadata.ComponentKeyword,
			Content:         a.Content,
			Collection:      a.Collection,
			Main:            a.Main,
			FreePositioning: a.FreePositioning,
		})
	}
	if err := b.types.Add(t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	b.state[name] = 2
	return t, nil
}

// member converts a property declaration. Types that are not value kinds
// pass through untouched; the registry omits them.
func (b *builder) member(class string, p api.Property, nest bool) (metadata.Member, error) {
	kind, ok := metadata.ParseValueKind(p.Type)
	if !ok {
		b.log.Debug().Str("class", class).Str("property", p.Name).Str("type", p.Type).
			Msg("property type not recognized")
		return metadata.Member{Name: p.Name, Type: p.Type, ReadOnly: p.ReadOnly, Static: p.Static}, nil
	}
	def, err := FromCty(p.Default, kind)
	if err != nil {
		return metadata.Member{}, err
	}
	m := metadata.Member{Name: p.Name, Type: p.Type, ReadOnly: p.ReadOnly, Default: def, Static: p.Static}
	if kind != metadata.KindGroup {
		return m, nil
	}
	if !nest {
		return metadata.Member{}, errors.New("groups do not nest")
	}
	for _, g := range p.Members {
		gm, err := b.member(class, g, false)
		if err != nil {
			return metadata.Member{}, fmt.Errorf("%s: %w", g.Name, err)
		}
		m.Group = append(m.Group, gm)
	}
	return m, nil
}

// FromCty converts an HCL value to the Go value stored in documents.
// Numbers become int64 for integer properties and float64 otherwise; a
// missing or null value converts to nil.
func FromCty(v cty.Value, kind metadata.ValueKind) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, errors.New("value is not known")
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if kind == metadata.KindInteger {
			if !bf.IsInt() {
				return nil, fmt.Errorf("%s is not an integer", bf.Text('g', -1))
			}
			i, acc := bf.Int64()
			if acc != big.Exact {
				return nil, fmt.Errorf("%s overflows int64", bf.Text('g', -1))
			}
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			x, err := FromCty(ev, metadata.KindString)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			x, err := FromCty(ev, metadata.KindFloat)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = x
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

func settings(s *api.Settings) edit.Config {
	cfg := edit.DefaultConfig()
	if s == nil {
		return cfg
	}
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setS := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&cfg.DuplicateDelta, s.DuplicateDelta)
	setF(&cfg.PasteDelta, s.PasteDelta)
	setS(&cfg.XProperty, s.XProperty)
	setS(&cfg.YProperty, s.YProperty)
	setS(&cfg.WidthProperty, s.WidthProperty)
	setS(&cfg.HeightProperty, s.HeightProperty)
	setF(&cfg.PredefinedWidth, s.PredefinedWidth)
	setF(&cfg.PredefinedHeight, s.PredefinedHeight)
	if s.HistoryLimit != nil {
		cfg.HistoryLimit = *s.HistoryLimit
	}
	return cfg
}
