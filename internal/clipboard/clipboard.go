// Package clipboard converts object subtrees to and from JSON. Copy encodes
// the selection; paste decodes it into detached candidates owned by the
// target document, ready for edit.NewPasteInto.
package clipboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/rs/zerolog"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/metadata"
)

// Version is written to every encoded payload.
const Version = 1

var ErrFormat = errors.New("malformed clipboard content")

var (
	versionPath = jp.MustParseString("$.version")
	objectsPath = jp.MustParseString("$.objects[*]")
)

const (
	kindCollection = "collection"
	kindVirtual    = "virtual"
)

// Encode renders objs and their subtrees as indented JSON with sorted keys.
func Encode(objs ...*graph.Object) string {
	list := make([]any, len(objs))
	for i, o := range objs {
		list[i] = encodeObject(o)
	}
	return oj.JSON(map[string]any{
		"version": Version,
		"objects": list,
	}, &ojg.Options{Indent: 2, Sort: true})
}

func encodeObject(o *graph.Object) map[string]any {
	m := map[string]any{"type": o.TypeName()}
	switch o.Kind() {
	case graph.KindCollection:
		m["kind"] = kindCollection
		m["items"] = encodeList(o.Items())
		return m
	case graph.KindVirtual:
		m["kind"] = kindVirtual
		return m
	}

	props := map[string]any{}
	accs := map[string]any{}
	var transient []any
	for _, p := range o.Properties() {
		if p.IsComponent() {
			accs[p.Name()] = encodeList(p.Children())
			continue
		}
		props[p.Name()] = p.Value()
		if p.IsTransient() {
			transient = append(transient, p.Name())
		}
	}
	if len(props) > 0 {
		m["properties"] = props
	}
	if len(accs) > 0 {
		m["accessories"] = accs
	}
	if len(transient) > 0 {
		m["transient"] = transient
	}
	return m
}

func encodeList(objs []*graph.Object) []any {
	out := make([]any, len(objs))
	for i, o := range objs {
		out[i] = encodeObject(o)
	}
	return out
}

type Option func(*decoder)

// WithLogger reports content dropped while decoding.
func WithLogger(l zerolog.Logger) Option {
	return func(d *decoder) { d.log = l }
}

type decoder struct {
	doc *graph.Document
	log zerolog.Logger
}

// Decode parses data and builds its objects as detached objects of doc.
// Unknown types become virtual objects. Properties and children the
// catalog does not allow are dropped with a warning rather than failing
// the whole paste.
func Decode(doc *graph.Document, data string, opts ...Option) ([]*graph.Object, error) {
	d := &decoder{doc: doc, log: zerolog.Nop()}
	for _, o := range opts {
		o(d)
	}

	root, err := oj.ParseString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	top, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrFormat)
	}
	if _, ok := top["objects"].([]any); !ok {
		return nil, fmt.Errorf("%w: no objects list", ErrFormat)
	}
	if v := versionPath.First(root); v != nil && v != int64(Version) {
		return nil, fmt.Errorf("%w: unsupported version %v", ErrFormat, v)
	}

	var out []*graph.Object
	for _, node := range objectsPath.Get(root) {
		o, err := d.object(node)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (d *decoder) object(node any) (*graph.Object, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: object is %T", ErrFormat, node)
	}
	typeName, _ := m["type"].(string)
	kind, _ := m["kind"].(string)

	switch kind {
	case kindVirtual:
		return d.doc.NewVirtual(typeName), nil
	case kindCollection:
		var t *metadata.Type
		if typeName != "" {
			t, _ = d.doc.Registry().Catalog().Lookup(typeName)
		}
		col := d.doc.NewCollection(t)
		items, _ := m["items"].([]any)
		if err := d.children(col, graph.ItemsAccessory, items); err != nil {
			return nil, err
		}
		return col, nil
	case "":
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrFormat, kind)
	}

	if typeName == "" {
		return nil, fmt.Errorf("%w: object without type", ErrFormat)
	}
	o := d.doc.NewObject(typeName)
	if o.IsVirtual() {
		d.log.Debug().Str("type", typeName).Msg("unknown type pasted as virtual object")
		return o, nil
	}

	transient := map[string]bool{}
	if list, ok := m["transient"].([]any); ok {
		for _, n := range list {
			if s, ok := n.(string); ok {
				transient[s] = true
			}
		}
	}
	props, _ := m["properties"].(map[string]any)
	for _, name := range sortedKeys(props) {
		v := Coerce(o.Class().Lookup(name), props[name])
		set := d.doc.SetValue
		if transient[name] {
			set = d.doc.SetTransientValue
		}
		if err := set(o, name, v); err != nil {
			d.log.Warn().Err(err).Str("type", typeName).Str("property", name).Msg("dropping pasted property")
		}
	}

	accs, _ := m["accessories"].(map[string]any)
	msk := mask.New(o)
	for _, name := range sortedKeys(accs) {
		acc := msk.Accessory(name)
		if acc == nil {
			d.log.Warn().Str("type", typeName).Str("accessory", name).Msg("dropping children of unknown accessory")
			continue
		}
		list, _ := accs[name].([]any)
		if err := d.children(o, acc, list); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (d *decoder) children(parent *graph.Object, acc *metadata.ComponentProperty, list []any) error {
	for _, node := range list {
		c, err := d.object(node)
		if err != nil {
			return err
		}
		if err := d.doc.InsertAsAccessory(c, parent, acc, -1); err != nil {
			d.log.Warn().Err(err).Str("parent", parent.TypeName()).Str("accessory", acc.Name()).
				Msg("dropping pasted child")
		}
	}
	return nil
}

// Coerce maps a JSON number onto the descriptor's kind: integral values of
// integer properties become int64, numbers on float properties float64.
func Coerce(d metadata.Descriptor, v any) any {
	vp, ok := d.(*metadata.ValueProperty)
	if !ok {
		return v
	}
	switch n := v.(type) {
	case int64:
		if vp.Kind == metadata.KindFloat {
			return float64(n)
		}
	case float64:
		if vp.Kind == metadata.KindInteger && n == float64(int64(n)) {
			return int64(n)
		}
	}
	return v
}

// ParseValue reads a value typed by a user: a JSON literal, or the raw
// text as a string when it is not one. The result is coerced for d.
func ParseValue(d metadata.Descriptor, text string) any {
	v, err := oj.ParseString(text)
	if err != nil {
		return text
	}
	return Coerce(d, v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
