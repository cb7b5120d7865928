package metadata

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdd(t *testing.T, c *Catalog, types ...*Type) {
	t.Helper()
	for _, ty := range types {
		require.NoError(t, c.Add(ty))
	}
}

func TestCatalog_AddRequiresRegisteredSuper(t *testing.T) {
	c := NewCatalog()
	base := &Type{Name: "Base"}
	derived := &Type{Name: "Derived", Super: base}

	err := c.Add(derived)
	assert.ErrorIs(t, err, ErrUnknownType)

	mustAdd(t, c, base, derived)
	assert.ErrorIs(t, c.Add(&Type{Name: "Base"}), ErrDuplicateType)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []*Type{base, derived}, c.Types())
}

func TestType_IsAssignableTo(t *testing.T) {
	a := &Type{Name: "A"}
	b := &Type{Name: "B", Super: a}
	c := &Type{Name: "C", Super: b}

	assert.True(t, c.IsAssignableTo(a))
	assert.True(t, c.IsAssignableTo(c))
	assert.False(t, a.IsAssignableTo(c))
	assert.Equal(t, "<nil>", (*Type)(nil).String())
}

func TestParseValueKind(t *testing.T) {
	for in, want := range map[string]ValueKind{
		"boolean": KindBoolean,
		"bool":    KindBoolean,
		"Double":  KindFloat,
		" long ":  KindInteger,
		"paint":   KindColor,
		"group":   KindGroup,
	} {
		got, ok := ParseValueKind(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseValueKind("javafx.util.Callback")
	assert.False(t, ok)
	assert.Equal(t, "unknown", ValueKind(99).String())
}

func TestRegistry_ResolveIsIdempotent(t *testing.T) {
	calls := 0
	ty := &Type{
		Name:    "Counter",
		Members: []Member{{Name: "a", Type: "int"}, {Name: "b", Type: "string"}},
		Defaults: func(member string) (any, error) {
			calls++
			return member, nil
		},
	}
	c := NewCatalog()
	mustAdd(t, c, ty)
	r := NewRegistry(c)

	var wg sync.WaitGroup
	classes := make([]*Class, 8)
	for i := range classes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			classes[i] = r.Resolve(ty)
		}(i)
	}
	wg.Wait()

	for _, cl := range classes {
		assert.Same(t, classes[0], cl)
	}
	assert.Equal(t, 2, calls, "defaults are read once per member")
	assert.Equal(t, "a", r.QueryProperty(ty, "a").(*ValueProperty).Default)
}

func TestRegistry_InheritanceAndRelocalization(t *testing.T) {
	base := &Type{Name: "Base", Members: []Member{
		{Name: "width", Type: "double", Default: 0.0},
		{Name: "visible", Type: "boolean", Default: true},
	}}
	derived := &Type{Name: "Derived", Super: base, Members: []Member{
		{Name: "width", Type: "double", Default: 100.0},
		{Name: "visible", Type: "boolean", Default: true},
		{Name: "title", Type: "string"},
	}}
	c := NewCatalog()
	mustAdd(t, c, base, derived)
	r := NewRegistry(c)

	cl := r.Resolve(derived)
	require.NotNil(t, cl)
	assert.Same(t, r.Resolve(base), cl.Parent)

	w := cl.Lookup("width").(*ValueProperty)
	assert.True(t, w.Relocalized)
	assert.Equal(t, 100.0, w.Default)
	assert.Equal(t, 0.0, r.QueryProperty(base, "width").(*ValueProperty).Default)

	assert.Same(t, cl.Parent.Lookup("visible"), cl.Lookup("visible"), "equal default is not redeclared")
	assert.Len(t, cl.Own(), 2)

	var names []string
	for _, d := range cl.Properties() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"width", "visible", "title"}, names)
	assert.Same(t, w, cl.Properties()[0])
}

func TestRegistry_Shadowing(t *testing.T) {
	base := &Type{Name: "Base", Members: []Member{
		{Name: "text", Type: "string"},
		{Name: "font", Type: "font"},
	}}
	mid := &Type{Name: "Mid", Super: base, Shadows: []string{"text"}}
	leaf := &Type{Name: "Leaf", Super: mid}
	c := NewCatalog()
	mustAdd(t, c, base, mid, leaf)
	r := NewRegistry(c)

	assert.NotNil(t, r.QueryProperty(base, "text"))
	assert.Nil(t, r.QueryProperty(mid, "text"))
	assert.Nil(t, r.QueryProperty(leaf, "text"))
	assert.NotNil(t, r.QueryProperty(leaf, "font"))
	assert.Len(t, r.Resolve(leaf).Properties(), 1)
	assert.True(t, r.Resolve(mid).Shadows("text"))
}

func TestRegistry_GroupSubProperties(t *testing.T) {
	ty := &Type{Name: "Box", Members: []Member{
		{Name: "padding", Type: "group", Group: []Member{
			{Name: "top", Type: "double", Default: 1.0},
			{Name: "left", Type: "double", Default: 2.0},
			{Name: "nested", Type: "group"},
		}},
	}}
	c := NewCatalog()
	mustAdd(t, c, ty)
	r := NewRegistry(c)

	g := r.QueryProperty(ty, "padding").(*ValueProperty)
	assert.Len(t, g.Group, 2, "groups do not nest")
	left := r.QueryProperty(ty, "left").(*ValueProperty)
	assert.Equal(t, 2.0, left.Default)
	assert.Same(t, g.SubProperty("left"), left)
}

func TestRegistry_ComponentProperties(t *testing.T) {
	node := &Type{Name: "Node"}
	pane := &Type{Name: "Pane", Super: node, Members: []Member{
		{Name: "children", Type: ComponentKeyword, Content: "Node", Collection: true, Main: true, FreePositioning: true},
		{Name: "clip", Type: ComponentKeyword, Content: "Node"},
		{Name: "skin", Type: ComponentKeyword, Content: "com.example.Skin"},
		{Name: "onAction", Type: "javafx.event.EventHandler"},
	}}
	split := &Type{Name: "Split", Super: pane, Members: []Member{
		{Name: "items", Type: ComponentKeyword, Collection: true, Main: true},
		{Name: "clip", Type: ComponentKeyword, Content: "Node"},
	}}
	c := NewCatalog()
	mustAdd(t, c, node, pane, split)
	r := NewRegistry(c)

	accs := r.QueryComponentProperties(pane)
	require.Len(t, accs, 2, "unknown content type and unknown kind are skipped")
	assert.Equal(t, "children", accs[0].Name())
	assert.Same(t, node, accs[0].ContentType)
	assert.True(t, accs[0].FreePositioning)
	assert.Same(t, accs[0], r.Resolve(pane).MainAccessory())

	sp := r.Resolve(split)
	assert.Len(t, sp.Own(), 1, "inherited slot is not redeclared")
	assert.Equal(t, "items", sp.MainAccessory().Name())
	assert.Nil(t, sp.MainAccessory().ContentType)
	assert.Len(t, sp.ComponentProperties(), 3)
	assert.Empty(t, sp.ValueProperties())
	assert.Len(t, r.Properties(split), 3)
}

func TestRegistry_DuplicateMain(t *testing.T) {
	ty := &Type{Name: "Twin", Members: []Member{
		{Name: "left", Type: ComponentKeyword, Main: true},
		{Name: "right", Type: ComponentKeyword, Main: true},
	}}
	c := NewCatalog()
	mustAdd(t, c, ty)
	cl := NewRegistry(c).Resolve(ty)

	assert.ErrorIs(t, cl.Err, ErrDuplicateMain)
	assert.Equal(t, "left", cl.MainAccessory().Name())
	assert.False(t, cl.Lookup("right").(*ComponentProperty).Main)
}

func TestRegistry_IntrospectionFailureKeepsEarlierMembers(t *testing.T) {
	boom := errors.New("no default instance")
	ty := &Type{
		Name:    "Fragile",
		Members: []Member{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}, {Name: "c", Type: "int"}},
		Defaults: func(member string) (any, error) {
			if member == "b" {
				return nil, boom
			}
			return 1, nil
		},
	}
	c := NewCatalog()
	mustAdd(t, c, ty)
	r := NewRegistry(c)

	cl := r.Resolve(ty)
	assert.ErrorIs(t, cl.Err, boom)
	assert.NotNil(t, cl.Lookup("a"))
	assert.Nil(t, cl.Lookup("b"))
	assert.Nil(t, cl.Lookup("c"))
	assert.Same(t, cl, r.Resolve(ty))
}

func TestRegistry_LookupByName(t *testing.T) {
	c := NewCatalog()
	mustAdd(t, c, &Type{Name: "Label"})
	r := NewRegistry(c)
	r.Preload()

	cl, ok := r.Lookup("Label")
	require.True(t, ok)
	assert.Equal(t, "Label", cl.Type.Name)
	_, ok = r.Lookup("Missing")
	assert.False(t, ok)
	assert.Nil(t, r.Resolve(nil))
}
