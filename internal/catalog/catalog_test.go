package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/agentic-research/loom/internal/edit"
	"github.com/agentic-research/loom/internal/metadata"
)

func TestDefault_Builds(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	pane, ok := c.Types.Lookup("Pane")
	require.True(t, ok)
	assert.True(t, pane.RequiresSizing)
	node, _ := c.Types.Lookup("Node")
	assert.True(t, pane.IsAssignableTo(node))

	reg := metadata.NewRegistry(c.Types)
	for _, ty := range c.Types.Types() {
		assert.NoError(t, reg.Resolve(ty).Err, ty.Name)
	}
	main := reg.Resolve(pane).MainAccessory()
	require.NotNil(t, main)
	assert.True(t, main.FreePositioning)
	assert.Same(t, node, main.ContentType)

	vbox, _ := c.Types.Lookup("VBox")
	assert.False(t, reg.Resolve(vbox).MainAccessory().FreePositioning)

	circle, _ := c.Types.Lookup("Circle")
	assert.Nil(t, reg.QueryProperty(circle, "prefWidth"))

	assert.Equal(t, 200, c.Config.HistoryLimit)
	assert.Equal(t, "layoutX", c.Config.XProperty)
}

func TestLoad_OutOfOrderClassesAndSettings(t *testing.T) {
	src := `
settings {
  paste_delta = 25
  x_property  = "x"
}

class "Leaf" {
  extends = "Base"
  property "size" {
    type    = "integer"
    default = 3
  }
  property "tags" {
    type    = "list"
    default = ["a", "b"]
  }
}

class "Base" {
  property "x" {
    type    = "double"
    default = 1
  }
  property "margin" {
    type = "group"
    member "top" {
      type    = "double"
      default = 2.5
    }
  }
  accessory "kids" {
    content    = "Base"
    collection = true
    main       = true
  }
}
`
	c, err := Load("test.hcl", []byte(src))
	require.NoError(t, err)

	want := edit.DefaultConfig()
	want.PasteDelta = 25
	want.XProperty = "x"
	assert.Equal(t, want, c.Config)

	assert.Equal(t, []string{"Base", "Leaf"}, typeNames(c.Types))
	reg := metadata.NewRegistry(c.Types)
	leaf, _ := c.Types.Lookup("Leaf")

	size := reg.QueryProperty(leaf, "size").(*metadata.ValueProperty)
	assert.Equal(t, metadata.KindInteger, size.Kind)
	assert.Equal(t, int64(3), size.Default)
	assert.Equal(t, []any{"a", "b"}, reg.QueryProperty(leaf, "tags").(*metadata.ValueProperty).Default)
	assert.Equal(t, 1.0, reg.QueryProperty(leaf, "x").(*metadata.ValueProperty).Default)
	assert.Equal(t, 2.5, reg.QueryProperty(leaf, "top").(*metadata.ValueProperty).Default)
	assert.Equal(t, "kids", reg.Resolve(leaf).MainAccessory().Name())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown super", `class "A" { extends = "Missing" }`, metadata.ErrUnknownType},
		{"cycle", `
class "A" { extends = "B" }
class "B" { extends = "A" }
`, metadata.ErrTypeCycle},
		{"duplicate", `
class "A" {}
class "A" {}
`, ErrInvalid},
		{"integer default", `
class "A" {
  property "p" {
    type    = "integer"
    default = 1.5
  }
}
`, ErrInvalid},
		{"nested group", `
class "A" {
  property "g" {
    type = "group"
    member "inner" { type = "group" }
  }
}
`, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("bad.hcl", []byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Load("syntax.hcl", []byte(`class "A" {`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`class "Only" {}`), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Types.Len())
	assert.Equal(t, edit.DefaultConfig(), c.Config)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}

func TestFromCty(t *testing.T) {
	v, err := FromCty(cty.NilVal, metadata.KindString)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = FromCty(cty.NumberIntVal(7), metadata.KindFloat)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	v, err = FromCty(cty.ObjectVal(map[string]cty.Value{"w": cty.NumberIntVal(2)}), metadata.KindGroup)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"w": 2.0}, v)

	_, err = FromCty(cty.UnknownVal(cty.String), metadata.KindString)
	assert.Error(t, err)
}

func typeNames(c *metadata.Catalog) []string {
	var out []string
	for _, t := range c.Types() {
		out = append(out, t.Name)
	}
	return out
}

func TestLoad_UnknownPropertyTypeIsOmitted(t *testing.T) {
	c, err := Load("t.hcl", []byte(`
class "A" {
  property "factory" { type = "javafx.util.Callback" }
  property "title" {
    type    = "string"
    default = "x"
  }
  property "margin" {
    type = "group"
    member "top" { type = "double" }
    member "odd" { type = "com.example.Insets" }
  }
}
`))
	require.NoError(t, err)
	a, ok := c.Types.Lookup("A")
	require.True(t, ok)

	reg := metadata.NewRegistry(c.Types)
	assert.Nil(t, reg.QueryProperty(a, "factory"))
	assert.NotNil(t, reg.QueryProperty(a, "title"))
	margin := reg.QueryProperty(a, "margin").(*metadata.ValueProperty)
	require.Len(t, margin.Group, 1)
	assert.Equal(t, "top", margin.Group[0].Name())
}
