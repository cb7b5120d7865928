package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/metadata"
	"github.com/agentic-research/loom/internal/metadata/metadatatest"
)

func newDoc(t *testing.T) (*graph.Document, func(string) *graph.Object) {
	t.Helper()
	cat := metadatatest.Widgets()
	doc := graph.NewDocument(metadata.NewRegistry(cat), graph.WithAcceptor(Accepts))
	return doc, func(name string) *graph.Object {
		return doc.NewElement(metadatatest.Type(cat, name))
	}
}

func TestMask_Accessories(t *testing.T) {
	_, el := newDoc(t)

	m := New(el(metadatatest.BorderPane))
	require.NotNil(t, m.MainAccessory())
	assert.Equal(t, "center", m.MainAccessory().Name())
	var names []string
	for _, a := range m.Accessories() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"top", "bottom"}, names)
	assert.Same(t, m.MainAccessory(), m.Accessory("center"))
	assert.Nil(t, m.Accessory("left"))

	leaf := New(el(metadatatest.Shape))
	assert.Nil(t, leaf.MainAccessory())
	assert.Empty(t, leaf.Accessories())
	assert.False(t, leaf.IsAcceptingSubComponent(el(metadatatest.Label)))
}

func TestMask_AcceptsByType(t *testing.T) {
	_, el := newDoc(t)
	flow := New(el(metadatatest.TextFlow))
	main := flow.MainAccessory()

	assert.True(t, flow.AcceptsObject(main, el(metadatatest.Label)))
	assert.False(t, flow.AcceptsObject(main, el(metadatatest.Button)))
	assert.False(t, flow.AcceptsObject(nil, el(metadatatest.Label)))

	combo := New(el(metadatatest.ComboBox))
	assert.True(t, combo.AcceptsObject(combo.Accessory("items"), el(metadatatest.Button)), "untyped slot")
}

func TestMask_VirtualCandidatesFitAnywhere(t *testing.T) {
	doc, el := newDoc(t)
	flow := New(el(metadatatest.TextFlow))
	v := doc.NewVirtual("com.example.Gauge")

	assert.True(t, flow.AcceptsObject(flow.MainAccessory(), v))

	bp := el(metadatatest.BorderPane)
	top := New(bp).Accessory("top")
	require.NoError(t, doc.InsertAsAccessory(el(metadatatest.Label), bp, top, -1))
	assert.True(t, New(bp).CanInsert(top, doc.NewVirtual("x.Y")))
	assert.False(t, New(bp).CanInsert(top, el(metadatatest.Label)))
}

func TestMask_AcceptsObjectsCardinality(t *testing.T) {
	doc, el := newDoc(t)
	bp := New(el(metadatatest.BorderPane))
	top := bp.Accessory("top")
	a, b := el(metadatatest.Label), el(metadatatest.Label)

	assert.True(t, bp.AcceptsObjects(top, []*graph.Object{a}))
	assert.False(t, bp.AcceptsObjects(top, []*graph.Object{a, b}))
	assert.True(t, bp.AcceptsObjects(top, []*graph.Object{a, doc.NewVirtual("x.Y")}))

	pane := New(el(metadatatest.Pane))
	assert.True(t, pane.AcceptsObjects(pane.MainAccessory(), []*graph.Object{a, b}))
	assert.True(t, pane.IsAcceptingSubComponent(a, b))
}

func TestMask_IsAcceptingSubComponentOccupied(t *testing.T) {
	doc, el := newDoc(t)
	bp := el(metadatatest.BorderPane)
	m := New(bp)
	assert.True(t, m.IsAcceptingSubComponent(el(metadatatest.Label)))

	require.NoError(t, doc.InsertAsAccessory(el(metadatatest.Button), bp, m.MainAccessory(), -1))
	assert.False(t, m.IsAcceptingSubComponent(el(metadatatest.Label)))
}

func TestMask_SubComponents(t *testing.T) {
	doc, el := newDoc(t)
	pane := el(metadatatest.Pane)
	m := New(pane)
	children := m.MainAccessory()
	a := el(metadatatest.Button)
	v := doc.NewVirtual("x.Y")
	require.NoError(t, doc.InsertAsAccessory(a, pane, children, -1))
	require.NoError(t, doc.InsertAsAccessory(v, pane, children, -1))

	assert.Equal(t, []*graph.Object{a, v}, m.SubComponents(children, true))
	assert.Equal(t, []*graph.Object{a}, m.SubComponents(children, false))
	assert.Same(t, children, m.AccessoryOf(a))
	assert.Nil(t, m.AccessoryOf(el(metadatatest.Label)))

	bogus := New(el(metadatatest.BorderPane)).Accessory("top")
	assert.PanicsWithError(t, "accessory not declared by object: top on Pane", func() {
		m.SubComponents(bogus, true)
	})
}

func TestMask_Collections(t *testing.T) {
	doc, el := newDoc(t)
	col := doc.NewCollection(nil)
	m := New(col)
	assert.Same(t, graph.ItemsAccessory, m.MainAccessory())
	assert.True(t, m.IsAcceptingSubComponent(el(metadatatest.Button), el(metadatatest.Label)))
	require.NoError(t, doc.InsertAsAccessory(el(metadatatest.Label), col, graph.ItemsAccessory, -1))
	assert.Len(t, m.SubComponents(graph.ItemsAccessory, false), 1)

	virt := New(doc.NewVirtual("x.Y"))
	assert.Nil(t, virt.MainAccessory())
	assert.False(t, virt.IsAcceptingAccessory(graph.ItemsAccessory))
}
