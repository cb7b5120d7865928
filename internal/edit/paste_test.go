package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/metadata/metadatatest"
)

// clip returns detached candidates living in their own document, the way
// the clipboard decoder hands them over.
func (f *fixture) clip(names ...string) []*graph.Object {
	d := graph.NewDocument(f.reg)
	out := make([]*graph.Object, len(names))
	for i, n := range names {
		out[i] = f.in(d, n)
	}
	return out
}

func TestPasteInto_EmptyDocumentTakesSingleRoot(t *testing.T) {
	f := newFixture(t)
	objs := f.clip(metadatatest.Pane)

	f.submit(NewPasteInto(f.ed, objs, PasteOptions{}))

	root := f.doc.Root()
	require.NotNil(t, root)
	assert.NotSame(t, objs[0], root)
	assert.Equal(t, metadatatest.Pane, root.TypeName())
	assert.Same(t, root, f.ed.Selection().Group().Hit())
}

func TestPasteInto_EmptyDocumentRejectsSeveralObjects(t *testing.T) {
	f := newFixture(t)

	j := NewPasteInto(f.ed, f.clip(metadatatest.Button, metadatatest.Label), PasteOptions{})
	assert.False(t, j.IsExecutable())
	assert.Nil(t, j.Selection())

	ok, err := f.ed.Submit(j)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, f.doc.Root())
	assert.False(t, f.ed.History().CanUndo())
}

func TestPasteInto_RepeatedPastesShiftFurther(t *testing.T) {
	f := newFixture(t)
	root, _ := f.pane(0)
	objs := f.clip(metadatatest.Button)

	for i := 1; i <= 3; i++ {
		f.submit(NewPasteInto(f.ed, objs, PasteOptions{}))
		items := root.Children("children")
		require.Len(t, items, i)
		last := items[i-1]
		assert.Equal(t, 10.0*float64(i), value(t, last, "layoutX"), "paste %d", i)
		assert.Equal(t, 10.0*float64(i), value(t, last, "layoutY"), "paste %d", i)
	}
	assert.Equal(t, 0.0, value(t, objs[0], "layoutX"), "candidate is untouched")
}

func TestPasteInto_OtherJobResetsOffset(t *testing.T) {
	f := newFixture(t)
	root, _ := f.pane(0)
	objs := f.clip(metadatatest.Button)

	f.submit(NewPasteInto(f.ed, objs, PasteOptions{}))
	f.submit(NewModifyValue(f.ed, root, "id", "main"))
	f.submit(NewPasteInto(f.ed, objs, PasteOptions{}))

	items := root.Children("children")
	require.Len(t, items, 2)
	assert.Equal(t, 10.0, value(t, items[1], "layoutX"))
}

func TestPasteInto_TargetsCommonAncestor(t *testing.T) {
	f := newFixture(t)
	root, _ := f.pane(0)
	box := f.in(f.doc, metadatatest.VBox)
	f.add(root, "children", box)
	a := f.in(f.doc, metadatatest.Button)
	b := f.in(f.doc, metadatatest.Button)
	f.add(box, "children", a)
	f.add(box, "children", b)
	f.ed.Select(a, b)

	f.submit(NewPasteInto(f.ed, f.clip(metadatatest.Label), PasteOptions{}))

	items := box.Children("children")
	require.Len(t, items, 3)
	assert.Equal(t, metadatatest.Label, items[2].TypeName())
	assert.Equal(t, 0.0, value(t, items[2], "layoutX"), "VBox does not position freely")
}

func TestPasteInto_ExplicitAccessory(t *testing.T) {
	f := newFixture(t)
	bp := f.in(f.doc, metadatatest.BorderPane)
	require.NoError(t, f.doc.SetRoot(bp))

	f.submit(NewPasteInto(f.ed, f.clip(metadatatest.Label), PasteOptions{Accessory: "top"}))
	assert.Len(t, bp.Children("top"), 1)
	assert.Empty(t, bp.Children("center"))

	j := NewPasteInto(f.ed, f.clip(metadatatest.Label), PasteOptions{Accessory: "top"})
	assert.False(t, j.IsExecutable(), "top is occupied")

	j = NewPasteInto(f.ed, f.clip(metadatatest.Label), PasteOptions{Accessory: "left"})
	assert.False(t, j.IsExecutable(), "no such accessory")
}

func TestPasteInto_FallsBackToFirstAcceptingAccessory(t *testing.T) {
	f := newFixture(t)
	bp := f.in(f.doc, metadatatest.BorderPane)
	require.NoError(t, f.doc.SetRoot(bp))
	f.add(bp, "center", f.in(f.doc, metadatatest.Button))

	f.submit(NewPasteInto(f.ed, f.clip(metadatatest.Label), PasteOptions{}))
	assert.Len(t, bp.Children("top"), 1)
}

func TestPasteInto_RejectsMismatchedType(t *testing.T) {
	f := newFixture(t)
	root := f.in(f.doc, metadatatest.TextFlow)
	require.NoError(t, f.doc.SetRoot(root))

	j := NewPasteInto(f.ed, f.clip(metadatatest.Button), PasteOptions{})
	assert.False(t, j.IsExecutable())

	f.submit(NewPasteInto(f.ed, f.clip(metadatatest.Label), PasteOptions{}))
	assert.Len(t, root.Children("children"), 1)
}

func TestPasteInto_VirtualObjectsAreAccepted(t *testing.T) {
	f := newFixture(t)
	root := f.in(f.doc, metadatatest.TextFlow)
	require.NoError(t, f.doc.SetRoot(root))
	d := graph.NewDocument(f.reg)

	f.submit(NewPasteInto(f.ed, []*graph.Object{d.NewVirtual("com.example.Gauge")}, PasteOptions{}))
	items := root.Children("children")
	require.Len(t, items, 1)
	assert.True(t, items[0].IsVirtual())
}

func TestPasteInto_DropsTransientValues(t *testing.T) {
	f := newFixture(t)
	root, _ := f.pane(0)
	objs := f.clip(metadatatest.Button)
	src := objs[0].Document()
	require.NoError(t, src.SetTransientValue(objs[0], "GridPane.rowIndex", 2))
	require.NoError(t, src.SetValue(objs[0], "text", "go"))

	f.submit(NewPasteInto(f.ed, objs, PasteOptions{}))

	pasted := root.Children("children")[0]
	assert.Nil(t, pasted.Property("GridPane.rowIndex"))
	assert.Equal(t, "go", value(t, pasted, "text"))
	assert.NotNil(t, objs[0].Property("GridPane.rowIndex"), "candidate keeps its values")
}

func TestPasteInto_UndoRedo(t *testing.T) {
	f := newFixture(t)
	f.pane(2)
	before := f.dump()
	f.ed.Select(f.doc.Root().Children("children")[1])
	sel := f.ed.Selection().Group()

	f.submit(NewPasteInto(f.ed, f.clip(metadatatest.Button, metadatatest.Label), PasteOptions{}))
	after := f.dump()
	assert.NotEqual(t, before, after)

	ok, err := f.ed.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, f.dump())
	assert.Equal(t, sel.Items(), f.ed.Selection().Group().Items())

	ok, err = f.ed.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, after, f.dump())
	assert.Equal(t, 2, f.ed.Selection().Group().Len())
	require.NoError(t, f.doc.Verify())
}

func TestPasteInto_EmptyDocumentRootIsSetUp(t *testing.T) {
	f := newFixture(t)
	objs := f.clip(metadatatest.Pane)
	src := objs[0].Document()
	require.NoError(t, src.SetValue(objs[0], "GridPane.rowIndex", int64(3)))
	require.NoError(t, src.SetValue(objs[0], "prefHeight", 250.0))

	f.submit(NewPasteInto(f.ed, objs, PasteOptions{}))

	root := f.doc.Root()
	require.NotNil(t, root)
	assert.Nil(t, root.Property("GridPane.rowIndex"), "static properties are stripped")
	assert.Equal(t, 600.0, value(t, root, "prefWidth"))
	assert.Equal(t, 250.0, value(t, root, "prefHeight"))
	assert.NotNil(t, objs[0].Property("GridPane.rowIndex"), "candidate keeps its values")

	_, err := f.ed.Undo()
	require.NoError(t, err)
	assert.Nil(t, f.doc.Root())
}
