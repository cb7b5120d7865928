package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/metadata/metadatatest"
)

func TestJobs_ComputingLeavesDocumentsAlone(t *testing.T) {
	f := newFixture(t)
	root, buttons := f.pane(1)

	other := graph.NewDocument(f.reg)
	foreign := f.in(other, metadatatest.Pane)
	require.NoError(t, other.SetRoot(foreign))
	loose := f.in(other, metadatatest.Label)

	objs := f.clip(metadatatest.Button)
	src := objs[0].Document()
	require.NoError(t, src.SetTransientValue(objs[0], "GridPane.rowIndex", 2))

	f.ed.Select(buttons[0])
	seq, otherSeq, srcSeq := f.doc.Sequence(), other.Sequence(), src.Sequence()
	before := f.dump()

	jobs := []*Job{
		NewSetDocumentRoot(f.ed, foreign, true),
		NewInsertAccessory(f.ed, loose, root, "", -1),
		NewPasteInto(f.ed, objs, PasteOptions{}),
		NewDuplicateSelection(f.ed),
	}
	for _, j := range jobs {
		require.True(t, j.IsExecutable(), "%s: %s", j.Description(), j.Reason())
	}

	assert.Equal(t, seq, f.doc.Sequence())
	assert.Equal(t, otherSeq, other.Sequence())
	assert.Equal(t, srcSeq, src.Sequence())
	assert.Equal(t, before, f.dump())
	assert.Same(t, foreign, other.Root())
	assert.Same(t, other, foreign.Document())
	assert.Same(t, other, loose.Document())
	assert.NotNil(t, objs[0].Property("GridPane.rowIndex"))
}

func TestSetDocumentRoot_UndoReturnsForeignRoot(t *testing.T) {
	f := newFixture(t)
	f.pane(0)
	other := graph.NewDocument(f.reg)
	foreign := f.in(other, metadatatest.Pane)
	require.NoError(t, other.SetRoot(foreign))

	f.submit(NewSetDocumentRoot(f.ed, foreign, false))
	assert.Same(t, foreign, f.doc.Root())
	assert.Nil(t, other.Root())

	ok, err := f.ed.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, other, foreign.Document())
	assert.Same(t, foreign, other.Root())
	assert.Equal(t, metadatatest.Pane, f.doc.Root().TypeName())
	assert.NotSame(t, foreign, f.doc.Root())

	ok, err = f.ed.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, foreign, f.doc.Root())
	assert.Nil(t, other.Root())
}

func TestInsertAccessory_UndoReturnsForeignObject(t *testing.T) {
	f := newFixture(t)
	root, _ := f.pane(0)
	other := graph.NewDocument(f.reg)
	loose := f.in(other, metadatatest.Label)

	f.submit(NewInsertAccessory(f.ed, loose, root, "", -1))
	assert.Same(t, f.doc, loose.Document())

	_, err := f.ed.Undo()
	require.NoError(t, err)
	assert.Same(t, other, loose.Document())
	assert.Empty(t, root.Children("children"))
}

func TestNew_InstallsTypedAcceptor(t *testing.T) {
	f := newFixture(t)
	doc := graph.NewDocument(f.reg)
	require.False(t, doc.TypedSlots())
	New(doc)
	assert.True(t, doc.TypedSlots())

	flow := f.in(doc, metadatatest.TextFlow)
	err := doc.InsertAsAccessory(f.in(doc, metadatatest.Button), flow, mask.New(flow).MainAccessory(), -1)
	assert.ErrorIs(t, err, graph.ErrRejected)
}
