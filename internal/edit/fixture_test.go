package edit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/metadata"
	"github.com/agentic-research/loom/internal/metadata/metadatatest"
)

type fixture struct {
	t   *testing.T
	cat *metadata.Catalog
	reg *metadata.Registry
	doc *graph.Document
	ed  *Editor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := metadatatest.Widgets()
	reg := metadata.NewRegistry(cat)
	doc := graph.NewDocument(reg, graph.WithAcceptor(mask.Accepts))
	return &fixture{t: t, cat: cat, reg: reg, doc: doc, ed: New(doc)}
}

func (f *fixture) typ(name string) *metadata.Type {
	return metadatatest.Type(f.cat, name)
}

// in creates a detached element of the named type in d.
func (f *fixture) in(d *graph.Document, name string) *graph.Object {
	return d.NewElement(f.typ(name))
}

func (f *fixture) add(parent *graph.Object, acc string, child *graph.Object) {
	f.t.Helper()
	cp := mask.New(parent).Accessory(acc)
	require.NotNil(f.t, cp, "accessory %s", acc)
	require.NoError(f.t, f.doc.InsertAsAccessory(child, parent, cp, -1))
}

// pane builds a Pane root with n buttons.
func (f *fixture) pane(n int) (*graph.Object, []*graph.Object) {
	f.t.Helper()
	root := f.in(f.doc, metadatatest.Pane)
	require.NoError(f.t, f.doc.SetRoot(root))
	var buttons []*graph.Object
	for i := 0; i < n; i++ {
		b := f.in(f.doc, metadatatest.Button)
		f.add(root, "children", b)
		buttons = append(buttons, b)
	}
	return root, buttons
}

func (f *fixture) submit(j *Job) {
	f.t.Helper()
	ok, err := f.ed.Submit(j)
	require.NoError(f.t, err)
	require.True(f.t, ok, "job %s was a no-op: %s", j.Description(), j.Reason())
}

func (f *fixture) dump() string {
	if f.doc.Root() == nil {
		return ""
	}
	return graph.Dump(f.doc.Root(), false)
}

func value(t *testing.T, o *graph.Object, name string) any {
	t.Helper()
	v, ok := o.Value(name)
	require.True(t, ok, "no value %s", name)
	return v
}
