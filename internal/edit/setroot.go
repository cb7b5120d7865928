package edit

import (
	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/selection"
)

// NewSetDocumentRoot replaces the document root with obj, or empties the
// document when obj is nil. The previous root's subtree is detached, not
// deleted. obj loses its static properties since they only meant something
// under its former parent. With usePredefinedSize, root types that require
// sizing get Config.PredefinedWidth/Height on size properties left unset.
func NewSetDocumentRoot(e *Editor, obj *graph.Object, usePredefinedSize bool) *Job {
	j := newJob(KindSetRoot, "Set Root")
	j.state = ParametersSet

	doc := e.doc
	if obj == doc.Root() {
		return j.reject("object is already the root")
	}
	if obj == nil {
		j.add(&setRootEdit{})
		return j.computed(nil)
	}

	if obj.Document() != doc {
		if obj.Parent() != nil {
			return j.reject("object %d is attached in another document", obj.ID())
		}
		j.add(&moveEdit{obj: obj})
	} else if obj.Parent() != nil {
		j.add(&removeEdit{child: obj})
	}
	e.addRootEdits(j, obj, usePredefinedSize)
	j.target = obj
	return j.computed(selection.Of(obj))
}

// addRootEdits installs a detached obj as the root: static properties are
// pruned, and with usePredefinedSize a type requiring sizing gets the
// predefined size on each size property left unset.
func (e *Editor) addRootEdits(j *Job, obj *graph.Object, usePredefinedSize bool) {
	j.add(&pruneEdit{obj: obj, filter: graph.StaticProperties, what: "static"})
	j.add(&setRootEdit{root: obj})

	if t := obj.Type(); usePredefinedSize && t != nil && t.RequiresSizing {
		for _, sz := range []struct {
			name  string
			value float64
		}{
			{e.cfg.WidthProperty, e.cfg.PredefinedWidth},
			{e.cfg.HeightProperty, e.cfg.PredefinedHeight},
		} {
			if obj.Property(sz.name) == nil && writable(obj, sz.name) {
				j.add(&setValueEdit{obj: obj, name: sz.name, value: sz.value})
			}
		}
	}
}
