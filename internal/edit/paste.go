package edit

import (
	"fmt"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/metadata"
	"github.com/agentic-research/loom/internal/selection"
)

// PasteOptions are the user's explicit choices for a paste.
type PasteOptions struct {
	// Accessory names the target slot; empty picks one automatically.
	Accessory string
}

// NewPasteInto inserts copies of the decoded candidates into the selection.
// The candidates themselves are left untouched, so the same clipboard
// content can be pasted repeatedly.
//
// In an empty document a single candidate becomes the root, set up as
// NewSetDocumentRoot would with the predefined size. Otherwise the
// target is the root (nothing or the root selected) or the selection's
// common ancestor, and the slot is the explicit accessory, else the main
// accessory, else the first declared accessory accepting every candidate.
// Pastes into a freely positioned slot are shifted by PasteDelta times the
// number of consecutive pastes into the same target, this one included.
func NewPasteInto(e *Editor, candidates []*graph.Object, opts PasteOptions) *Job {
	j := newJob(KindPasteInto, "Paste Into")
	j.state = ParametersSet

	if len(candidates) == 0 {
		return j.reject("nothing to paste")
	}
	doc := e.doc

	// Copies live in their own scratch documents until the job applies.
	objs := make([]*graph.Object, len(candidates))
	for i, c := range candidates {
		scratch := c.Document().Duplicate(c)
		objs[i] = scratch.Root()
		scratch.PruneProperties(objs[i], graph.TransientProperties)
	}

	if doc.Root() == nil {
		if len(objs) != 1 {
			return j.reject("an empty document takes a single root, got %d objects", len(objs))
		}
		root := objs[0]
		j.add(&moveEdit{obj: root})
		e.addRootEdits(j, root, true)
		return j.computed(selection.Of(root))
	}

	var target *graph.Object
	g := e.selection.Group()
	if g.IsEmpty() || g.Contains(doc.Root()) {
		target = doc.Root()
	} else {
		target = g.CommonAncestor()
	}
	if target == nil {
		return j.reject("selection has no common ancestor")
	}
	j.target = target

	m := mask.New(target)
	acc := chooseAccessory(m, objs, opts.Accessory)
	if acc == nil {
		return j.reject("%s accepts none of the pasted objects", target.TypeName())
	}

	if acc.FreePositioning {
		n := e.history.countRecent(KindPasteInto, target)
		delta := e.cfg.PasteDelta * float64(n+1)
		for _, o := range objs {
			if err := e.offset(o, delta); err != nil {
				return j.reject("offset pasted object: %v", err)
			}
		}
	}

	for _, o := range objs {
		j.add(&moveEdit{obj: o})
		j.add(&insertEdit{child: o, parent: target, acc: acc, index: -1})
	}
	if len(objs) > 1 {
		j.description = fmt.Sprintf("Paste %d Objects Into %s", len(objs), target.TypeName())
	}
	return j.computed(selection.Of(objs...))
}

func chooseAccessory(m *mask.Mask, objs []*graph.Object, name string) *metadata.ComponentProperty {
	fits := func(acc *metadata.ComponentProperty) bool {
		if acc == nil || !m.AcceptsObjects(acc, objs) {
			return false
		}
		if acc.Collection || allVirtual(objs) {
			return true
		}
		return len(m.SubComponents(acc, false)) == 0
	}
	if name != "" {
		if acc := m.Accessory(name); fits(acc) {
			return acc
		}
		return nil
	}
	if main := m.MainAccessory(); fits(main) {
		return main
	}
	for _, acc := range m.Accessories() {
		if fits(acc) {
			return acc
		}
	}
	return nil
}

func allVirtual(objs []*graph.Object) bool {
	for _, o := range objs {
		if !o.IsVirtual() {
			return false
		}
	}
	return true
}
