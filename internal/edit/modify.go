package edit

import (
	"fmt"
	"reflect"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/selection"
)

// NewModifyValue sets a value property of obj. A nil value clears the
// explicit value so the descriptor default applies again.
func NewModifyValue(e *Editor, obj *graph.Object, name string, value any) *Job {
	j := newJob(KindModify, fmt.Sprintf("Set %s", name))
	j.state = ParametersSet

	if obj == nil || !e.doc.Contains(obj) {
		return j.reject("object is not in the document")
	}
	if !writable(obj, name) {
		return j.reject("%s.%s is not a writable value property", obj.TypeName(), name)
	}
	p := obj.Property(name)
	switch {
	case value == nil && p == nil:
		return j.reject("%s is already unset", name)
	case p != nil && !p.IsTransient() && reflect.DeepEqual(p.Value(), value):
		return j.reject("%s is unchanged", name)
	}

	j.add(&setValueEdit{obj: obj, name: name, value: value, clear: value == nil})
	j.target = obj
	return j.computed(selection.Of(obj))
}
