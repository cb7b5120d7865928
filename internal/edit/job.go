// Package edit is the command engine: it turns edit requests into jobs made
// of primitive sub-edits, applies them atomically and keeps the undo/redo
// history.
package edit

import (
	"fmt"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/selection"
)

// Kind is the closed set of job types.
type Kind int

const (
	KindDuplicate Kind = iota
	KindPasteInto
	KindSetRoot
	KindDelete
	KindModify
	KindInsert
)

func (k Kind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindPasteInto:
		return "paste-into"
	case KindSetRoot:
		return "set-root"
	case KindDelete:
		return "delete"
	case KindModify:
		return "modify"
	case KindInsert:
		return "insert"
	default:
		return "unknown"
	}
}

// State is a job's position in its lifecycle.
type State int

const (
	Created State = iota
	ParametersSet
	Computed
	Applied
	Reverted
)

func (s State) String() string {
	return [...]string{"created", "parameters-set", "computed", "applied", "reverted"}[s]
}

// Job is one atomic, reversible edit. Builders such as NewDuplicateSelection
// compute the sub-edits up front; a job with no sub-edits is a no-op and is
// never pushed onto the history.
type Job struct {
	kind        Kind
	description string
	state       State

	edits     []subEdit
	selection *selection.Group
	before    *selection.Group
	target    *graph.Object
	reason    string
}

func newJob(kind Kind, description string) *Job {
	return &Job{kind: kind, description: description}
}

func (j *Job) Kind() Kind            { return j.kind }
func (j *Job) Description() string   { return j.description }
func (j *Job) State() State          { return j.state }
func (j *Job) Target() *graph.Object { return j.target }

// IsExecutable reports whether the job has anything to apply.
func (j *Job) IsExecutable() bool { return len(j.edits) > 0 }

// Selection is the group to select once the job is applied, nil for no-ops.
func (j *Job) Selection() *selection.Group {
	if !j.IsExecutable() {
		return nil
	}
	return j.selection
}

// Reason explains why a job turned into a no-op.
func (j *Job) Reason() string { return j.reason }

// Edits describes the computed sub-edits, in application order.
func (j *Job) Edits() []string {
	out := make([]string, len(j.edits))
	for i, e := range j.edits {
		out[i] = e.String()
	}
	return out
}

func (j *Job) String() string {
	return fmt.Sprintf("%s(%d edits, %s)", j.description, len(j.edits), j.state)
}

// reject turns the job into a documented no-op.
func (j *Job) reject(format string, args ...any) *Job {
	j.edits = nil
	j.selection = nil
	j.reason = fmt.Sprintf(format, args...)
	j.state = Computed
	return j
}

func (j *Job) add(e subEdit) { j.edits = append(j.edits, e) }

func (j *Job) computed(sel *selection.Group) *Job {
	j.selection = sel
	j.state = Computed
	return j
}

// apply runs every sub-edit in order. If one fails, those already applied
// are undone in reverse so the tree is left as it was.
func (j *Job) apply(d *graph.Document) error {
	for i, e := range j.edits {
		if err := e.do(d); err != nil {
			for k := i - 1; k >= 0; k-- {
				_ = j.edits[k].undo(d) // best-effort rollback of edits that just succeeded
			}
			return fmt.Errorf("%s: %s: %w", j.description, e, err)
		}
	}
	j.state = Applied
	return nil
}

// revert undoes every sub-edit in reverse order, re-applying on failure.
func (j *Job) revert(d *graph.Document) error {
	for i := len(j.edits) - 1; i >= 0; i-- {
		if err := j.edits[i].undo(d); err != nil {
			for k := i + 1; k < len(j.edits); k++ {
				_ = j.edits[k].do(d) // best-effort roll forward
			}
			return fmt.Errorf("undo %s: %s: %w", j.description, j.edits[i], err)
		}
	}
	j.state = Reverted
	return nil
}
