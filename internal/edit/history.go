package edit

import "github.com/agentic-research/loom/internal/graph"

// History is a linear undo/redo stack. jobs[:cursor] are applied,
// jobs[cursor:] have been undone and can be redone.
type History struct {
	jobs   []*Job
	cursor int
	limit  int
}

// NewHistory returns an empty history keeping at most limit applied jobs
// (0 means no limit).
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Push records an applied job, dropping anything that could be redone.
func (h *History) Push(j *Job) {
	h.jobs = append(h.jobs[:h.cursor], j)
	h.cursor++
	if h.limit > 0 && h.cursor > h.limit {
		drop := h.cursor - h.limit
		h.jobs = append(h.jobs[:0], h.jobs[drop:]...)
		h.cursor -= drop
	}
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.jobs) }
func (h *History) Len() int      { return len(h.jobs) }
func (h *History) Cursor() int   { return h.cursor }

// UndoJob returns the job Undo would revert, or nil.
func (h *History) UndoJob() *Job {
	if !h.CanUndo() {
		return nil
	}
	return h.jobs[h.cursor-1]
}

// RedoJob returns the job Redo would re-apply, or nil.
func (h *History) RedoJob() *Job {
	if !h.CanRedo() {
		return nil
	}
	return h.jobs[h.cursor]
}

func (h *History) stepBack()    { h.cursor-- }
func (h *History) stepForward() { h.cursor++ }

// Backward calls fn for each applied job, most recent first, until fn
// returns false. It never changes the history.
func (h *History) Backward(fn func(*Job) bool) {
	for i := h.cursor - 1; i >= 0; i-- {
		if !fn(h.jobs[i]) {
			return
		}
	}
}

// Clear forgets every job.
func (h *History) Clear() {
	h.jobs = nil
	h.cursor = 0
}

// countRecent counts the applied jobs of kind targeting target that sit
// on top of the history without interruption; any other job stops the scan.
func (h *History) countRecent(kind Kind, target *graph.Object) int {
	n := 0
	h.Backward(func(j *Job) bool {
		if j.kind != kind || j.target != target {
			return false
		}
		n++
		return true
	})
	return n
}
