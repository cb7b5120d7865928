package edit

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/metadata"
	"github.com/agentic-research/loom/internal/selection"
)

// Config holds the editing constants.
type Config struct {
	// DuplicateDelta offsets each duplicate from its source.
	DuplicateDelta float64
	// PasteDelta is multiplied by the number of consecutive pastes into the
	// same target, counting the current one.
	PasteDelta float64
	// XProperty and YProperty name the position of freely placed elements.
	XProperty string
	YProperty string
	// Size applied by SetDocumentRoot to root types that require sizing.
	WidthProperty    string
	HeightProperty   string
	PredefinedWidth  float64
	PredefinedHeight float64
	// HistoryLimit caps the undo history; 0 keeps everything.
	HistoryLimit int
}

func DefaultConfig() Config {
	return Config{
		DuplicateDelta:   10,
		PasteDelta:       10,
		XProperty:        "layoutX",
		YProperty:        "layoutY",
		WidthProperty:    "prefWidth",
		HeightProperty:   "prefHeight",
		PredefinedWidth:  600,
		PredefinedHeight: 400,
	}
}

// Editor owns one document's selection and history and is the only path
// by which jobs reach the document. It is not safe for concurrent use.
type Editor struct {
	doc       *graph.Document
	selection *selection.Model
	history   *History
	cfg       Config
	log       zerolog.Logger
}

type Option func(*Editor)

func WithConfig(cfg Config) Option {
	return func(e *Editor) { e.cfg = cfg }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Editor) { e.log = l }
}

// New returns an editor over doc. A document without a typed acceptor gets
// the hierarchy mask installed so every insert checks slot content types.
func New(doc *graph.Document, opts ...Option) *Editor {
	if !doc.TypedSlots() {
		doc.SetAcceptor(mask.Accepts)
	}
	e := &Editor{
		doc:       doc,
		selection: selection.NewModel(doc),
		cfg:       DefaultConfig(),
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	e.history = NewHistory(e.cfg.HistoryLimit)
	return e
}

func (e *Editor) Document() *graph.Document   { return e.doc }
func (e *Editor) Selection() *selection.Model { return e.selection }
func (e *Editor) History() *History           { return e.history }
func (e *Editor) Config() Config              { return e.cfg }

// Select is a convenience for Selection().Select.
func (e *Editor) Select(objs ...*graph.Object) {
	e.selection.Select(selection.Of(objs...))
}

// Submit applies job, records it in the history and selects its resulting
// group. It returns false for no-op jobs, which change nothing and are not
// recorded. An error means the job failed midway and was rolled back.
func (e *Editor) Submit(j *Job) (bool, error) {
	if !j.IsExecutable() {
		e.log.Debug().Str("job", j.description).Str("reason", j.reason).Msg("job is a no-op")
		return false, nil
	}
	if j.state != Computed {
		return false, fmt.Errorf("submit %s: job is %s", j.description, j.state)
	}
	j.before = e.selection.Group()
	if err := j.apply(e.doc); err != nil {
		e.log.Error().Err(err).Str("job", j.description).Msg("job rolled back")
		return false, err
	}
	e.history.Push(j)
	e.selection.Select(j.selection)
	e.log.Debug().Str("job", j.description).Int("edits", len(j.edits)).Uint64("seq", e.doc.Sequence()).Msg("job applied")
	return true, nil
}

// Undo reverts the most recent applied job and restores the selection it
// replaced. It returns false when there is nothing to undo.
func (e *Editor) Undo() (bool, error) {
	j := e.history.UndoJob()
	if j == nil {
		return false, nil
	}
	if err := j.revert(e.doc); err != nil {
		return false, err
	}
	e.history.stepBack()
	e.selection.Select(j.before)
	e.log.Debug().Str("job", j.description).Msg("job undone")
	return true, nil
}

// Redo re-applies the most recently undone job.
func (e *Editor) Redo() (bool, error) {
	j := e.history.RedoJob()
	if j == nil {
		return false, nil
	}
	if err := j.apply(e.doc); err != nil {
		return false, err
	}
	e.history.stepForward()
	e.selection.Select(j.selection)
	e.log.Debug().Str("job", j.description).Msg("job redone")
	return true, nil
}

// writable reports whether name is a value property o may set.
func writable(o *graph.Object, name string) bool {
	if !o.IsNode() {
		return false
	}
	if graph.IsStaticName(name) {
		return true
	}
	vp, ok := o.Class().Lookup(name).(*metadata.ValueProperty)
	return ok && !vp.ReadOnly
}

// isPositioned reports whether o carries writable coordinates.
func (e *Editor) isPositioned(o *graph.Object) bool {
	return writable(o, e.cfg.XProperty) && writable(o, e.cfg.YProperty)
}

// offset moves a detached, positioned object by delta on both axes.
func (e *Editor) offset(o *graph.Object, delta float64) error {
	if delta == 0 || !e.isPositioned(o) {
		return nil
	}
	d := o.Document()
	for _, name := range []string{e.cfg.XProperty, e.cfg.YProperty} {
		v, _ := o.Value(name)
		if err := d.SetValue(o, name, toFloat(v)+delta); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}
