// Package store persists documents in SQLite. Each document is kept as its
// clipboard JSON plus a flat object index used for queries.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/loom/internal/clipboard"
	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/metadata"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrManyRoots = errors.New("stored document has more than one root")
	ErrNoObject  = errors.New("no object at path")
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	location TEXT PRIMARY KEY,
	body JSON NOT NULL,
	saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS objects (
	location TEXT NOT NULL,
	path TEXT NOT NULL,
	parent_path TEXT,
	accessory TEXT,
	position INTEGER NOT NULL,
	type TEXT NOT NULL,
	kind INTEGER NOT NULL,
	PRIMARY KEY (location, path)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_objects_type ON objects(location, type);
`

// Store is a SQLite document database. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens (creating if needed) the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &Store{db: db, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Entry describes one stored document.
type Entry struct {
	Location string
	SavedAt  time.Time
	Objects  int
}

// Save writes doc under its location, replacing any previous version.
func (s *Store) Save(ctx context.Context, doc *graph.Document) error {
	var body string
	if root := doc.Root(); root != nil {
		body = clipboard.Encode(root)
	} else {
		body = clipboard.Encode()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	loc := doc.Location()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (location, body, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at
	`, loc, body, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("save %s: %w", loc, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE location = ?`, loc); err != nil {
		return fmt.Errorf("clear index %s: %w", loc, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO objects (location, path, parent_path, accessory, position, type, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	n := 0
	if root := doc.Root(); root != nil {
		err = index(root, "0", nil, "", 0, func(path string, parent *string, acc string, pos int, o *graph.Object) error {
			n++
			_, err := stmt.ExecContext(ctx, loc, path, parent, acc, pos, o.TypeName(), int(o.Kind()))
			return err
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", loc, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Debug().Str("location", loc).Int("objects", n).Msg("document saved")
	return nil
}

type indexFunc func(path string, parent *string, acc string, pos int, o *graph.Object) error

// index walks o's subtree assigning slash-separated paths such as
// "0/children/2".
func index(o *graph.Object, path string, parent *string, acc string, pos int, fn indexFunc) error {
	if err := fn(path, parent, acc, pos, o); err != nil {
		return err
	}
	self := path
	if o.IsCollection() {
		for i, c := range o.Items() {
			if err := index(c, path+"/"+strconv.Itoa(i), &self, "", i, fn); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range o.Properties() {
		if !p.IsComponent() {
			continue
		}
		for i, c := range p.Children() {
			if err := index(c, path+"/"+p.Name()+"/"+strconv.Itoa(i), &self, p.Name(), i, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Path returns o's index path: "0" for a root, then an accessory name and
// position per level, with collection items addressed by position alone.
func Path(o *graph.Object) string {
	parent := o.Parent()
	if parent == nil {
		return "0"
	}
	idx := strconv.Itoa(o.IndexInParent())
	if parent.IsCollection() {
		return Path(parent) + "/" + idx
	}
	return Path(parent) + "/" + o.ParentAccessory().Name() + "/" + idx
}

// Resolve finds the object at path in doc's tree.
func Resolve(doc *graph.Document, path string) (*graph.Object, error) {
	segs := strings.Split(path, "/")
	o := doc.Root()
	if o == nil || segs[0] != "0" {
		return nil, fmt.Errorf("%w: %s", ErrNoObject, path)
	}
	for i := 1; i < len(segs); i++ {
		var children []*graph.Object
		if o.IsCollection() {
			children = o.Items()
		} else {
			if i+1 >= len(segs) {
				return nil, fmt.Errorf("%w: %s", ErrNoObject, path)
			}
			children = o.Children(segs[i])
			i++
		}
		n, err := strconv.Atoi(segs[i])
		if err != nil || n < 0 || n >= len(children) {
			return nil, fmt.Errorf("%w: %s", ErrNoObject, path)
		}
		o = children[n]
	}
	return o, nil
}

// Load rebuilds the document stored under location against reg. Content
// the catalog no longer accepts is dropped as in a paste.
func (s *Store) Load(ctx context.Context, location string, reg *metadata.Registry) (*graph.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE location = ?`, location).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	if err != nil {
		return nil, err
	}

	doc := graph.NewDocument(reg, graph.WithLocation(location), graph.WithAcceptor(mask.Accepts))
	objs, err := clipboard.Decode(doc, body, clipboard.WithLogger(s.log))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	switch len(objs) {
	case 0:
	case 1:
		if err := doc.SetRoot(objs[0]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrManyRoots, location)
	}
	return doc, nil
}

// List returns every stored document, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.location, d.saved_at, COUNT(o.path)
		FROM documents d LEFT JOIN objects o ON o.location = d.location
		GROUP BY d.location
		ORDER BY d.saved_at DESC, d.location
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var nanos int64
		if err := rows.Scan(&e.Location, &nanos, &e.Objects); err != nil {
			return nil, err
		}
		e.SavedAt = time.Unix(0, nanos)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByType returns how many objects of each type the stored document
// holds.
func (s *Store) CountByType(ctx context.Context, location string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM objects WHERE location = ? GROUP BY type
	`, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, rows.Err()
}

// Delete removes the document stored under location.
func (s *Store) Delete(ctx context.Context, location string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE location = ?`, location)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE location = ?`, location); err != nil {
		return err
	}
	return tx.Commit()
}
