package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentic-research/loom/internal/catalog"
	"github.com/agentic-research/loom/internal/edit"
	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/mask"
	"github.com/agentic-research/loom/internal/metadata"
	"github.com/agentic-research/loom/internal/store"
)

const version = "0.1.0"

type rootOptions struct {
	logLevel    string
	catalogPath string
	dbPath      string

	log zerolog.Logger
}

// NewRootCmd builds the loom command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "loom",
		Short:         "Loom: document model and edit engine for UI markup",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := zerolog.ParseLevel(o.logLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			o.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				Level(lvl).With().Timestamp().Logger()

			if o.dbPath == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home dir: %w", err)
				}
				defaultDir := filepath.Join(home, ".agentic-research", "loom")
				if err := os.MkdirAll(defaultDir, 0o755); err != nil {
					return err
				}
				o.dbPath = filepath.Join(defaultDir, "loom.db")
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVarP(&o.catalogPath, "catalog", "c", "", "Path to an HCL component catalog (default: built-in widgets)")
	pf.StringVar(&o.dbPath, "db", "", "Path to the document database (default: ~/.agentic-research/loom/loom.db)")

	root.AddCommand(
		newCatalogCmd(o),
		newListCmd(o),
		newTreeCmd(o),
		newPasteCmd(o),
		newDuplicateCmd(o),
		newDeleteCmd(o),
		newSetRootCmd(o),
		newSetCmd(o),
		newServeCmd(o),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) catalog() (*catalog.Catalog, error) {
	if o.catalogPath == "" {
		return catalog.Default(catalog.WithLogger(o.log))
	}
	return catalog.LoadFile(o.catalogPath, catalog.WithLogger(o.log))
}

// session is an open catalog and database for one command.
type session struct {
	cat   *catalog.Catalog
	reg   *metadata.Registry
	store *store.Store
	log   zerolog.Logger
}

func (o *rootOptions) open() (*session, error) {
	cat, err := o.catalog()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(o.dbPath, store.WithLogger(o.log))
	if err != nil {
		return nil, err
	}
	o.log.Debug().Str("db", o.dbPath).Int("types", cat.Types.Len()).Msg("session opened")
	return &session{
		cat:   cat,
		reg:   metadata.NewRegistry(cat.Types, metadata.WithLogger(o.log)),
		store: st,
		log:   o.log,
	}, nil
}

func (s *session) Close() error { return s.store.Close() }

// editor loads the document stored under location, starting an empty one
// when create is set and nothing is stored yet.
func (s *session) editor(ctx context.Context, location string, create bool) (*edit.Editor, error) {
	doc, err := s.store.Load(ctx, location, s.reg)
	if errors.Is(err, store.ErrNotFound) && create {
		s.log.Info().Str("location", location).Msg("new document")
		doc = graph.NewDocument(s.reg, graph.WithLocation(location), graph.WithAcceptor(mask.Accepts))
	} else if err != nil {
		return nil, err
	}
	return edit.New(doc, edit.WithConfig(s.cat.Config), edit.WithLogger(s.log)), nil
}

// selectPaths replaces the editor's selection with the objects at paths.
func selectPaths(ed *edit.Editor, paths []string) error {
	objs := make([]*graph.Object, 0, len(paths))
	for _, p := range paths {
		o, err := store.Resolve(ed.Document(), p)
		if err != nil {
			return err
		}
		objs = append(objs, o)
	}
	ed.Select(objs...)
	return nil
}

// submit applies j and saves the document when it changed anything.
func (s *session) submit(cmd *cobra.Command, ed *edit.Editor, j *edit.Job) error {
	out := cmd.OutOrStdout()
	ok, err := ed.Submit(j)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "no change: %s\n", j.Reason())
		return nil
	}
	if err := s.store.Save(cmd.Context(), ed.Document()); err != nil {
		return err
	}
	var sel []string
	for _, o := range ed.Selection().Group().Items() {
		sel = append(sel, store.Path(o))
	}
	fmt.Fprintf(out, "%s\nselection: %s\n", j.Description(), strings.Join(sel, " "))
	return nil
}
