package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentic-research/loom/internal/clipboard"
	"github.com/agentic-research/loom/internal/edit"
	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/metadata"
	"github.com/agentic-research/loom/internal/store"
)

func newListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			entries, err := s.store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %4d objects  %s\n", e.Location, e.Objects, e.SavedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newTreeCmd(o *rootOptions) *cobra.Command {
	var paths, types bool
	c := &cobra.Command{
		Use:   "tree <location>",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			out := cmd.OutOrStdout()
			if types {
				counts, err := s.store.CountByType(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				names := make([]string, 0, len(counts))
				for n := range counts {
					names = append(names, n)
				}
				sort.Strings(names)
				for _, n := range names {
					fmt.Fprintf(out, "%-24s %d\n", n, counts[n])
				}
				return nil
			}

			ed, err := s.editor(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			root := ed.Document().Root()
			switch {
			case root == nil:
				fmt.Fprintln(out, "<empty>")
			case paths:
				root.Walk(func(obj *graph.Object) bool {
					fmt.Fprintf(out, "%-28s %s\n", store.Path(obj), obj.TypeName())
					return true
				})
			default:
				fmt.Fprint(out, graph.Dump(root, false))
			}
			return nil
		},
	}
	c.Flags().BoolVar(&paths, "paths", false, "List object paths instead of the tree")
	c.Flags().BoolVar(&types, "types", false, "Count objects per type from the index")
	return c
}

func newPasteCmd(o *rootOptions) *cobra.Command {
	var (
		sel       []string
		accessory string
	)
	c := &cobra.Command{
		Use:   "paste <location> [clipboard.json]",
		Short: "Paste clipboard JSON (from a file or stdin) into the selection",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 2 && args[1] != "-" {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read clipboard: %w", err)
			}

			s, err := o.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ed, err := s.editor(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			if err := selectPaths(ed, sel); err != nil {
				return err
			}
			objs, err := clipboard.Decode(ed.Document(), string(data), clipboard.WithLogger(s.log))
			if err != nil {
				return err
			}
			return s.submit(cmd, ed, edit.NewPasteInto(ed, objs, edit.PasteOptions{Accessory: accessory}))
		},
	}
	c.Flags().StringSliceVarP(&sel, "select", "s", nil, "Object paths to select before pasting")
	c.Flags().StringVarP(&accessory, "accessory", "a", "", "Target accessory (default: main, then first fitting)")
	return c
}

func newDuplicateCmd(o *rootOptions) *cobra.Command {
	var sel []string
	c := &cobra.Command{
		Use:   "duplicate <location>",
		Short: "Duplicate the selected objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSelection(cmd, args[0], sel, edit.NewDuplicateSelection)
		},
	}
	c.Flags().StringSliceVarP(&sel, "select", "s", nil, "Object paths to duplicate")
	return c
}

func newDeleteCmd(o *rootOptions) *cobra.Command {
	var sel []string
	c := &cobra.Command{
		Use:   "delete <location>",
		Short: "Remove the selected objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSelection(cmd, args[0], sel, edit.NewDeleteSelection)
		},
	}
	c.Flags().StringSliceVarP(&sel, "select", "s", nil, "Object paths to delete")
	return c
}

func (o *rootOptions) withSelection(cmd *cobra.Command, location string, sel []string, build func(*edit.Editor) *edit.Job) error {
	s, err := o.open()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ed, err := s.editor(cmd.Context(), location, false)
	if err != nil {
		return err
	}
	if err := selectPaths(ed, sel); err != nil {
		return err
	}
	return s.submit(cmd, ed, build(ed))
}

func newSetRootCmd(o *rootOptions) *cobra.Command {
	var predefined bool
	c := &cobra.Command{
		Use:   "set-root <location> <path>",
		Short: "Make the object at path the document root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ed, err := s.editor(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			obj, err := store.Resolve(ed.Document(), args[1])
			if err != nil {
				return err
			}
			return s.submit(cmd, ed, edit.NewSetDocumentRoot(ed, obj, predefined))
		},
	}
	c.Flags().BoolVar(&predefined, "predefined-size", false, "Give roots that need sizing the predefined size")
	return c
}

func newSetCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <location> <path> <property> [value]",
		Short: "Set a property value; without a value the default is restored",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ed, err := s.editor(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			obj, err := store.Resolve(ed.Document(), args[1])
			if err != nil {
				return err
			}
			var v any
			if len(args) == 4 {
				var d metadata.Descriptor
				if c := obj.Class(); c != nil {
					d = c.Lookup(args[2])
				}
				v = clipboard.ParseValue(d, args[3])
			}
			return s.submit(cmd, ed, edit.NewModifyValue(ed, obj, args[2], v))
		},
	}
}
