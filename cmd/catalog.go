package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/loom/internal/metadata"
)

func newCatalogCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [type...]",
		Short: "List component types, or describe the named ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := o.catalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, t := range cat.Types.Types() {
					if t.Super != nil {
						fmt.Fprintf(out, "%-20s extends %s\n", t.Name, t.Super.Name)
					} else {
						fmt.Fprintln(out, t.Name)
					}
				}
				return nil
			}

			reg := metadata.NewRegistry(cat.Types, metadata.WithLogger(o.log))
			for _, name := range args {
				class, ok := reg.Lookup(name)
				if !ok {
					return fmt.Errorf("unknown type %q", name)
				}
				fmt.Fprintln(out, class.Type.String())
				for _, d := range class.Properties() {
					fmt.Fprintf(out, "  %s\n", describe(d))
				}
			}
			return nil
		},
	}
}

func describe(d metadata.Descriptor) string {
	switch p := d.(type) {
	case *metadata.ValueProperty:
		var flags []string
		if p.ReadOnly {
			flags = append(flags, "read-only")
		}
		if p.Static {
			flags = append(flags, "static")
		}
		if p.Relocalized {
			flags = append(flags, "relocalized")
		}
		s := fmt.Sprintf("%-24s %-8s default=%v", p.Name(), p.Kind, p.Default)
		if len(flags) > 0 {
			s += " (" + strings.Join(flags, ", ") + ")"
		}
		return s
	case *metadata.ComponentProperty:
		content := "any"
		if p.ContentType != nil {
			content = p.ContentType.Name
		}
		if p.Collection {
			content = "[]" + content
		}
		var flags []string
		if p.Main {
			flags = append(flags, "main")
		}
		if p.FreePositioning {
			flags = append(flags, "free")
		}
		s := fmt.Sprintf("%-24s %s", p.Name(), content)
		if len(flags) > 0 {
			s += " (" + strings.Join(flags, ", ") + ")"
		}
		return s
	default:
		return d.Name()
	}
}
