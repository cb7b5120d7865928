package graph

import (
	"fmt"
	"strings"
)

// Dump renders o's subtree in a canonical indented form. With ids set each
// object is tagged with its ObjectID; without, two structurally equal
// subtrees render identically.
func Dump(o *Object, ids bool) string {
	var b strings.Builder
	dump(&b, o, ids, 0)
	return b.String()
}

// String renders the whole tree with object ids.
func (d *Document) String() string {
	if d.root == nil {
		return "<empty>\n"
	}
	return Dump(d.root, true)
}

func dump(b *strings.Builder, o *Object, ids bool, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	switch o.kind {
	case KindCollection:
		b.WriteString("[")
		b.WriteString(o.typeName)
		b.WriteString("]")
	case KindVirtual:
		b.WriteString("?")
		b.WriteString(o.typeName)
	default:
		b.WriteString(o.typeName)
	}
	if ids {
		fmt.Fprintf(b, "#%d", o.id)
	}
	for _, p := range o.Properties() {
		if p.component {
			continue
		}
		fmt.Fprintf(b, " %s=%s", p.name, formatValue(p.value))
		if p.transient {
			b.WriteString("~")
		}
	}
	b.WriteString("\n")

	if o.items != nil {
		for _, c := range o.items.children {
			dump(b, c, ids, depth+1)
		}
	}
	for _, p := range o.Properties() {
		if !p.component || len(p.children) == 0 {
			continue
		}
		fmt.Fprintf(b, "%s  .%s\n", indent, p.name)
		for _, c := range p.children {
			dump(b, c, ids, depth+2)
		}
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", t)
	case float64:
		return fmt.Sprintf("%g", t)
	case float32:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
