// Package metadatatest provides a small widget catalog for tests.
package metadatatest

import "github.com/agentic-research/loom/internal/metadata"

// Type names in the widget catalog.
const (
	Node       = "Node"
	Parent     = "Parent"
	Pane       = "Pane"
	VBox       = "VBox"
	BorderPane = "BorderPane"
	Button     = "Button"
	Label      = "Label"
	Shape      = "Shape"
	TextFlow   = "TextFlow"
	ComboBox   = "ComboBox"
)

// Widgets returns a fresh catalog:
//
//	Node        layoutX layoutY prefWidth prefHeight id disable(ro) GridPane.rowIndex(static)
//	Parent      Node
//	Pane        Parent; children []Node main, free positioning; requires sizing
//	VBox        Parent; children []Node main; spacing
//	BorderPane  Parent; top center(main) bottom Node
//	Button      Node; text, graphic Node
//	Label       Node; text
//	Shape       Node (not a Parent)
//	TextFlow    Parent; children []Label main
//	ComboBox    Node; items (untyped, holds a collection object)
func Widgets() *metadata.Catalog {
	c := metadata.NewCatalog()
	node := &metadata.Type{Name: Node, Members: []metadata.Member{
		{Name: "layoutX", Type: "double", Default: 0.0},
		{Name: "layoutY", Type: "double", Default: 0.0},
		{Name: "prefWidth", Type: "double", Default: -1.0},
		{Name: "prefHeight", Type: "double", Default: -1.0},
		{Name: "id", Type: "string", Default: ""},
		{Name: "disable", Type: "boolean", Default: false, ReadOnly: true},
		{Name: "GridPane.rowIndex", Type: "integer", Static: true},
	}}
	parent := &metadata.Type{Name: Parent, Super: node}
	pane := &metadata.Type{Name: Pane, Super: parent, RequiresSizing: true, Members: []metadata.Member{
		{Name: "children", Type: metadata.ComponentKeyword, Content: Node, Collection: true, Main: true, FreePositioning: true},
	}}
	vbox := &metadata.Type{Name: VBox, Super: parent, Members: []metadata.Member{
		{Name: "children", Type: metadata.ComponentKeyword, Content: Node, Collection: true, Main: true},
		{Name: "spacing", Type: "double", Default: 0.0},
	}}
	border := &metadata.Type{Name: BorderPane, Super: parent, Members: []metadata.Member{
		{Name: "top", Type: metadata.ComponentKeyword, Content: Node},
		{Name: "center", Type: metadata.ComponentKeyword, Content: Node, Main: true},
		{Name: "bottom", Type: metadata.ComponentKeyword, Content: Node},
	}}
	button := &metadata.Type{Name: Button, Super: node, Members: []metadata.Member{
		{Name: "text", Type: "string", Default: ""},
		{Name: "graphic", Type: metadata.ComponentKeyword, Content: Node},
	}}
	label := &metadata.Type{Name: Label, Super: node, Members: []metadata.Member{
		{Name: "text", Type: "string", Default: ""},
	}}
	shape := &metadata.Type{Name: Shape, Super: node}
	flow := &metadata.Type{Name: TextFlow, Super: parent, Members: []metadata.Member{
		{Name: "children", Type: metadata.ComponentKeyword, Content: Label, Collection: true, Main: true},
	}}
	combo := &metadata.Type{Name: ComboBox, Super: node, Members: []metadata.Member{
		{Name: "items", Type: metadata.ComponentKeyword},
		{Name: "value", Type: "string"},
	}}
	for _, t := range []*metadata.Type{node, parent, pane, vbox, border, button, label, shape, flow, combo} {
		if err := c.Add(t); err != nil {
			panic(err)
		}
	}
	return c
}

// Type returns the named type of c, panicking when it is missing.
func Type(c *metadata.Catalog, name string) *metadata.Type {
	t, ok := c.Lookup(name)
	if !ok {
		panic("metadatatest: no type " + name)
	}
	return t
}
