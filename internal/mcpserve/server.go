// Package mcpserve exposes an editor over the Model Context Protocol so
// agents can inspect and edit a document with the same jobs, undo history
// and validation as any other front-end.
package mcpserve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/agentic-research/loom/internal/clipboard"
	"github.com/agentic-research/loom/internal/edit"
	"github.com/agentic-research/loom/internal/graph"
	"github.com/agentic-research/loom/internal/metadata"
	"github.com/agentic-research/loom/internal/store"
)

var errNoStore = errors.New("server has no document store")

// Server serializes tool calls onto one editor.
type Server struct {
	mu    sync.Mutex
	ed    *edit.Editor
	store *store.Store
	log   zerolog.Logger
	mcp   *server.MCPServer
	tools map[string]server.ToolHandlerFunc
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithStore enables the save tool.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

func New(ed *edit.Editor, version string, opts ...Option) *Server {
	s := &Server{ed: ed, log: zerolog.Nop(), tools: map[string]server.ToolHandlerFunc{}}
	for _, o := range opts {
		o(s)
	}
	s.mcp = server.NewMCPServer("loom", version, server.WithToolCapabilities(false))
	s.register()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Call invokes a registered tool directly, bypassing the transport.
func (s *Server) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	h, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return h(ctx, req)
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error { return server.ServeStdio(s.mcp) }

type handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (s *Server) register() {
	idsDesc := mcp.Description("Object ids as shown by the tree tool")
	tools := []struct {
		tool mcp.Tool
		fn   handler
	}{
		{mcp.NewTool("tree",
			mcp.WithDescription("Show the document tree with object ids and the current selection"),
		), s.tree},
		{mcp.NewTool("select",
			mcp.WithDescription("Replace the selection; an empty list clears it"),
			mcp.WithArray("ids", mcp.Required(), idsDesc, mcp.Items(map[string]any{"type": "integer"})),
		), s.selectObjects},
		{mcp.NewTool("copy",
			mcp.WithDescription("Encode the selected objects as clipboard JSON"),
		), s.copySelection},
		{mcp.NewTool("paste",
			mcp.WithDescription("Paste clipboard JSON into the selection"),
			mcp.WithString("content", mcp.Required(), mcp.Description("Clipboard JSON")),
			mcp.WithString("accessory", mcp.Description("Target accessory; defaults to the main one")),
		), s.paste},
		{mcp.NewTool("duplicate",
			mcp.WithDescription("Duplicate the selected objects next to the originals"),
		), s.duplicate},
		{mcp.NewTool("delete",
			mcp.WithDescription("Remove the selected objects from the tree"),
		), s.deleteSelection},
		{mcp.NewTool("set_value",
			mcp.WithDescription("Set a value property; a null value restores the default"),
			mcp.WithNumber("id", mcp.Required(), idsDesc),
			mcp.WithString("name", mcp.Required(), mcp.Description("Property name")),
			mcp.WithString("value", mcp.Description("JSON literal; plain text is taken as a string, null or absent restores the default")),
		), s.setValue},
		{mcp.NewTool("set_root",
			mcp.WithDescription("Make an object the document root"),
			mcp.WithNumber("id", mcp.Required(), idsDesc),
			mcp.WithBoolean("predefined_size", mcp.Description("Size roots that need it")),
		), s.setRoot},
		{mcp.NewTool("insert",
			mcp.WithDescription("Move an object into a parent's accessory"),
			mcp.WithNumber("id", mcp.Required(), idsDesc),
			mcp.WithNumber("parent", mcp.Required(), idsDesc),
			mcp.WithString("accessory", mcp.Description("Accessory name; defaults to the main one")),
			mcp.WithNumber("index", mcp.Description("Position in the accessory, -1 appends")),
		), s.insert},
		{mcp.NewTool("undo", mcp.WithDescription("Undo the last job")), s.undo},
		{mcp.NewTool("redo", mcp.WithDescription("Redo the last undone job")), s.redo},
		{mcp.NewTool("save", mcp.WithDescription("Persist the document")), s.save},
	}
	for _, t := range tools {
		h := s.locked(t.tool.Name, t.fn)
		s.tools[t.tool.Name] = h
		s.mcp.AddTool(t.tool, h)
	}
}

// locked serializes calls and turns returned errors into tool errors.
func (s *Server) locked(name string, fn handler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		res, err := fn(ctx, req)
		if err != nil {
			s.log.Debug().Err(err).Str("tool", name).Msg("tool failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return res, nil
	}
}

func (s *Server) tree(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.render()), nil
}

func (s *Server) render() string {
	var b strings.Builder
	b.WriteString(s.ed.Document().String())
	var ids []string
	for _, o := range s.ed.Selection().Group().Items() {
		ids = append(ids, fmt.Sprint(o.ID()))
	}
	fmt.Fprintf(&b, "selection: [%s]\n", strings.Join(ids, " "))
	return b.String()
}

func (s *Server) object(req mcp.CallToolRequest, key string) (*graph.Object, error) {
	id, err := req.RequireFloat(key)
	if err != nil {
		return nil, err
	}
	return s.ed.Document().Object(graph.ObjectID(id))
}

func (s *Server) selectObjects(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["ids"].([]any)
	if !ok {
		return nil, errors.New("ids must be a list")
	}
	objs := make([]*graph.Object, 0, len(raw))
	for _, v := range raw {
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("id %v is not a number", v)
		}
		o, err := s.ed.Document().Object(graph.ObjectID(n))
		if err != nil {
			return nil, fmt.Errorf("object %v: %w", v, err)
		}
		objs = append(objs, o)
	}
	s.ed.Select(objs...)
	return mcp.NewToolResultText(s.render()), nil
}

func (s *Server) copySelection(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(clipboard.Encode(s.ed.Selection().Group().Items()...)), nil
}

func (s *Server) paste(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return nil, err
	}
	objs, err := clipboard.Decode(s.ed.Document(), content, clipboard.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	return s.run(edit.NewPasteInto(s.ed, objs, edit.PasteOptions{Accessory: req.GetString("accessory", "")}))
}

func (s *Server) duplicate(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(edit.NewDuplicateSelection(s.ed))
}

func (s *Server) deleteSelection(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(edit.NewDeleteSelection(s.ed))
}

func (s *Server) setValue(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	o, err := s.object(req, "id")
	if err != nil {
		return nil, err
	}
	name, err := req.RequireString("name")
	if err != nil {
		return nil, err
	}
	var d metadata.Descriptor
	if c := o.Class(); c != nil {
		d = c.Lookup(name)
	}
	v := clipboard.ParseValue(d, req.GetString("value", "null"))
	return s.run(edit.NewModifyValue(s.ed, o, name, v))
}

func (s *Server) setRoot(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	o, err := s.object(req, "id")
	if err != nil {
		return nil, err
	}
	return s.run(edit.NewSetDocumentRoot(s.ed, o, req.GetBool("predefined_size", false)))
}

func (s *Server) insert(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	child, err := s.object(req, "id")
	if err != nil {
		return nil, err
	}
	parent, err := s.object(req, "parent")
	if err != nil {
		return nil, err
	}
	j := edit.NewInsertAccessory(s.ed, child, parent, req.GetString("accessory", ""), req.GetInt("index", -1))
	return s.run(j)
}

func (s *Server) undo(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ok, err := s.ed.Undo()
	if err != nil {
		return nil, err
	}
	if !ok {
		return mcp.NewToolResultText("nothing to undo\n" + s.render()), nil
	}
	return mcp.NewToolResultText("undone\n" + s.render()), nil
}

func (s *Server) redo(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ok, err := s.ed.Redo()
	if err != nil {
		return nil, err
	}
	if !ok {
		return mcp.NewToolResultText("nothing to redo\n" + s.render()), nil
	}
	return mcp.NewToolResultText("redone\n" + s.render()), nil
}

func (s *Server) save(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	if err := s.store.Save(ctx, s.ed.Document()); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText("saved " + s.ed.Document().Location()), nil
}

// run submits j and reports the outcome with the resulting tree.
func (s *Server) run(j *edit.Job) (*mcp.CallToolResult, error) {
	ok, err := s.ed.Submit(j)
	if err != nil {
		return nil, err
	}
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("no change: %s\n%s", j.Reason(), s.render())), nil
	}
	s.log.Info().Str("job", j.Description()).Msg("applied")
	return mcp.NewToolResultText(fmt.Sprintf("applied %s\n%s", j.Description(), s.render())), nil
}
