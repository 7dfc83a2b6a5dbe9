package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.World) {
	t.Helper()
	w := testutil.NewWorld(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := noteservice.New(w.FS, w.Index, w.Resolver, w.Engine, w.Renamer, testutil.TestDB(t), logger)
	return New(svc), w
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct call-tool test helper, so we invoke the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_links":
		result, err = srv.getLinks(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "preview_rename":
		result, err = srv.previewRename(ctx, req)
	case "rename_note":
		result, err = srv.renameNote(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListNotesTool(t *testing.T) {
	srv, w := testServer(t)
	w.Seed(t, "A.md", "a\n")
	w.Seed(t, "sub/B.md", "b\n")

	r := callTool(t, srv, "list_notes", nil)
	if r.IsError {
		t.Fatalf("list_notes errored: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "A.md") || !strings.Contains(text, "sub/B.md") {
		t.Errorf("listing missing notes: %s", text)
	}
}

func TestGetBacklinksTool(t *testing.T) {
	srv, w := testServer(t)
	w.Seed(t, "A.md", "see [[B]]\n")
	w.Seed(t, "B.md", "b\n")

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "B.md"})
	if r.IsError {
		t.Fatalf("get_backlinks errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "A.md") {
		t.Errorf("backlinks missing A.md: %s", resultText(r))
	}
}

func TestGetBacklinksTool_NotFound(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Fatal("expected error result for missing note")
	}
	if !strings.Contains(resultText(r), "not found") {
		t.Errorf("unexpected error text: %s", resultText(r))
	}
}

func TestSearchNotesTool(t *testing.T) {
	srv, w := testServer(t)
	w.Seed(t, "garden.md", "# Gardening\n\ntomato seedlings\n")

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "tomato"})
	if r.IsError {
		t.Fatalf("search_notes errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "garden.md") {
		t.Errorf("search missing garden.md: %s", resultText(r))
	}
}

func TestPreviewThenRenameTool(t *testing.T) {
	srv, w := testServer(t)
	w.Seed(t, "A.md", "see [[B]]\n")
	w.Seed(t, "B.md", "b\n")

	r := callTool(t, srv, "preview_rename", map[string]interface{}{
		"path": "B.md", "new_basename": "C",
	})
	if r.IsError {
		t.Fatalf("preview_rename errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "[[C]]") {
		t.Errorf("preview missing rewritten line: %s", resultText(r))
	}
	if _, err := os.Stat(w.Root + "/B.md"); err != nil {
		t.Fatalf("preview must not move the note: %v", err)
	}

	r = callTool(t, srv, "rename_note", map[string]interface{}{
		"path": "B.md", "new_basename": "C",
	})
	if r.IsError {
		t.Fatalf("rename_note errored: %s", resultText(r))
	}
	if _, err := os.Stat(w.Root + "/C.md"); err != nil {
		t.Errorf("C.md should exist after rename: %v", err)
	}
}

func TestRenameTool_MissingArgument(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "rename_note", map[string]interface{}{"path": "B.md"})
	if !r.IsError {
		t.Fatal("expected error result for missing new_basename")
	}
}
