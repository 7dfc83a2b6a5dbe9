// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Laguz note operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/noteservice"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Laguz tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List every note in the knowledge base with its path and type."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("List the outgoing links of a note and where each one resolves."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. projects/laguz.md)")),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("preview_rename",
		mcp.WithDescription("Show which lines in which notes a rename would rewrite, without changing anything."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to rename")),
		mcp.WithString("new_basename", mcp.Required(), mcp.Description("New filename without extension")),
	), s.previewRename)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Rename a note and rewrite every link that points at it. "+
			"Call preview_rename first to review the changes."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to rename")),
		mcp.WithString("new_basename", mcp.Required(), mcp.Description("New filename without extension")),
	), s.renameNote)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records := s.svc.ListNotes(ctx)
	type item struct {
		Path string `json:"path"`
		Type string `json:"type"`
	}
	items := make([]item, len(records))
	for i, rec := range records {
		items[i] = item{Path: rec.RelPath(), Type: string(rec.Type)}
	}
	return jsonResult(items)
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Links(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(links)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(refs)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) previewRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, newBase, res := renameArgs(req)
	if res != nil {
		return res, nil
	}
	prev, err := s.svc.PreviewRename(ctx, path, newBase)
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(prev)
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, newBase, res := renameArgs(req)
	if res != nil {
		return res, nil
	}
	out, err := s.svc.Rename(ctx, path, newBase, false)
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(out)
}

func renameArgs(req mcp.CallToolRequest) (path, newBase string, errRes *mcp.CallToolResult) {
	path, err := req.RequireString("path")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	newBase, err = req.RequireString("new_basename")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return path, newBase, nil
}

func toolError(path string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	case errors.Is(err, apperr.ErrDestinationExists):
		return mcp.NewToolResultError(fmt.Sprintf("destination already exists for %s", path))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
