// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the marker session to agentic tools via stdio transport, so
// linters and build agents can publish and query markers directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/changsongyang/markerd/internal/marker"
	"github.com/changsongyang/markerd/internal/markerservice"
)

// Server wraps the MCP server with marker tools.
type Server struct {
	mcp *server.MCPServer
	svc *markerservice.Service
}

// New creates a new MCP server with all marker tools registered.
func New(svc *markerservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"markerd",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_marker_sets",
		mcp.WithDescription("List every marker set name in session order plus the active selection."),
	), s.listMarkerSets)

	s.mcp.AddTool(mcp.NewTool("get_markers",
		mcp.WithDescription("Return one marker set in client form. Without a set name, returns the active set."),
		mcp.WithString("set", mcp.Description("Optional set name (empty for the active set)")),
	), s.getMarkers)

	s.mcp.AddTool(mcp.NewTool("publish_markers",
		mcp.WithDescription("Publish a complete marker set and make it active. "+
			"Markers MUST follow the canonical wire format (type enum, 1-based "+
			"line/column). Read the contract first via the get_marker_contract "+
			"tool or the markerd://marker-format resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Set name, e.g. the producing tool (Lint, Build)")),
		mcp.WithString("base_path", mcp.Description("Optional base directory used to shorten displayed paths")),
		mcp.WithString("markers", mcp.Required(), mcp.Description("JSON array of marker objects per the marker format contract")),
	), s.publishMarkers)

	s.mcp.AddTool(mcp.NewTool("set_active_marker_set",
		mcp.WithDescription("Select the active marker set by name. Unknown names leave the selection unchanged."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the set to activate")),
	), s.setActiveMarkerSet)

	s.mcp.AddTool(mcp.NewTool("clear_active_marker_set",
		mcp.WithDescription("Remove the active marker set; the most recently published survivor becomes active."),
	), s.clearActiveMarkerSet)

	s.mcp.AddTool(mcp.NewTool("clear_marker_sets",
		mcp.WithDescription("Discard every marker set in the session."),
	), s.clearMarkerSets)

	s.mcp.AddTool(mcp.NewTool("search_markers",
		mcp.WithDescription("Full-text search through marker messages and paths."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchMarkers)

	s.mcp.AddTool(mcp.NewTool("get_marker_contract",
		mcp.WithDescription("Returns the canonical marker wire format contract. "+
			"Call this before publishing markers to ensure correct structure."),
	), s.getMarkerContract)

	// Resource: marker format contract.
	s.mcp.AddResource(
		mcp.NewResource("markerd://marker-format", "Marker Format Contract",
			mcp.WithResourceDescription("Canonical marker set format that all producers must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkerFormatResource,
	)

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

func (s *Server) listMarkerSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, active := s.svc.Names(ctx)
	out, _ := json.MarshalIndent(map[string]any{
		"names":  names,
		"active": active,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMarkers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := ""
	if n, err := req.RequireString("set"); err == nil {
		name = n
	}
	if name == "" {
		state := s.svc.State(ctx)
		if state.Markers == nil {
			return mcp.NewToolResultText("no active marker set"), nil
		}
		out, _ := json.MarshalIndent(state.Markers, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}
	view, err := s.svc.Get(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no such set: %s", name)), nil
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) publishMarkers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawMarkers, err := req.RequireString("markers")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	basePath := ""
	if bp, err := req.RequireString("base_path"); err == nil {
		basePath = bp
	}

	var markers []marker.Marker
	if err := json.Unmarshal([]byte(rawMarkers), &markers); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid markers JSON: %v", err)), nil
	}
	set := marker.Set{Name: name, BasePath: basePath, Markers: markers}
	if err := s.svc.Publish(ctx, set); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("published: %s (%d markers)", name, len(markers))), nil
}

func (s *Server) setActiveMarkerSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.svc.SetActive(ctx, name) {
		return mcp.NewToolResultText(fmt.Sprintf("no such set: %s (selection unchanged)", name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("active: %s", name)), nil
}

func (s *Server) clearActiveMarkerSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.svc.ClearActive(ctx)
	_, active := s.svc.Names(ctx)
	if active == "" {
		return mcp.NewToolResultText("no sets remain"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("active: %s", active)), nil
}

func (s *Server) clearMarkerSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.svc.TabClosed(ctx)
	return mcp.NewToolResultText("all marker sets cleared"), nil
}

func (s *Server) searchMarkers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	var b strings.Builder
	for _, hit := range results {
		fmt.Fprintf(&b, "[%s] %s %s:%d:%d %s\n", hit.SetName, hit.Kind, hit.Path, hit.Line, hit.Column, hit.Message)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getMarkerContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkerFormatContract), nil
}

func (s *Server) readMarkerFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "markerd://marker-format",
			MIMEType: "text/markdown",
			Text:     MarkerFormatContract,
		},
	}, nil
}
