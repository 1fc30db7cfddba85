package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Viewer is the viewing session the tools read from.
type Viewer interface {
	ActiveDocument() (*mindmap.Document, string)
	LoadSaved(data []byte) error
}

// Searcher finds topics across saved mind maps.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Hit, error)
}

// Server wraps an MCP server that exposes the active mind map to agents.
type Server struct {
	viewer Viewer
	index  Searcher
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server. index may be nil, in which case
// search_topics is not offered.
func NewServer(viewer Viewer, index Searcher) *Server {
	s := &Server{
		viewer: viewer,
		index:  index,
	}

	s.mcp = server.NewMCPServer(
		"videomind",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(getMindMapTool, s.handleGetMindMap)
	s.mcp.AddTool(resolveTopicTool, s.handleResolveTopic)
	s.mcp.AddTool(getTopicTool, s.handleGetTopic)
	s.mcp.AddTool(getSummaryTool, s.handleGetSummary)
	s.mcp.AddTool(getDiagramTool, s.handleGetDiagram)
	s.mcp.AddTool(loadMindMapTool, s.handleLoadMindMap)
	if s.index != nil {
		s.mcp.AddTool(searchTopicsTool, s.handleSearchTopics)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
