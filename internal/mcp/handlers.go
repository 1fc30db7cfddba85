package mcp

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/videomind/internal/diagrams"
	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/summary"
)

func (s *Server) handleGetMindMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, state := s.viewer.ActiveDocument()
	data, err := mindmap.Serialize(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("serializing mind map: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("State: %s\n\n%s", state, data)), nil
}

func (s *Server) handleResolveTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := request.RequireFloat("time")
	if err != nil {
		return mcp.NewToolResultError("time parameter is required"), nil
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return mcp.NewToolResultError("time must be a finite number of seconds"), nil
	}

	doc, _ := s.viewer.ActiveDocument()
	index, ok := mindmap.ResolveActive(doc, t)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("No topic covers %s. Overall summary: %s",
			mindmap.FormatClock(t), doc.RootTopic)), nil
	}
	node := doc.Nodes[index]
	return mcp.NewToolResultText(fmt.Sprintf("Topic %d at %s: %s (%s)",
		index, mindmap.FormatClock(t), node.Topic, mindmap.RangeLabel(node.Timestamp))), nil
}

func (s *Server) handleGetTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError("index parameter is required"), nil
	}

	doc, _ := s.viewer.ActiveDocument()
	if index < 0 || index >= len(doc.Nodes) {
		return mcp.NewToolResultError(fmt.Sprintf("index %d out of range, the mind map has %d topics", index, len(doc.Nodes))), nil
	}
	return mcp.NewToolResultText(formatTopic(index, doc.Nodes[index])), nil
}

func (s *Server) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, _ := s.viewer.ActiveDocument()
	active := -1
	if _, ok := request.GetArguments()["time"]; ok {
		t, err := request.RequireFloat("time")
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
			return mcp.NewToolResultError("time must be a finite number of seconds"), nil
		}
		if i, ok := mindmap.ResolveActive(doc, t); ok {
			active = i
		}
	}
	return mcp.NewToolResultText(string(summary.PanelMarkdown(summary.Build(doc, active)))), nil
}

func (s *Server) handleGetDiagram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := request.GetString("kind", string(diagrams.KindMindMap))

	doc, _ := s.viewer.ActiveDocument()
	out, err := diagrams.Render(diagrams.Kind(kind), doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("```mermaid\n%s\n```", out)), nil
}

func (s *Server) handleLoadMindMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("document parameter is required"), nil
	}
	if err := s.viewer.LoadSaved([]byte(document)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("mind map rejected: %v", err)), nil
	}
	doc, _ := s.viewer.ActiveDocument()
	return mcp.NewToolResultText(fmt.Sprintf("Loaded %q with %d topics.", doc.RootTopic, len(doc.Nodes))), nil
}

func (s *Server) handleSearchTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit < 1 {
		limit = 5
	}

	hits, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results:\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&b, "## %d. %s (similarity: %.2f)\n", i+1, h.Topic, h.Similarity)
		fmt.Fprintf(&b, "Map: %s, topic %d, %s - %s\n\n", h.Title, h.Node,
			mindmap.FormatClock(h.Start), mindmap.FormatClock(h.End))
		b.WriteString(h.Content)
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatTopic(index int, n mindmap.TopicNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %d. %s\n", index, n.Topic)
	fmt.Fprintf(&b, "Time: %s\n\n", mindmap.RangeLabel(n.Timestamp))
	for _, point := range n.Summary {
		fmt.Fprintf(&b, "- %s\n", point)
	}
	if len(n.Keywords) > 0 {
		fmt.Fprintf(&b, "\nKeywords: %s\n", strings.Join(n.Keywords, ", "))
	}
	return b.String()
}
