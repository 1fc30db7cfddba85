package mcp

import "github.com/mark3labs/mcp-go/mcp"

// getMindMapTool defines the get_mindmap MCP tool.
var getMindMapTool = mcp.NewTool("get_mindmap",
	mcp.WithDescription("Get the active video mind map as JSON: the overall summary, every topic with its time range, and the transcript if present."),
)

// resolveTopicTool defines the resolve_topic MCP tool.
var resolveTopicTool = mcp.NewTool("resolve_topic",
	mcp.WithDescription("Find the topic being discussed at a playback position of the video."),
	mcp.WithNumber("time",
		mcp.Required(),
		mcp.Description("Playback position in seconds"),
	),
)

// getTopicTool defines the get_topic MCP tool.
var getTopicTool = mcp.NewTool("get_topic",
	mcp.WithDescription("Get the summary points, keywords and time range of one topic of the active mind map."),
	mcp.WithNumber("index",
		mcp.Required(),
		mcp.Description("Zero-based topic index"),
	),
)

// getSummaryTool defines the get_summary MCP tool.
var getSummaryTool = mcp.NewTool("get_summary",
	mcp.WithDescription("Get the summary panel for a playback position: the playing topic's points, or the overall video summary when no topic covers it."),
	mcp.WithNumber("time",
		mcp.Description("Playback position in seconds; omit for the overall summary"),
	),
)

// getDiagramTool defines the get_diagram MCP tool.
var getDiagramTool = mcp.NewTool("get_diagram",
	mcp.WithDescription("Get a Mermaid diagram of the active mind map."),
	mcp.WithString("kind",
		mcp.Description("Diagram kind (default mindmap)"),
		mcp.Enum("mindmap", "flowchart", "timeline"),
	),
)

// loadMindMapTool defines the load_mindmap MCP tool.
var loadMindMapTool = mcp.NewTool("load_mindmap",
	mcp.WithDescription("Validate a mind-map JSON document and make it the active mind map."),
	mcp.WithString("document",
		mcp.Required(),
		mcp.Description("Mind-map JSON with root_topic, nodes and optional transcription"),
	),
)

// searchTopicsTool defines the search_topics MCP tool.
var searchTopicsTool = mcp.NewTool("search_topics",
	mcp.WithDescription("Search topics across all saved mind maps semantically."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
