package generate

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

const systemPrompt = `You turn video transcripts into topic mind maps.
Reply with a single JSON object and nothing else, using exactly this shape:
{
  "root_topic": "two or three sentences summarising the whole video",
  "nodes": [
    {
      "topic": "short topic title",
      "summary": ["key point", "key point"],
      "keywords": ["keyword", "keyword"],
      "timestamp": [start_seconds, end_seconds]
    }
  ]
}
Rules:
- Nodes follow the order of the video.
- Timestamps are numbers of seconds with start < end and start >= 0.
- Cover the transcript from beginning to end without gaps where possible.
- Give each node two to four summary points and up to six keywords.`

// buildMessages renders the user prompt for a request.
func buildMessages(req Request, maxTopics int) string {
	var b strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&b, "Video title: %s\n", req.Title)
	}
	if req.Duration > 0 {
		fmt.Fprintf(&b, "Video length: %s (%.0f seconds)\n", mindmap.FormatClock(req.Duration), req.Duration)
	}
	fmt.Fprintf(&b, "Produce at most %d topic nodes.\n\n", maxTopics)

	if len(req.Transcript) > 0 {
		b.WriteString("Transcript (start-end seconds, text):\n")
		for _, line := range req.Transcript {
			fmt.Fprintf(&b, "[%.1f-%.1f] %s\n", line.Start, line.End, strings.TrimSpace(line.Text))
		}
	} else {
		b.WriteString("Transcript (untimed; estimate timestamps from the video length):\n")
		b.WriteString(strings.TrimSpace(req.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// extractJSON strips markdown fences and any prose around the outermost
// JSON object in a model reply.
func extractJSON(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", false
	}
	return content[start : end+1], true
}
