// Package summary builds the summary panel shown next to the video and
// renders mind maps as Markdown and HTML.
package summary

import (
	"strings"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// Panel is the content of the summary panel for one playback position.
type Panel struct {
	// Active is the highlighted node index, or -1 for the overall summary.
	Active       int      `json:"active"`
	Heading      string   `json:"heading"`
	Topic        string   `json:"topic,omitempty"`
	Range        string   `json:"range,omitempty"`
	Bullets      []string `json:"bullets"`
	Keywords     []string `json:"keywords"`
	MoreKeywords int      `json:"more_keywords"`
	SpeechText   string   `json:"speech_text"`
	SpeechLabel  string   `json:"speech_label"`
}

// Build returns the panel for the given active index. An index outside the
// node list yields the overall summary built from the root topic.
func Build(d *mindmap.Document, active int) Panel {
	if d == nil {
		return Panel{Active: -1, Heading: "Overall Video Summary", Bullets: []string{}, Keywords: []string{}}
	}
	if active < 0 || active >= len(d.Nodes) {
		return Panel{
			Active:      -1,
			Heading:     "Overall Video Summary",
			Bullets:     mindmap.SummarySentences(d.RootTopic),
			Keywords:    []string{},
			SpeechText:  d.RootTopic,
			SpeechLabel: "Listen to video summary",
		}
	}
	node := &d.Nodes[active]
	shown, more := mindmap.KeywordPreview(node.Keywords, mindmap.KeywordPreviewLimit)
	bullets := make([]string, len(node.Summary))
	copy(bullets, node.Summary)
	return Panel{
		Active:       active,
		Heading:      "Currently Playing",
		Topic:        node.Topic,
		Range:        mindmap.RangeLabel(node.Timestamp),
		Bullets:      bullets,
		Keywords:     shown,
		MoreKeywords: more,
		SpeechText:   SpeechText(d, active),
		SpeechLabel:  "Listen to current segment summary",
	}
}

// SpeechText is the text handed to speech synthesis: the active node's
// summary points joined with ". ", or the root topic when nothing is active.
func SpeechText(d *mindmap.Document, active int) string {
	if d == nil {
		return ""
	}
	if active < 0 || active >= len(d.Nodes) {
		return d.RootTopic
	}
	return strings.Join(d.Nodes[active].Summary, ". ")
}
