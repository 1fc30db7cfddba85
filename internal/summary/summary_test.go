package summary

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

func sampleDoc() *mindmap.Document {
	return &mindmap.Document{
		RootTopic: "A short film. It has a rabbit! Does it end well?",
		Nodes: []mindmap.TopicNode{
			{
				Topic:     "Opening",
				Summary:   []string{"Birds sing", "A rabbit wakes"},
				Keywords:  []string{"birds", "rabbit", "meadow", "morning", "sun", "tree"},
				Timestamp: mindmap.Range{Start: 0, End: 65},
			},
			{
				Topic:     "Chase <b>",
				Summary:   []string{},
				Keywords:  []string{},
				Timestamp: mindmap.Range{Start: 65, End: 120},
			},
		},
		Transcription: []mindmap.TranscriptLine{{Text: "a | b", Start: 3, End: 4}},
	}
}

func TestBuildActiveNode(t *testing.T) {
	p := Build(sampleDoc(), 0)
	if p.Active != 0 || p.Topic != "Opening" || p.Range != "0:00 - 1:05" {
		t.Errorf("unexpected panel header: %+v", p)
	}
	if len(p.Keywords) != 4 || p.MoreKeywords != 2 {
		t.Errorf("keywords = %v more = %d", p.Keywords, p.MoreKeywords)
	}
	if p.SpeechText != "Birds sing. A rabbit wakes" {
		t.Errorf("speech text = %q", p.SpeechText)
	}
}

func TestBuildOverallSummary(t *testing.T) {
	d := sampleDoc()
	for _, idx := range []int{-1, 2} {
		p := Build(d, idx)
		if p.Active != -1 {
			t.Errorf("Build(%d).Active = %d", idx, p.Active)
		}
		want := []string{"A short film", "It has a rabbit", "Does it end well"}
		if len(p.Bullets) != len(want) {
			t.Fatalf("bullets = %q", p.Bullets)
		}
		for i := range want {
			if p.Bullets[i] != want[i] {
				t.Errorf("bullet %d = %q, want %q", i, p.Bullets[i], want[i])
			}
		}
		if p.SpeechText != d.RootTopic {
			t.Errorf("speech text = %q", p.SpeechText)
		}
	}
}

func TestBuildNilDocument(t *testing.T) {
	p := Build(nil, 0)
	if p.Active != -1 || p.Bullets == nil {
		t.Errorf("unexpected panel for nil document: %+v", p)
	}
	if SpeechText(nil, 0) != "" {
		t.Error("expected empty speech text")
	}
}

func TestRenderPanelHTML(t *testing.T) {
	html, err := RenderHTML(PanelMarkdown(Build(sampleDoc(), 0)))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"Currently Playing: Opening", "<li>Birds sing</li>", "<code>birds</code>", "+2 more"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in %s", want, html)
		}
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	html, err := RenderHTML(PanelMarkdown(Build(sampleDoc(), 1)))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if strings.Contains(html, "<b>") {
		t.Errorf("raw HTML leaked into output: %s", html)
	}
	if !strings.Contains(html, "&lt;b&gt;") {
		t.Errorf("expected escaped tag in %s", html)
	}
}

func TestMarkdownOutline(t *testing.T) {
	md := string(Markdown(sampleDoc(), "mindmap\n  root((x))"))
	for _, want := range []string{
		"# A short film. It has a rabbit! Does it end well?",
		"```mermaid\nmindmap\n  root((x))\n```",
		"## Opening",
		"*1:05 - 2:00*",
		"**Keywords:** birds, rabbit, meadow, morning, sun, tree",
		"| 0:03 | a \\| b |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown:\n%s", want, md)
		}
	}

	html, err := RenderHTML([]byte(md))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Error("transcript should render as a GFM table")
	}
}
