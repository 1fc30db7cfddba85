package summary

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// md renders user-supplied text, so raw HTML stays escaped.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// PanelMarkdown renders a panel as Markdown.
func PanelMarkdown(p Panel) []byte {
	var b strings.Builder
	if p.Active < 0 {
		fmt.Fprintf(&b, "### %s\n\n", p.Heading)
	} else {
		fmt.Fprintf(&b, "### %s: %s\n\n", p.Heading, escapeInline(p.Topic))
		fmt.Fprintf(&b, "*%s*\n\n", p.Range)
	}
	for _, bullet := range p.Bullets {
		fmt.Fprintf(&b, "- %s\n", escapeInline(bullet))
	}
	if len(p.Keywords) > 0 {
		b.WriteString("\n")
		tags := make([]string, 0, len(p.Keywords)+1)
		for _, k := range p.Keywords {
			tags = append(tags, "`"+strings.ReplaceAll(k, "`", "'")+"`")
		}
		if p.MoreKeywords > 0 {
			tags = append(tags, fmt.Sprintf("+%d more", p.MoreKeywords))
		}
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// Markdown renders a whole document as an outline. A non-empty diagram is
// embedded as a mermaid code block after the title.
func Markdown(d *mindmap.Document, diagram string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeInline(d.RootTopic))
	if d.VideoURL != "" {
		fmt.Fprintf(&b, "Video: <%s>\n\n", d.VideoURL)
	}
	if diagram != "" {
		fmt.Fprintf(&b, "```mermaid\n%s\n```\n\n", strings.TrimRight(diagram, "\n"))
	}
	for i := range d.Nodes {
		node := &d.Nodes[i]
		fmt.Fprintf(&b, "## %s\n\n", escapeInline(node.Topic))
		fmt.Fprintf(&b, "*%s*\n\n", mindmap.RangeLabel(node.Timestamp))
		for _, s := range node.Summary {
			fmt.Fprintf(&b, "- %s\n", escapeInline(s))
		}
		if len(node.Keywords) > 0 {
			fmt.Fprintf(&b, "\n**Keywords:** %s\n", escapeInline(strings.Join(node.Keywords, ", ")))
		}
		b.WriteString("\n")
	}
	if len(d.Transcription) > 0 {
		b.WriteString("## Transcript\n\n")
		b.WriteString("| Time | Text |\n|---|---|\n")
		for _, line := range d.Transcription {
			text := strings.ReplaceAll(escapeInline(line.Text), "|", "\\|")
			fmt.Fprintf(&b, "| %s | %s |\n", mindmap.FormatClock(line.Start), text)
		}
	}
	return []byte(b.String())
}

// RenderHTML converts Markdown to an HTML fragment.
func RenderHTML(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// escapeInline keeps user text from being read as Markdown structure.
func escapeInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '*', '_', '`', '[', ']', '#', '<', '>':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
