package diagrams

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// Kind names a mermaid rendering of a mind map.
type Kind string

const (
	KindMindMap   Kind = "mindmap"
	KindFlowchart Kind = "flowchart"
	KindTimeline  Kind = "timeline"
)

// rootLabelLimit caps the root label; root topics are often a full paragraph.
const rootLabelLimit = 60

// Render produces the mermaid source for the requested kind.
func Render(kind Kind, d *mindmap.Document) (string, error) {
	if d == nil {
		return "", fmt.Errorf("rendering %s: nil document", kind)
	}
	switch kind {
	case KindMindMap, "":
		return MindMap(d), nil
	case KindFlowchart:
		return Flowchart(d), nil
	case KindTimeline:
		return Timeline(d), nil
	default:
		return "", fmt.Errorf("unknown diagram kind %q: must be one of mindmap, flowchart, timeline", kind)
	}
}

// MindMap generates a mermaid mindmap: the root topic with one branch per
// node and the node's summary points as leaves.
func MindMap(d *mindmap.Document) string {
	var b strings.Builder
	b.WriteString("mindmap\n")
	b.WriteString(fmt.Sprintf("  root((%s))\n", escapeMermaid(rootLabel(d.RootTopic))))
	for i, n := range d.Nodes {
		id := nodeID(i)
		b.WriteString(fmt.Sprintf("    %s[%s]\n", id, escapeMermaid(n.Topic)))
		for j, s := range n.Summary {
			b.WriteString(fmt.Sprintf("      %s_%d(%s)\n", id, j, escapeMermaid(s)))
		}
	}
	return b.String()
}

// Flowchart generates a graph TD star with the time range on every edge.
func Flowchart(d *mindmap.Document) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	b.WriteString(fmt.Sprintf("    root[\"%s\"]\n", escapeMermaid(rootLabel(d.RootTopic))))
	for i, n := range d.Nodes {
		id := nodeID(i)
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, escapeMermaid(n.Topic)))
		b.WriteString(fmt.Sprintf("    root -->|%s| %s\n", mindmap.RangeLabel(n.Timestamp), id))
	}
	return b.String()
}

// Timeline generates a gantt chart with one bar per node, in seconds.
func Timeline(d *mindmap.Document) string {
	var b strings.Builder
	b.WriteString("gantt\n")
	b.WriteString(fmt.Sprintf("    title %s\n", escapeGantt(rootLabel(d.RootTopic))))
	b.WriteString("    dateFormat X\n")
	b.WriteString("    axisFormat %M:%S\n")
	b.WriteString("    section Topics\n")
	for i, n := range d.Nodes {
		b.WriteString(fmt.Sprintf("    %s :%s, %s, %s\n",
			escapeGantt(n.Topic), nodeID(i), seconds(n.Timestamp.Start), seconds(n.Timestamp.End)))
	}
	return b.String()
}

func nodeID(i int) string { return "n" + strconv.Itoa(i) }

func seconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// rootLabel keeps the first sentence of the root topic, shortened.
func rootLabel(s string) string {
	if sentences := mindmap.SummarySentences(s); len(sentences) > 0 {
		s = sentences[0]
	}
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > rootLabelLimit {
		return strings.TrimSpace(string(runes[:rootLabelLimit])) + "..."
	}
	return s
}

// escapeMermaid escapes characters that have special meaning in mermaid labels.
func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "(", "#lpar;")
	s = strings.ReplaceAll(s, ")", "#rpar;")
	s = strings.ReplaceAll(s, "[", "#lsqb;")
	s = strings.ReplaceAll(s, "]", "#rsqb;")
	s = strings.ReplaceAll(s, "{", "#lbrace;")
	s = strings.ReplaceAll(s, "}", "#rbrace;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}

// escapeGantt also escapes the colon gantt uses to separate task fields.
func escapeGantt(s string) string {
	s = escapeMermaid(s)
	s = strings.ReplaceAll(s, ":", "#58;")
	return s
}
