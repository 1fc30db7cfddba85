package mindmap

import (
	"fmt"
	"math"
	"strings"
)

// KeywordPreviewLimit is how many keywords are shown before the overflow counter.
const KeywordPreviewLimit = 4

// SummarySentences splits the root topic into sentences on runs of '.', '!'
// and '?', trimming whitespace and dropping empty fragments. It is the
// fallback bullet list when no node is active.
func SummarySentences(rootTopic string) []string {
	parts := strings.FieldsFunc(rootTopic, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DownloadFilename derives the download file name from the root topic:
// every rune other than an ASCII letter or digit becomes '_', the result is
// lower-cased and suffixed with "_mindmap.json".
func DownloadFilename(rootTopic string) string {
	var b strings.Builder
	b.Grow(len(rootTopic) + len("_mindmap.json"))
	for _, r := range rootTopic {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	b.WriteString("_mindmap.json")
	return b.String()
}

// KeywordPreview returns at most limit keywords, in order, and how many
// were left out.
func KeywordPreview(keywords []string, limit int) (shown []string, more int) {
	if limit < 0 {
		limit = 0
	}
	if len(keywords) <= limit {
		return keywords, 0
	}
	return keywords[:limit], len(keywords) - limit
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	m := int(math.Floor(seconds / 60))
	s := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", m, s)
}

// RangeLabel renders a range as "m:ss - m:ss".
func RangeLabel(r Range) string {
	return FormatClock(r.Start) + " - " + FormatClock(r.End)
}
