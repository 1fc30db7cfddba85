package mindmap

// ResolveActive returns the index of the first node, in declared order, whose
// half-open range contains t. A node's end belongs to whatever comes next, so
// with [0,30) and [30,90) the time 30 resolves to the second node. Ranges may
// overlap; the earliest declared node wins. It returns (-1, false) when no
// node contains t.
func ResolveActive(d *Document, t float64) (int, bool) {
	if d == nil {
		return -1, false
	}
	for i := range d.Nodes {
		if d.Nodes[i].Timestamp.Contains(t) {
			return i, true
		}
	}
	return -1, false
}

// ResolveCaption applies the same first-match policy to the transcription.
func ResolveCaption(d *Document, t float64) (int, bool) {
	if d == nil {
		return -1, false
	}
	for i := range d.Transcription {
		line := &d.Transcription[i]
		if t >= line.Start && t < line.End {
			return i, true
		}
	}
	return -1, false
}
