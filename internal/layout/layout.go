// Package layout places mind-map vertices on a 2-D canvas. The topology is a
// star: the root topic sits at the centre and every topic node hangs off it
// on a single ring, in declared order, clockwise from twelve o'clock.
package layout

import (
	"math"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

const (
	// RootIndex identifies the root vertex in edges.
	RootIndex = -1

	RootRadius  = 56.0
	NodeRadius  = 36.0
	MinRing     = 180.0 // smallest ring radius
	NodeSpacing = 150.0 // arc length between neighbouring node centres
	Margin      = 40.0
)

// Vertex is a positioned vertex. Index is RootIndex for the root.
type Vertex struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Angle  float64 `json:"angle"`
}

// Edge joins a parent vertex to a child vertex.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Result is the full layout of one document.
type Result struct {
	Root   Vertex   `json:"root"`
	Nodes  []Vertex `json:"nodes"`
	Edges  []Edge   `json:"edges"`
	Ring   float64  `json:"ring"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

// Compute lays out the document. It depends only on the number of nodes and
// their labels, so equal documents always produce equal results. A document
// with no nodes yields the root alone.
func Compute(d *mindmap.Document) *Result {
	var n int
	root := ""
	if d != nil {
		n = len(d.Nodes)
		root = d.RootTopic
	}

	ring := 0.0
	if n > 0 {
		ring = math.Max(MinRing, float64(n)*NodeSpacing/(2*math.Pi))
	}
	extent := RootRadius
	if n > 0 {
		extent = ring + NodeRadius
	}
	size := round2(2 * (extent + Margin))
	cx, cy := size/2, size/2

	res := &Result{
		Root: Vertex{
			Index:  RootIndex,
			Label:  root,
			X:      cx,
			Y:      cy,
			Radius: RootRadius,
		},
		Nodes:  make([]Vertex, n),
		Edges:  make([]Edge, n),
		Ring:   round2(ring),
		Width:  size,
		Height: size,
	}

	for i := 0; i < n; i++ {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		res.Nodes[i] = Vertex{
			Index:  i,
			Label:  d.Nodes[i].Topic,
			X:      round2(cx + ring*math.Cos(angle)),
			Y:      round2(cy + ring*math.Sin(angle)),
			Radius: NodeRadius,
			Angle:  round2(angle * 180 / math.Pi),
		}
		res.Edges[i] = Edge{From: RootIndex, To: i}
	}
	return res
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // avoid -0 in output
	}
	return r
}
