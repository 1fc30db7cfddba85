package layout

import (
	"math"
	"reflect"
	"testing"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

func docWith(n int) *mindmap.Document {
	d := &mindmap.Document{RootTopic: "root", Nodes: make([]mindmap.TopicNode, n)}
	for i := range d.Nodes {
		d.Nodes[i] = mindmap.TopicNode{
			Topic:     string(rune('A' + i)),
			Timestamp: mindmap.Range{Start: float64(i * 10), End: float64(i*10 + 10)},
		}
	}
	return d
}

func TestComputeZeroNodes(t *testing.T) {
	res := Compute(docWith(0))
	if len(res.Nodes) != 0 || len(res.Edges) != 0 {
		t.Fatalf("expected root only, got %d nodes %d edges", len(res.Nodes), len(res.Edges))
	}
	if res.Root.Index != RootIndex || res.Root.Label != "root" {
		t.Errorf("unexpected root vertex: %+v", res.Root)
	}
	if res.Root.X != res.Width/2 || res.Root.Y != res.Height/2 {
		t.Errorf("root should be centred, got (%v,%v) on %vx%v", res.Root.X, res.Root.Y, res.Width, res.Height)
	}
}

func TestComputeNilDocument(t *testing.T) {
	res := Compute(nil)
	if len(res.Nodes) != 0 {
		t.Errorf("nil document should lay out the root only")
	}
}

func TestComputeStarTopology(t *testing.T) {
	res := Compute(docWith(5))
	if len(res.Edges) != 5 {
		t.Fatalf("got %d edges, want 5", len(res.Edges))
	}
	for i, e := range res.Edges {
		if e.From != RootIndex || e.To != i {
			t.Errorf("edge %d = %+v, want root -> %d", i, e, i)
		}
	}
	for i, v := range res.Nodes {
		dist := math.Hypot(v.X-res.Root.X, v.Y-res.Root.Y)
		if math.Abs(dist-res.Ring) > 0.05 {
			t.Errorf("node %d at distance %v, want ring %v", i, dist, res.Ring)
		}
		if v.Label != string(rune('A'+i)) {
			t.Errorf("node %d label %q", i, v.Label)
		}
	}
	// The first node is straight above the root.
	if res.Nodes[0].X != res.Root.X || res.Nodes[0].Y >= res.Root.Y {
		t.Errorf("first node should sit above the root, got %+v", res.Nodes[0])
	}
}

func TestComputeRingGrowsWithNodeCount(t *testing.T) {
	small := Compute(docWith(3))
	large := Compute(docWith(40))
	if small.Ring != MinRing {
		t.Errorf("small ring = %v, want %v", small.Ring, MinRing)
	}
	if large.Ring <= small.Ring {
		t.Errorf("large ring %v should exceed small ring %v", large.Ring, small.Ring)
	}
	a, b := large.Nodes[0], large.Nodes[1]
	if d := math.Hypot(a.X-b.X, a.Y-b.Y); d < NodeSpacing*0.95 {
		t.Errorf("neighbours too close: %v", d)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	d1 := docWith(8)
	d2 := docWith(8)
	if !reflect.DeepEqual(Compute(d1), Compute(d1)) {
		t.Error("same document produced different layouts")
	}
	if !reflect.DeepEqual(Compute(d1), Compute(d2)) {
		t.Error("structurally identical documents produced different layouts")
	}
}

func TestCacheRecomputesOnlyOnIdentityChange(t *testing.T) {
	var c Cache
	d1 := docWith(4)
	first := c.For(d1)
	if c.For(d1) != first {
		t.Error("expected cached result for the same document")
	}
	if c.Computations() != 1 {
		t.Errorf("computations = %d, want 1", c.Computations())
	}
	d2 := docWith(4)
	second := c.For(d2)
	if second == first {
		t.Error("a new document identity should recompute")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("equal documents should still lay out identically")
	}
	if c.Computations() != 2 {
		t.Errorf("computations = %d, want 2", c.Computations())
	}
}
