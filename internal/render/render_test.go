package render

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/lombard/internal/graph"
)

func TestEdgePath_ArcRadius(t *testing.T) {
	src, tgt := Point{0, 0}, Point{100, 0}

	arc := EdgePath(src, tgt, graph.StatusConfirmed, 1)
	require.True(t, arc.Arc)
	assert.InDelta(t, 100, arc.R, 1e-9)
	assert.InDelta(t, 100, arc.Radius(), 1e-9)
	assert.Equal(t, "M0.00,0.00 A100.00,100.00 0 0,1 100.00,0.00", arc.D())

	c := arc.ArcCenter()
	assert.InDelta(t, 50, c.X, 1e-9)
	assert.InDelta(t, 50*math.Sqrt(3), c.Y, 1e-9)

	former := EdgePath(src, tgt, graph.StatusFormer, 1)
	assert.False(t, former.Arc)
	assert.Equal(t, "M0.00,0.00 L100.00,0.00", former.D())
	assert.NotEqual(t, arc.D(), former.D())

	suspected := EdgePath(src, tgt, graph.StatusSuspected, 2)
	assert.InDelta(t, 200, suspected.R, 1e-9)
}

func TestEdgePath_SmallRadiusScales(t *testing.T) {
	p := EdgePath(Point{0, 0}, Point{100, 0}, graph.StatusConfirmed, 0.2)
	require.True(t, p.Arc)
	assert.InDelta(t, 20, p.R, 1e-9)
	assert.InDelta(t, 50, p.Radius(), 1e-9)

	// A half circle: the midpoint sits one radius off the chord
	mid := p.Center()
	assert.InDelta(t, 50, mid.X, 1e-9)
	assert.InDelta(t, 50, math.Abs(mid.Y), 1e-9)
}

func TestEdgePath_Degenerate(t *testing.T) {
	same := EdgePath(Point{5, 5}, Point{5, 5}, graph.StatusConfirmed, 1)
	assert.False(t, same.Arc)

	flat := EdgePath(Point{0, 0}, Point{10, 0}, graph.StatusConfirmed, 0)
	assert.False(t, flat.Arc)

	head := Arrowhead(same, 10, 6)
	for _, p := range head {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
	}
}

func TestPath_Tangents(t *testing.T) {
	arc := Arc(Point{0, 0}, Point{100, 0}, 100)

	// Endpoints lie on the path
	start, end := arc.PointAt(0), arc.PointAt(1)
	assert.InDelta(t, 0, start.X, 1e-9)
	assert.InDelta(t, 0, start.Y, 1e-9)
	assert.InDelta(t, 100, end.X, 1e-9)
	assert.InDelta(t, 0, end.Y, 1e-9)

	// The arrow follows the arc, not the chord
	assert.InDelta(t, math.Pi/6, arc.ArrowAngle(), 1e-9)
	assert.InDelta(t, -math.Pi/6, arc.TangentAngleAt(0), 1e-9)
	assert.InDelta(t, 0, arc.TangentAngleAt(0.5), 1e-9)

	line := Line(Point{0, 0}, Point{0, 10})
	assert.InDelta(t, math.Pi/2, line.ArrowAngle(), 1e-9)
	assert.Equal(t, Point{0, 5}, line.Center())
}

func TestParsePath_RoundTrip(t *testing.T) {
	for _, p := range []Path{
		Arc(Point{12.5, -3}, Point{240, 118.25}, 300),
		Arc(Point{0, 0}, Point{100, 0}, 10),
		Line(Point{-4, 7}, Point{9, 9}),
	} {
		got, err := ParsePath(p.D())
		require.NoError(t, err, p.D())
		assert.Equal(t, p.Arc, got.Arc)
		assert.InDelta(t, p.R, got.R, 0.01)
		assert.InDelta(t, p.From.X, got.From.X, 0.01)
		assert.InDelta(t, p.To.Y, got.To.Y, 0.01)
		assert.Equal(t, p.D(), got.D())
	}

	_, err := ParsePath("M0,0 Q1,1 2,2")
	assert.Error(t, err)
	_, err = ParsePath("M0,0 A5,5 0 1,0 10,0")
	assert.Error(t, err)
}

func TestArrowhead_PulledBack(t *testing.T) {
	line := Line(Point{0, 0}, Point{100, 0})
	head := Arrowhead(line, 10, 6)
	assert.InDelta(t, 90, head[0].X, 1e-9)
	assert.InDelta(t, 84.8, head[1].X, 0.01)

	arc := Arc(Point{0, 0}, Point{100, 0}, 100)
	tip := Arrowhead(arc, 10, 6)[0]
	c := arc.ArcCenter()
	assert.InDelta(t, 100, math.Hypot(tip.X-c.X, tip.Y-c.Y), 1e-9, "tip stays on the arc")
	assert.InDelta(t, 10, math.Hypot(tip.X-100, tip.Y), 0.1)
}

func TestPalette(t *testing.T) {
	assert.Equal(t, 0.85, EdgeOpacity(graph.StatusConfirmed))
	assert.Equal(t, 0.4, EdgeOpacity(graph.StatusSuspected))
	assert.Equal(t, 0.25, EdgeOpacity(graph.StatusFormer))
	assert.Equal(t, 10.0, NodeRadius(0.5))
	assert.Equal(t, NodeFill(graph.CategoryPerson), NodeFill("unknown"))
	assert.Equal(t, CommunityFill(0), CommunityFill(6))
}

func scene() Scene {
	return Scene{
		Width:  400,
		Height: 300,
		Title:  "Silent Partners",
		Nodes: []graph.Node{
			{ID: "a", Name: "A & Co", Category: graph.CategoryCorporation, Importance: 1},
			{ID: "b", Name: "B", Category: graph.CategoryPerson, Importance: 0.5},
			{ID: "c", Name: "C", Category: graph.CategoryFinancial, Importance: 0},
			{ID: "gone", Name: "Gone"},
		},
		Edges: []graph.Edge{
			{Source: "a", Target: "b", Status: graph.StatusConfirmed, Date: "1984"},
			{Source: "b", Target: "c", Status: graph.StatusFormer},
			{Source: "c", Target: "gone", Status: graph.StatusSuspected},
		},
		Positions: map[string]Point{"a": {100, 100}, "b": {300, 100}, "c": {200, 250}},
		Curvature: 1,
		ShowDates: true,
		Layout:    "force",
	}
}

func TestBuildFrame(t *testing.T) {
	f := BuildFrame(scene())

	require.Len(t, f.Nodes, 3, "nodes without positions are dropped")
	require.Len(t, f.Edges, 2, "edges to dropped nodes are dropped")
	assert.Equal(t, 15.0, f.Nodes[0].Radius)
	assert.Equal(t, 0.85, f.Edges[0].Opacity)
	assert.Equal(t, 0.25, f.Edges[1].Opacity)
	assert.True(t, strings.Contains(f.Edges[0].D, " A"))
	assert.True(t, strings.Contains(f.Edges[1].D, " L"))

	require.Len(t, f.Dates, 1)
	assert.Equal(t, "1984", f.Dates[0].Text)
	assert.Equal(t, Point{200, 90}, f.Dates[0].At)

	s := scene()
	s.ShowDates = false
	assert.Empty(t, BuildFrame(s).Dates)
}

func TestBuildFrame_Communities(t *testing.T) {
	s := scene()
	s.Communities = [][]string{{"a", "b"}, {"c"}}
	f := BuildFrame(s)
	assert.Equal(t, CommunityFill(0), f.Nodes[0].Fill)
	assert.Equal(t, CommunityFill(1), f.Nodes[2].Fill)
}

func TestHighlight_Select(t *testing.T) {
	h := &Highlight{}
	s := scene()
	s.Highlight = h

	require.True(t, h.Select("a"))
	f := BuildFrame(s)
	a, _ := f.Node("a")
	b, _ := f.Node("b")
	c, _ := f.Node("c")
	assert.Equal(t, 1.0, a.Opacity)
	assert.Equal(t, HighlightColor, a.Stroke)
	assert.Equal(t, 1.0, b.Opacity)
	assert.Equal(t, 0.15, c.Opacity)
	assert.Equal(t, 0.8, f.Edges[0].Opacity)
	assert.Equal(t, 0.05, f.Edges[1].Opacity)

	// Selecting again clears the selection
	assert.False(t, h.Select("a"))
	f = BuildFrame(s)
	c, _ = f.Node("c")
	assert.Equal(t, 1.0, c.Opacity)
	assert.Equal(t, 0.25, f.Edges[1].Opacity)
}

func TestHighlight_HoverAndBackground(t *testing.T) {
	h := &Highlight{}
	s := scene()
	s.Highlight = h

	h.HoverEdge("b", "a")
	f := BuildFrame(s)
	assert.Equal(t, HighlightColor, f.Edges[0].Stroke)
	assert.Equal(t, Ink, f.Edges[1].Stroke)

	h.HoverNode("c")
	f = BuildFrame(s)
	c, _ := f.Node("c")
	assert.Equal(t, 2.0, c.StrokeWidth)
	assert.Equal(t, Ink, f.Edges[0].Stroke)

	h.Select("b")
	h.ClickBackground()
	assert.Empty(t, h.Selected())
	f = BuildFrame(s)
	c, _ = f.Node("c")
	assert.Equal(t, 1.0, c.StrokeWidth)
}

func TestWriteSVG(t *testing.T) {
	s := scene()
	s.Description = "1972-1991"
	s.Axis = []AxisTick{{X: 50, Label: "1972"}, {X: 350, Label: "1991"}}
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, BuildFrame(s), DefaultSVGOptions()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "A200")
	assert.Contains(t, out, "A &amp; Co")
	assert.Contains(t, out, "Silent Partners")
	assert.Contains(t, out, "1991")
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))

	assert.Error(t, WriteSVG(&buf, Frame{}, DefaultSVGOptions()))
}
