package render

import (
	"github.com/msalah0e/lombard/internal/graph"
)

// NodeView is a drawable node.
type NodeView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    graph.Category `json:"type"`
	Date        string         `json:"date,omitempty"`
	Position    Point          `json:"position"`
	Radius      float64        `json:"radius"`
	Label       Point          `json:"label"`
	Fill        string         `json:"fill"`
	Stroke      string         `json:"stroke"`
	StrokeWidth float64        `json:"stroke_width"`
	Opacity     float64        `json:"opacity"`
	Pinned      bool           `json:"pinned,omitempty"`
}

// EdgeView is a drawable edge.
type EdgeView struct {
	Source  string       `json:"source"`
	Target  string       `json:"target"`
	Label   string       `json:"type,omitempty"`
	Status  graph.Status `json:"status"`
	Date    string       `json:"date,omitempty"`
	Value   string       `json:"value,omitempty"`
	Path    Path         `json:"-"`
	D       string       `json:"d"`
	Arrow   [3]Point     `json:"arrow"`
	Stroke  string       `json:"stroke"`
	Dash    string       `json:"dash,omitempty"`
	Width   float64      `json:"width"`
	Opacity float64      `json:"opacity"`
}

// DateLabel annotates an edge with its date.
type DateLabel struct {
	Text string `json:"text"`
	At   Point  `json:"at"`
}

// AxisTick labels a position on the timeline axis.
type AxisTick struct {
	X     float64 `json:"x"`
	Label string  `json:"label"`
}

// Frame is a value snapshot of everything needed to draw one tick.
type Frame struct {
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Layout      string      `json:"layout"`
	Alpha       float64     `json:"alpha"`
	Curvature   float64     `json:"curvature"`
	Nodes       []NodeView  `json:"nodes"`
	Edges       []EdgeView  `json:"edges"`
	Dates       []DateLabel `json:"dates,omitempty"`
	Communities [][]string  `json:"communities,omitempty"`
	Axis        []AxisTick  `json:"axis,omitempty"`
}

// Node returns the view of a node by id.
func (f *Frame) Node(id string) (NodeView, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Scene is what BuildFrame needs: graph records, resolved positions and
// display settings.
type Scene struct {
	Width, Height float64
	Title         string
	Description   string
	Nodes         []graph.Node
	Edges         []graph.Edge
	Positions     map[string]Point
	Pinned        map[string]bool
	Curvature     float64
	ShowDates     bool
	Layout        string
	Alpha         float64
	Communities   [][]string
	Axis          []AxisTick
	Highlight     *Highlight
}

const (
	arrowSize    = 6.0
	labelOffset  = 15.0
	dateOffset   = 10.0
	edgeWidth    = 1.5
	nodeStroke   = 1.0
	labelPadding = 4.0
)

// BuildFrame projects a scene into drawable geometry. Nodes without a
// position, and edges touching them, are left out.
func BuildFrame(s Scene) Frame {
	f := Frame{
		Width:       s.Width,
		Height:      s.Height,
		Title:       s.Title,
		Description: s.Description,
		Layout:      s.Layout,
		Alpha:       s.Alpha,
		Curvature:   s.Curvature,
		Communities: s.Communities,
		Axis:        s.Axis,
		Nodes:       make([]NodeView, 0, len(s.Nodes)),
		Edges:       make([]EdgeView, 0, len(s.Edges)),
	}

	community := make(map[string]int)
	for i, c := range s.Communities {
		for _, id := range c {
			community[id] = i
		}
	}

	radius := make(map[string]float64, len(s.Nodes))
	for _, n := range s.Nodes {
		pos, ok := s.Positions[n.ID]
		if !ok {
			continue
		}
		r := NodeRadius(n.Importance)
		radius[n.ID] = r
		fill := NodeFill(n.Category)
		if i, ok := community[n.ID]; ok {
			fill = CommunityFill(i)
		}
		f.Nodes = append(f.Nodes, NodeView{
			ID:          n.ID,
			Name:        n.Name,
			Category:    n.Category,
			Date:        n.Date,
			Position:    pos,
			Radius:      r,
			Label:       Point{pos.X, pos.Y - max(labelOffset, r+labelPadding)},
			Fill:        fill,
			Stroke:      Text,
			StrokeWidth: nodeStroke,
			Opacity:     1,
			Pinned:      s.Pinned[n.ID],
		})
	}

	for _, e := range s.Edges {
		src, ok1 := s.Positions[e.Source]
		tgt, ok2 := s.Positions[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		p := EdgePath(src, tgt, e.Status, s.Curvature)
		f.Edges = append(f.Edges, EdgeView{
			Source:  e.Source,
			Target:  e.Target,
			Label:   e.Label,
			Status:  e.Status,
			Date:    e.Date,
			Value:   e.Value.String(),
			Path:    p,
			D:       p.D(),
			Arrow:   Arrowhead(p, radius[e.Target], arrowSize),
			Stroke:  Ink,
			Dash:    EdgeDash(e.Status),
			Width:   edgeWidth,
			Opacity: EdgeOpacity(e.Status),
		})
		if s.ShowDates && e.Date != "" {
			f.Dates = append(f.Dates, DateLabel{
				Text: e.Date,
				At:   Point{(src.X + tgt.X) / 2, (src.Y+tgt.Y)/2 - dateOffset},
			})
		}
	}

	s.Highlight.apply(&f)
	return f
}
