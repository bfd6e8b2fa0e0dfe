package render

import "github.com/msalah0e/lombard/internal/graph"

// Highlight tracks hover and selection. It only changes opacity and stroke,
// never graph data.
type Highlight struct {
	hoverNode string
	hoverEdge string
	selected  string
}

// HoverNode marks a node as hovered.
func (h *Highlight) HoverNode(id string) {
	h.hoverNode, h.hoverEdge = id, ""
}

// HoverEdge marks the edge between a and b as hovered.
func (h *Highlight) HoverEdge(a, b string) {
	h.hoverNode, h.hoverEdge = "", graph.PairKey(a, b)
}

// ClearHover drops any hover state.
func (h *Highlight) ClearHover() {
	h.hoverNode, h.hoverEdge = "", ""
}

// Select toggles the selection of a node. Selecting the selected node again
// clears the selection. It reports whether id is now selected.
func (h *Highlight) Select(id string) bool {
	if h.selected == id {
		h.selected = ""
		return false
	}
	h.selected = id
	return true
}

// ClickBackground clears hover and selection.
func (h *Highlight) ClickBackground() {
	*h = Highlight{}
}

// Selected returns the selected node id, or "".
func (h *Highlight) Selected() string {
	return h.selected
}

// Forget drops any state that refers to a removed node.
func (h *Highlight) Forget(id string) {
	if h.selected == id {
		h.selected = ""
	}
	if h.hoverNode == id {
		h.hoverNode = ""
	}
}

const (
	dimNodeOpacity      = 0.15
	selectedEdgeOpacity = 0.8
	dimEdgeOpacity      = 0.05
)

// apply adjusts the frame's opacity and strokes in place.
func (h *Highlight) apply(f *Frame) {
	if h == nil {
		return
	}

	if h.selected != "" {
		near := map[string]bool{h.selected: true}
		for i := range f.Edges {
			e := &f.Edges[i]
			if e.Source == h.selected || e.Target == h.selected {
				near[e.Source], near[e.Target] = true, true
				e.Opacity = selectedEdgeOpacity
			} else {
				e.Opacity = dimEdgeOpacity
			}
		}
		for i := range f.Nodes {
			n := &f.Nodes[i]
			if !near[n.ID] {
				n.Opacity = dimNodeOpacity
			}
			if n.ID == h.selected {
				n.Stroke = HighlightColor
				n.StrokeWidth = 2
			}
		}
	}

	for i := range f.Nodes {
		if f.Nodes[i].ID == h.hoverNode {
			f.Nodes[i].StrokeWidth = 2
		}
	}
	for i := range f.Edges {
		e := &f.Edges[i]
		if h.hoverEdge != "" && graph.PairKey(e.Source, e.Target) == h.hoverEdge {
			e.Stroke = HighlightColor
		}
	}
}
