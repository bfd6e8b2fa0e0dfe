package render

import "github.com/msalah0e/lombard/internal/graph"

// Lombardi palette: pale paper fills, ink lines, one red accent.
const (
	Background     = "#F9F7F4"
	Ink            = "#1A1A1A"
	Text           = "#2A2A2A"
	HighlightColor = "#C41E3A"
)

var nodeFill = map[graph.Category]string{
	graph.CategoryPerson:       "#F9F6EE",
	graph.CategoryCorporation:  "#F5F5F5",
	graph.CategoryGovernment:   "#F0EAD6",
	graph.CategoryFinancial:    "#FFFAF0",
	graph.CategoryOrganization: "#F8F8FF",
}

const nodeFillOpacity = 0.6

// communityFill colours nodes by community in the community layout.
var communityFill = []string{"#E74C3C", "#3498DB", "#2ECC71", "#F39C12", "#9B59B6", "#1ABC9C"}

// NodeFill returns the fill colour for a category.
func NodeFill(c graph.Category) string {
	if f, ok := nodeFill[c]; ok {
		return f
	}
	return nodeFill[graph.DefaultCategory]
}

// CommunityFill returns the fill colour for community i.
func CommunityFill(i int) string {
	return communityFill[i%len(communityFill)]
}

// EdgeOpacity returns the resting stroke opacity for a status.
func EdgeOpacity(s graph.Status) float64 {
	switch s {
	case graph.StatusSuspected:
		return 0.4
	case graph.StatusFormer:
		return 0.25
	}
	return 0.85
}

// EdgeDash returns the stroke-dasharray for a status, empty for solid.
func EdgeDash(s graph.Status) string {
	if s == graph.StatusSuspected {
		return "4,3"
	}
	return ""
}

// NodeRadius returns the drawn radius for an importance in [0,1].
func NodeRadius(importance float64) float64 {
	return 5 + importance*10
}
