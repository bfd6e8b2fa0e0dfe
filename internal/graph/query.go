package graph

import (
	"sort"
	"strings"
)

// TopConnectedCount is how many nodes Stats ranks by degree.
const TopConnectedCount = 5

// Stats holds summary counts and network metrics.
type Stats struct {
	Nodes      int
	Edges      int
	Categories map[Category]int
	Statuses   map[Status]int
	Dated      int
	Isolated   int

	// Density is edges over the n(n-1)/2 possible pairs.
	Density      float64
	AvgDegree    float64
	TopConnected []Connected
}

// Connected is a node with its degree.
type Connected struct {
	Node   Node `json:"node"`
	Degree int  `json:"degree"`
}

// SearchResult holds a scored search hit.
type SearchResult struct {
	Node  Node `json:"node"`
	Score int  `json:"score"`
}

// ShowResult holds a node with the relationships it takes part in.
type ShowResult struct {
	Node     Node       `json:"node"`
	Outgoing []ShowEdge `json:"outgoing"`
	Incoming []ShowEdge `json:"incoming"`
}

// ShowEdge is one side of a relationship in a show result.
type ShowEdge struct {
	Edge  Edge `json:"edge"`
	Other Node `json:"other"`
}

// Degree returns the number of edges touching id.
func (s *Store) Degree(id string) int {
	d := 0
	for _, e := range s.edges {
		if e.Touches(id) {
			d++
		}
	}
	return d
}

// Degrees returns the degree of every live node.
func (s *Store) Degrees() map[string]int {
	out := make(map[string]int, len(s.order))
	for _, id := range s.order {
		out[id] = 0
	}
	for _, e := range s.edges {
		out[e.Source]++
		out[e.Target]++
	}
	return out
}

// Neighbors returns the ids adjacent to id, in edge insertion order.
func (s *Store) Neighbors(id string) []string {
	var out []string
	for _, e := range s.edges {
		if e.Touches(id) {
			out = append(out, e.Other(id))
		}
	}
	return out
}

// Show returns the node and its relationships.
func (s *Store) Show(ref string) (*ShowResult, bool) {
	n, ok := s.Resolve(ref)
	if !ok {
		return nil, false
	}
	res := &ShowResult{Node: n}
	for _, e := range s.edges {
		switch n.ID {
		case e.Source:
			res.Outgoing = append(res.Outgoing, ShowEdge{Edge: e, Other: *s.nodes[e.Target]})
		case e.Target:
			res.Incoming = append(res.Incoming, ShowEdge{Edge: e, Other: *s.nodes[e.Source]})
		}
	}
	return res, true
}

// Stats returns summary counts.
func (s *Store) Stats() Stats {
	st := Stats{
		Nodes:      len(s.order),
		Edges:      len(s.edges),
		Categories: make(map[Category]int),
		Statuses:   make(map[Status]int),
	}
	degrees := s.Degrees()
	for _, id := range s.order {
		n := s.nodes[id]
		st.Categories[n.Category]++
		if n.Date != "" {
			st.Dated++
		}
		if degrees[id] == 0 {
			st.Isolated++
		}
	}
	for _, e := range s.edges {
		st.Statuses[e.Status]++
	}

	n := len(s.order)
	if pairs := n * (n - 1) / 2; pairs > 0 {
		st.Density = float64(len(s.edges)) / float64(pairs)
	}
	if n > 0 {
		st.AvgDegree = 2 * float64(len(s.edges)) / float64(n)
	}

	ranked := make([]Connected, 0, n)
	for _, id := range s.order {
		ranked = append(ranked, Connected{Node: *s.nodes[id], Degree: degrees[id]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Degree > ranked[j].Degree })
	st.TopConnected = ranked[:min(TopConnectedCount, len(ranked))]
	return st
}

// Search scores nodes against query by name, category and description.
func (s *Store) Search(query string) []SearchResult {
	q := normalize(query)
	if q == "" {
		return nil
	}
	var results []SearchResult

	for _, id := range s.order {
		n := s.nodes[id]
		score := 0
		nameLower := strings.ToLower(n.Name)
		catLower := string(n.Category)

		if nameLower == q {
			score += 100
		} else if strings.Contains(nameLower, q) {
			score += 50
		}

		if catLower == q {
			score += 20
		} else if strings.Contains(catLower, q) {
			score += 15
		}

		if strings.Contains(strings.ToLower(n.Description), q) {
			score += 10
		}

		if score > 0 {
			results = append(results, SearchResult{Node: *n, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
