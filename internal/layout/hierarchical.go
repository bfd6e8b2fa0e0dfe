package layout

import (
	"sort"

	"github.com/msalah0e/lombard/internal/force"
)

type hierarchicalLayout struct{}

func (hierarchicalLayout) Name() Name { return Hierarchical }
func (hierarchicalLayout) Kind() Kind { return Fixed }

const levelHeight = 150.0

// Levels assigns BFS depths from the best-connected node over the undirected
// graph. Nodes the search never reaches are returned separately.
func Levels(in Input) (levels [][]string, unreached []string) {
	root := in.hub()
	if root < 0 {
		return nil, nil
	}

	adj := make(map[string][]string, len(in.Nodes))
	for _, e := range in.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	// Neighbours are visited in node insertion order
	rank := make(map[string]int, len(in.Nodes))
	for i, n := range in.Nodes {
		rank[n.ID] = i
	}

	depth := map[string]int{in.Nodes[root].ID: 0}
	queue := []string{in.Nodes[root].ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := depth[cur]
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], cur)

		next := sortByRank(adj[cur], rank)
		for _, nb := range next {
			if _, seen := depth[nb]; seen {
				continue
			}
			depth[nb] = d + 1
			queue = append(queue, nb)
		}
	}

	for _, n := range in.Nodes {
		if _, ok := depth[n.ID]; !ok {
			unreached = append(unreached, n.ID)
		}
	}
	return levels, unreached
}

func sortByRank(ids []string, rank map[string]int) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}

func (l hierarchicalLayout) Plan(in Input) (*Plan, error) {
	p := newPlan(l, 0.3)
	p.add("link", force.NewLink(150))
	p.add("collide", force.NewCollide(force.Constant(30)))

	levels, unreached := Levels(in)
	if len(unreached) > 0 {
		levels = append(levels, unreached)
	}
	if len(levels) == 0 {
		return p, nil
	}

	top := in.Canvas.Height/2 - float64(len(levels)-1)*levelHeight/2
	for depth, band := range levels {
		y := top + float64(depth)*levelHeight
		for i, id := range band {
			p.Pins[id] = force.Point{X: spread(i, len(band), in.Canvas.Width), Y: y}
		}
	}
	return p, nil
}
