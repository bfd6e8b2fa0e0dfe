package layout

import (
	"math"

	"github.com/msalah0e/lombard/internal/force"
)

const (
	communityCap   = 20
	communitySplit = 10
	communityMin   = 3
)

// Communities groups nodes by breadth-first flood fill in insertion order.
// A community stops taking in neighbours once it holds communityCap members,
// so nodes already queued may still join. While there are fewer than three
// communities and one has more than ten members, the largest is cut in half.
func Communities(in Input) [][]string {
	adj := make(map[string][]string, len(in.Nodes))
	for _, e := range in.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	visited := make(map[string]bool, len(in.Nodes))
	var out [][]string
	for _, n := range in.Nodes {
		if visited[n.ID] {
			continue
		}
		var members []string
		queue := []string{n.ID}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if visited[cur] {
				continue
			}
			visited[cur] = true
			members = append(members, cur)
			if len(members) < communityCap {
				for _, nb := range adj[cur] {
					if !visited[nb] {
						queue = append(queue, nb)
					}
				}
			}
		}
		out = append(out, members)
	}

	for len(out) < communityMin {
		largest := -1
		for i, c := range out {
			if len(c) > communitySplit && (largest < 0 || len(c) > len(out[largest])) {
				largest = i
			}
		}
		if largest < 0 {
			break
		}
		c := out[largest]
		mid := len(c) / 2
		halves := [][]string{c[:mid:mid], c[mid:]}
		out = append(out[:largest], append(halves, out[largest+1:]...)...)
	}
	return out
}

type communityLayout struct{}

func (communityLayout) Name() Name { return Community }
func (communityLayout) Kind() Kind { return Physics }

func (l communityLayout) Plan(in Input) (*Plan, error) {
	groups := Communities(in)
	member := make(map[string]int, len(in.Nodes))
	for i, g := range groups {
		for _, id := range g {
			member[id] = i
		}
	}

	c := in.Canvas.Center()
	radius := in.Canvas.Min() * 0.3
	centroids := make([]force.Point, len(groups))
	for i := range groups {
		angle := float64(i) / float64(len(groups)) * 2 * math.Pi
		centroids[i] = force.Point{X: c.X + radius*math.Cos(angle), Y: c.Y + radius*math.Sin(angle)}
	}

	same := func(k *force.Link) bool { return member[k.Source.ID] == member[k.Target.ID] }

	p := newPlan(l, 1.0)
	p.Communities = groups
	p.add("link", force.NewLink(150).
		Distance(func(k *force.Link) float64 {
			if same(k) {
				return 50
			}
			return 150
		}).
		Strength(func(k *force.Link) float64 {
			if same(k) {
				return 1
			}
			return 0.3
		}))
	p.add("charge", force.NewManyBody(force.Constant(-200)))
	p.add("community", force.NewRadial(force.Constant(100), c.X, c.Y).
		Strength(force.Constant(0.5)).
		Center(func(b *force.Body) force.Point {
			if i, ok := member[b.ID]; ok {
				return centroids[i]
			}
			return c
		}))
	p.add("collide", force.NewCollide(force.Constant(25)))
	return p, nil
}
