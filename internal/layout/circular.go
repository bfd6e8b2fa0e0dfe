package layout

import (
	"math"

	"github.com/msalah0e/lombard/internal/force"
)

type circularLayout struct{}

func (circularLayout) Name() Name { return Circular }
func (circularLayout) Kind() Kind { return Fixed }

func (l circularLayout) Plan(in Input) (*Plan, error) {
	c := in.Canvas.Center()
	radius := in.Canvas.Min() * 0.4
	n := len(in.Nodes)

	p := newPlan(l, 0.3)
	for i, node := range in.Nodes {
		angle := float64(i) * 2 * math.Pi / float64(n)
		p.Pins[node.ID] = force.Point{
			X: c.X + radius*math.Cos(angle),
			Y: c.Y + radius*math.Sin(angle),
		}
	}
	p.add("link", force.NewLink(150))
	p.add("collide", force.NewCollide(force.Constant(30)))
	return p, nil
}

// radialLayout places the best-connected entity in the middle and the rest
// on rings by degree.
type radialLayout struct{}

func (radialLayout) Name() Name { return Radial }
func (radialLayout) Kind() Kind { return Fixed }

const ringSpacing = 150.0

func ringOf(degree int) int {
	switch {
	case degree > 5:
		return 0
	case degree > 2:
		return 1
	}
	return 2
}

func (l radialLayout) Plan(in Input) (*Plan, error) {
	p := newPlan(l, 0.3)
	p.add("link", force.NewLink(100))
	p.add("charge", force.NewManyBody(force.Constant(-100)))
	p.add("collide", force.NewCollide(force.Constant(30)))

	hub := in.hub()
	if hub < 0 {
		return p, nil
	}
	c := in.Canvas.Center()
	p.Pins[in.Nodes[hub].ID] = c

	var rings [3][]string
	for i, node := range in.Nodes {
		if i == hub {
			continue
		}
		k := ringOf(in.degree(node.ID))
		rings[k] = append(rings[k], node.ID)
	}

	for k, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		radius := float64(k+1) * ringSpacing
		step := 2 * math.Pi / float64(len(ring))
		for i, id := range ring {
			angle := float64(i) * step
			p.Pins[id] = force.Point{
				X: c.X + radius*math.Cos(angle),
				Y: c.Y + radius*math.Sin(angle),
			}
		}
	}
	return p, nil
}
