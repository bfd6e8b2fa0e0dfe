package layout

import (
	"github.com/msalah0e/lombard/internal/force"
)

type forceLayout struct{}

func (forceLayout) Name() Name { return Force }
func (forceLayout) Kind() Kind { return Physics }

func (l forceLayout) Plan(in Input) (*Plan, error) {
	imp := in.importance()
	c := in.Canvas.Center()

	p := newPlan(l, 1.0)
	p.add("link", force.NewLink(150))
	p.add("charge", force.NewManyBody(force.Constant(-500)))
	p.add("collide", force.NewCollide(func(b *force.Body) float64 { return 30 + imp[b.ID]*20 }))
	p.add("center", force.NewCenter(c.X, c.Y))
	return p, nil
}

// importanceLayout puts important entities near the middle.
type importanceLayout struct{}

func (importanceLayout) Name() Name { return Importance }
func (importanceLayout) Kind() Kind { return Physics }

func (l importanceLayout) Plan(in Input) (*Plan, error) {
	imp := in.importance()
	c := in.Canvas.Center()

	p := newPlan(l, 1.0)
	p.add("link", force.NewLink(100).Distance(func(k *force.Link) float64 {
		return 100 - (imp[k.Source.ID]+imp[k.Target.ID])/2*50
	}))
	p.add("charge", force.NewManyBody(func(b *force.Body) float64 { return -300 * (1 + imp[b.ID]) }))
	p.add("center", force.NewCenter(c.X, c.Y))
	p.add("radial", force.NewRadial(func(b *force.Body) float64 { return 200 - imp[b.ID]*150 }, c.X, c.Y).
		Strength(force.Constant(0.3)))
	p.add("collide", force.NewCollide(func(b *force.Body) float64 { return 20 + imp[b.ID]*30 }))
	return p, nil
}
