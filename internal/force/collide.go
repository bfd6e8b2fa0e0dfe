package force

import "math"

// CollideForce keeps bodies from overlapping, treating each as a circle.
type CollideForce struct {
	radius   BodyAccessor
	strength float64

	bodies []*Body
	radii  []float64
	jiggle Jiggle
}

// NewCollide creates a collision force with per-body radius and strength 1.
func NewCollide(radius BodyAccessor) *CollideForce {
	return &CollideForce{radius: radius, strength: 1}
}

// Strength sets how hard overlapping bodies are pushed apart, in [0,1].
func (f *CollideForce) Strength(s float64) *CollideForce {
	f.strength = s
	return f
}

func (f *CollideForce) Init(bodies []*Body, _ []*Link, jiggle Jiggle) {
	f.bodies = bodies
	f.jiggle = jiggle
	f.radii = make([]float64, len(bodies))
	for i, b := range bodies {
		f.radii[i] = f.radius(b)
	}
}

func (f *CollideForce) Apply(float64) {
	for i, bi := range f.bodies {
		ri := f.radii[i]
		ri2 := ri * ri
		xi := bi.X + bi.VX
		yi := bi.Y + bi.VY
		for j := i + 1; j < len(f.bodies); j++ {
			bj := f.bodies[j]
			rj := f.radii[j]
			r := ri + rj
			x := xi - bj.X - bj.VX
			y := yi - bj.Y - bj.VY
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = f.jiggle()
				l += x * x
			}
			if y == 0 {
				y = f.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			k := (r - l) / l * f.strength
			x *= k
			y *= k
			rj2 := rj * rj
			share := rj2 / (ri2 + rj2)
			bi.VX += x * share
			bi.VY += y * share
			bj.VX -= x * (1 - share)
			bj.VY -= y * (1 - share)
		}
	}
}
