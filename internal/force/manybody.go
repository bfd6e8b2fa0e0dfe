package force

import "math"

// BodyAccessor returns a per-body value.
type BodyAccessor func(b *Body) float64

// Constant returns an accessor that always yields v.
func Constant(v float64) BodyAccessor {
	return func(*Body) float64 { return v }
}

const distanceMin2 = 1.0

// ManyBodyForce is an exact pairwise charge. Negative strength repels.
type ManyBodyForce struct {
	strength  BodyAccessor
	bodies    []*Body
	strengths []float64
	jiggle    Jiggle
}

// NewManyBody creates a many-body force with per-body strength.
func NewManyBody(strength BodyAccessor) *ManyBodyForce {
	return &ManyBodyForce{strength: strength}
}

func (f *ManyBodyForce) Init(bodies []*Body, _ []*Link, jiggle Jiggle) {
	f.bodies = bodies
	f.jiggle = jiggle
	f.strengths = make([]float64, len(bodies))
	for i, b := range bodies {
		f.strengths[i] = f.strength(b)
	}
}

func (f *ManyBodyForce) Apply(alpha float64) {
	for _, bi := range f.bodies {
		for j, bj := range f.bodies {
			if bi == bj {
				continue
			}
			x := bj.X - bi.X
			y := bj.Y - bi.Y
			l := x*x + y*y
			if x == 0 {
				x = f.jiggle()
				l += x * x
			}
			if y == 0 {
				y = f.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			w := f.strengths[j] * alpha / l
			bi.VX += x * w
			bi.VY += y * w
		}
	}
}
