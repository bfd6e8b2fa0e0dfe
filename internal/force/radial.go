package force

import "math"

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// RadialForce pulls each body towards a circle of given radius around its
// own centre.
type RadialForce struct {
	radius   BodyAccessor
	strength BodyAccessor
	center   func(b *Body) Point

	bodies    []*Body
	radii     []float64
	strengths []float64
	centers   []Point
}

// NewRadial creates a radial force around a single point.
func NewRadial(radius BodyAccessor, x, y float64) *RadialForce {
	c := Point{X: x, Y: y}
	return &RadialForce{
		radius:   radius,
		strength: Constant(0.1),
		center:   func(*Body) Point { return c },
	}
}

// Strength sets a per-body strength.
func (f *RadialForce) Strength(fn BodyAccessor) *RadialForce {
	f.strength = fn
	return f
}

// Center sets a per-body centre.
func (f *RadialForce) Center(fn func(b *Body) Point) *RadialForce {
	f.center = fn
	return f
}

func (f *RadialForce) Init(bodies []*Body, _ []*Link, _ Jiggle) {
	f.bodies = bodies
	f.radii = make([]float64, len(bodies))
	f.strengths = make([]float64, len(bodies))
	f.centers = make([]Point, len(bodies))
	for i, b := range bodies {
		f.radii[i] = f.radius(b)
		f.strengths[i] = f.strength(b)
		f.centers[i] = f.center(b)
	}
}

func (f *RadialForce) Apply(alpha float64) {
	for i, b := range f.bodies {
		dx := b.X - f.centers[i].X
		dy := b.Y - f.centers[i].Y
		if dx == 0 {
			dx = jiggleSize
		}
		if dy == 0 {
			dy = jiggleSize
		}
		r := math.Sqrt(dx*dx + dy*dy)
		k := (f.radii[i] - r) * f.strengths[i] * alpha / r
		b.VX += dx * k
		b.VY += dy * k
	}
}
