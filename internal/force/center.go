package force

// CenterForce translates all bodies so their mean position sits on a point.
// It does not change velocities.
type CenterForce struct {
	X, Y     float64
	strength float64
	bodies   []*Body
}

// NewCenter creates a centering force at (x, y).
func NewCenter(x, y float64) *CenterForce {
	return &CenterForce{X: x, Y: y, strength: 1}
}

// Strength sets the fraction of the offset removed each tick.
func (f *CenterForce) Strength(s float64) *CenterForce {
	f.strength = s
	return f
}

func (f *CenterForce) Init(bodies []*Body, _ []*Link, _ Jiggle) {
	f.bodies = bodies
}

func (f *CenterForce) Apply(float64) {
	n := len(f.bodies)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, b := range f.bodies {
		sx += b.X
		sy += b.Y
	}
	sx = (sx/float64(n) - f.X) * f.strength
	sy = (sy/float64(n) - f.Y) * f.strength
	for _, b := range f.bodies {
		b.X -= sx
		b.Y -= sy
	}
}
