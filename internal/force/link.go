package force

import "math"

// LinkAccessor returns a per-link value.
type LinkAccessor func(l *Link) float64

// LinkForce pulls linked bodies towards a target distance.
type LinkForce struct {
	distance LinkAccessor
	strength LinkAccessor

	links     []*Link
	distances []float64
	strengths []float64
	bias      []float64
	jiggle    Jiggle
}

// NewLink creates a link force with a constant distance and the default
// strength of 1/min(degree(source), degree(target)).
func NewLink(distance float64) *LinkForce {
	return &LinkForce{distance: func(*Link) float64 { return distance }}
}

// Distance sets a per-link target distance.
func (f *LinkForce) Distance(fn LinkAccessor) *LinkForce {
	f.distance = fn
	return f
}

// Strength sets a per-link strength.
func (f *LinkForce) Strength(fn LinkAccessor) *LinkForce {
	f.strength = fn
	return f
}

func (f *LinkForce) Init(bodies []*Body, links []*Link, jiggle Jiggle) {
	f.links = links
	f.jiggle = jiggle

	count := make([]int, len(bodies))
	for _, l := range links {
		count[l.Source.Index]++
		count[l.Target.Index]++
	}

	f.bias = make([]float64, len(links))
	f.distances = make([]float64, len(links))
	f.strengths = make([]float64, len(links))
	for i, l := range links {
		cs, ct := float64(count[l.Source.Index]), float64(count[l.Target.Index])
		f.bias[i] = cs / (cs + ct)
		if f.distance != nil {
			f.distances[i] = f.distance(l)
		} else {
			f.distances[i] = 30
		}
		if f.strength != nil {
			f.strengths[i] = f.strength(l)
		} else {
			f.strengths[i] = 1 / math.Min(cs, ct)
		}
	}
}

func (f *LinkForce) Apply(alpha float64) {
	for i, l := range f.links {
		src, tgt := l.Source, l.Target
		x := tgt.X + tgt.VX - src.X - src.VX
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if x == 0 {
			x = f.jiggle()
		}
		if y == 0 {
			y = f.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - f.distances[i]) / d * alpha * f.strengths[i]
		x *= k
		y *= k
		b := f.bias[i]
		tgt.VX -= x * b
		tgt.VY -= y * b
		src.VX += x * (1 - b)
		src.VY += y * (1 - b)
	}
}
