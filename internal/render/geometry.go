// Package render projects solver state into drawable geometry: curved edge
// paths, arrowheads, node circles and labels.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/msalah0e/lombard/internal/graph"
)

// Point is a 2D coordinate in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

const epsilon = 1e-9

// Path is an edge drawn either as a straight segment or as an SVG arc with
// large-arc 0 and sweep 1.
type Path struct {
	From Point
	To   Point
	Arc  bool
	// R is the requested arc radius. The drawn radius is never smaller than
	// half the chord.
	R float64

	center     Point
	radius     float64
	start, end float64
}

// EdgePath builds the path for an edge. Former relationships are straight;
// the rest are arcs whose radius is the chord length times curvature.
func EdgePath(src, tgt Point, status graph.Status, curvature float64) Path {
	if !status.Curved() {
		return Line(src, tgt)
	}
	return Arc(src, tgt, src.dist(tgt)*curvature)
}

// Line builds a straight path.
func Line(src, tgt Point) Path {
	return Path{From: src, To: tgt}
}

// Arc builds an arc path with radius r. A zero radius or coincident
// endpoints give a straight path.
func Arc(src, tgt Point, r float64) Path {
	r = math.Abs(r)
	chord := src.dist(tgt)
	if r < epsilon || chord < epsilon || math.IsNaN(r) || math.IsInf(r, 0) {
		return Line(src, tgt)
	}
	p := Path{From: src, To: tgt, Arc: true, R: r}
	p.radius = max(r, chord/2)

	// Endpoint to centre parameterisation with no rotation. Large-arc and
	// sweep differ, so the centre takes the positive root.
	x1p := (src.X - tgt.X) / 2
	y1p := (src.Y - tgt.Y) / 2
	r2 := p.radius * p.radius
	num := r2*r2 - r2*y1p*y1p - r2*x1p*x1p
	den := r2*y1p*y1p + r2*x1p*x1p
	coef := math.Sqrt(max(0, num/den))
	cxp := coef * y1p
	cyp := -coef * x1p
	p.center = Point{cxp + (src.X+tgt.X)/2, cyp + (src.Y+tgt.Y)/2}

	p.start = math.Atan2(src.Y-p.center.Y, src.X-p.center.X)
	p.end = math.Atan2(tgt.Y-p.center.Y, tgt.X-p.center.X)
	if p.end < p.start {
		p.end += 2 * math.Pi
	}
	return p
}

// Radius returns the drawn arc radius, or 0 for a straight path.
func (p Path) Radius() float64 {
	return p.radius
}

// ArcCenter returns the centre of the circle the arc lies on.
func (p Path) ArcCenter() Point {
	return p.center
}

// Length returns the length of the drawn path.
func (p Path) Length() float64 {
	if !p.Arc {
		return p.From.dist(p.To)
	}
	return p.radius * (p.end - p.start)
}

// PointAt returns the point at fraction t in [0,1] along the path.
func (p Path) PointAt(t float64) Point {
	if !p.Arc {
		return Point{
			X: p.From.X + (p.To.X-p.From.X)*t,
			Y: p.From.Y + (p.To.Y-p.From.Y)*t,
		}
	}
	return p.pointAtAngle(p.start + (p.end-p.start)*t)
}

func (p Path) pointAtAngle(theta float64) Point {
	return Point{
		X: p.center.X + p.radius*math.Cos(theta),
		Y: p.center.Y + p.radius*math.Sin(theta),
	}
}

// Center returns the midpoint along the path.
func (p Path) Center() Point {
	return p.PointAt(0.5)
}

// TangentAngleAt returns the direction of travel, in radians, at fraction t.
func (p Path) TangentAngleAt(t float64) float64 {
	if !p.Arc {
		d := p.To.sub(p.From)
		return math.Atan2(d.Y, d.X)
	}
	return tangentAtAngle(p.start + (p.end-p.start)*t)
}

func tangentAtAngle(theta float64) float64 {
	return math.Atan2(math.Cos(theta), -math.Sin(theta))
}

// ArrowAngle returns the direction of travel at the target end.
func (p Path) ArrowAngle() float64 {
	return p.TangentAngleAt(1)
}

// D returns the SVG path data.
func (p Path) D() string {
	if !p.Arc {
		return fmt.Sprintf("M%s,%s L%s,%s", num(p.From.X), num(p.From.Y), num(p.To.X), num(p.To.Y))
	}
	r := num(p.R)
	return fmt.Sprintf("M%s,%s A%s,%s 0 0,1 %s,%s", num(p.From.X), num(p.From.Y), r, r, num(p.To.X), num(p.To.Y))
}

func (p Path) String() string {
	return p.D()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// ParsePath reads path data written by D.
func ParsePath(d string) (Path, error) {
	fields := strings.Fields(strings.NewReplacer(",", " ", "M", " M ", "L", " L ", "A", " A ").Replace(d))
	nums := func(ss []string) ([]float64, error) {
		out := make([]float64, len(ss))
		for i, s := range ss {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse path %q: %w", d, err)
			}
			out[i] = f
		}
		return out, nil
	}

	switch {
	case len(fields) == 6 && fields[0] == "M" && fields[3] == "L":
		v, err := nums([]string{fields[1], fields[2], fields[4], fields[5]})
		if err != nil {
			return Path{}, err
		}
		return Line(Point{v[0], v[1]}, Point{v[2], v[3]}), nil
	case len(fields) == 11 && fields[0] == "M" && fields[3] == "A":
		v, err := nums(append([]string{fields[1], fields[2], fields[4]}, fields[9:]...))
		if err != nil {
			return Path{}, err
		}
		if fields[6] != "0" || fields[7] != "0" || fields[8] != "1" {
			return Path{}, fmt.Errorf("parse path %q: unsupported arc flags", d)
		}
		return Arc(Point{v[0], v[1]}, Point{v[3], v[4]}, v[2]), nil
	}
	return Path{}, fmt.Errorf("parse path %q: unsupported form", d)
}

// Arrowhead returns the three corners of an arrow whose tip sits where the
// path meets a target circle of radius targetRadius.
func Arrowhead(p Path, targetRadius, size float64) [3]Point {
	var tip Point
	var angle float64
	length := p.Length()
	switch {
	case length < epsilon:
		tip, angle = p.To, 0
	case p.Arc:
		theta := max(p.end-targetRadius/p.radius, p.start)
		tip, angle = p.pointAtAngle(theta), tangentAtAngle(theta)
	default:
		t := max(1-targetRadius/length, 0)
		tip, angle = p.PointAt(t), p.TangentAngleAt(t)
	}

	left := angle - math.Pi/6
	right := angle + math.Pi/6
	return [3]Point{
		tip,
		{tip.X - size*math.Cos(left), tip.Y - size*math.Sin(left)},
		{tip.X - size*math.Cos(right), tip.Y - size*math.Sin(right)},
	}
}
