// Package layout turns a graph into solver forces and pinned positions.
// Each named layout is a Strategy; the engine applies the Plan it returns.
package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msalah0e/lombard/internal/force"
	"github.com/msalah0e/lombard/internal/graph"
)

// Name identifies a layout strategy.
type Name string

const (
	Force        Name = "force"
	Circular     Name = "circular"
	Radial       Name = "radial"
	Hierarchical Name = "hierarchical"
	Timeline     Name = "timeline"
	Importance   Name = "importance"
	Community    Name = "community"
)

// Kind says whether a layout's positions come from physics or from pins.
type Kind int

const (
	Physics Kind = iota
	Fixed
)

func (k Kind) String() string {
	if k == Fixed {
		return "fixed"
	}
	return "physics"
}

// Canvas is the drawing area.
type Canvas struct {
	Width  float64
	Height float64
}

// Center returns the canvas midpoint.
func (c Canvas) Center() force.Point {
	return force.Point{X: c.Width / 2, Y: c.Height / 2}
}

// Min returns the shorter side.
func (c Canvas) Min() float64 {
	return min(c.Width, c.Height)
}

// Input is everything a strategy may look at.
type Input struct {
	Nodes   []graph.Node
	Edges   []graph.Edge
	Degrees map[string]int
	Canvas  Canvas
}

// NewInput builds an Input from a store.
func NewInput(s *graph.Store, c Canvas) Input {
	return Input{Nodes: s.Nodes(), Edges: s.Edges(), Degrees: s.Degrees(), Canvas: c}
}

func (in Input) degree(id string) int {
	if in.Degrees != nil {
		return in.Degrees[id]
	}
	d := 0
	for _, e := range in.Edges {
		if e.Touches(id) {
			d++
		}
	}
	return d
}

func (in Input) importance() map[string]float64 {
	out := make(map[string]float64, len(in.Nodes))
	for _, n := range in.Nodes {
		out[n.ID] = n.Importance
	}
	return out
}

// hub returns the index of the node with the highest degree. Ties go to the
// earliest node. It returns -1 for an empty graph.
func (in Input) hub() int {
	best, bestDeg := -1, -1
	for i, n := range in.Nodes {
		if d := in.degree(n.ID); d > bestDeg {
			best, bestDeg = i, d
		}
	}
	return best
}

// AxisTick labels a position on a timeline axis.
type AxisTick struct {
	X     float64
	Label string
}

// Plan is the result of a strategy: forces to install, bodies to pin and the
// heat to restart with.
type Plan struct {
	Layout      Name
	Kind        Kind
	Forces      []force.NamedForce
	Pins        map[string]force.Point
	Heat        float64
	Communities [][]string
	Axis        []AxisTick
}

func newPlan(s Strategy, heat float64) *Plan {
	return &Plan{
		Layout: s.Name(),
		Kind:   s.Kind(),
		Pins:   make(map[string]force.Point),
		Heat:   heat,
	}
}

func (p *Plan) add(name string, f force.Force) {
	p.Forces = append(p.Forces, force.NamedForce{Name: name, Force: f})
}

// Strategy computes a layout plan.
type Strategy interface {
	Name() Name
	Kind() Kind
	Plan(in Input) (*Plan, error)
}

// MissingDataError is returned when a layout needs an attribute no node has.
type MissingDataError struct {
	Layout    Name
	Attribute string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("%s layout requires %s on at least one entity", e.Layout, e.Attribute)
}

var registry = map[Name]Strategy{}

func register(s Strategy) {
	registry[s.Name()] = s
}

func init() {
	register(forceLayout{})
	register(circularLayout{})
	register(radialLayout{})
	register(hierarchicalLayout{})
	register(timelineLayout{})
	register(importanceLayout{})
	register(communityLayout{})
}

var order = []Name{Force, Circular, Radial, Hierarchical, Timeline, Importance, Community}

// Names returns every layout name in menu order.
func Names() []Name {
	return append([]Name(nil), order...)
}

// Lookup returns the strategy for name.
func Lookup(name string) (Strategy, error) {
	s, ok := registry[Name(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		names := make([]string, 0, len(registry))
		for n := range registry {
			names = append(names, string(n))
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown layout %q (available: %s)", name, strings.Join(names, ", "))
	}
	return s, nil
}

// spread returns the x of slot i out of n evenly spaced across width.
func spread(i, n int, width float64) float64 {
	return float64(i+1) * width / float64(n+1)
}
