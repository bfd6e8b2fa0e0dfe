// Package force is a velocity-Verlet style force simulation with an
// exponentially cooling alpha. Forces are applied in order on every tick.
package force

import (
	"math"
	"math/rand/v2"
)

// Defaults for the cooling schedule. AlphaDecay takes roughly 300 ticks to
// cool from 1 to AlphaMin.
var (
	DefaultAlphaMin      = 0.001
	DefaultAlphaDecay    = 1 - math.Pow(0.001, 1.0/300)
	DefaultVelocityDecay = 0.4
)

const (
	initialRadius = 10.0
	jiggleSize    = 1e-6
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Body is a simulated point. Position and velocity are owned by the
// simulation; callers read them through Position or a Frame.
type Body struct {
	ID    string
	Index int
	X, Y  float64
	VX    float64
	VY    float64

	pinned     bool
	pinX, pinY float64
}

// Pinned reports whether the body is held at a fixed point.
func (b *Body) Pinned() bool {
	return b.pinned
}

// Link is a resolved edge between two bodies.
type Link struct {
	Source *Body
	Target *Body
	Index  int
}

// NodeSpec describes a body the simulation should hold.
type NodeSpec struct {
	ID string
}

// LinkSpec describes a link by body ids.
type LinkSpec struct {
	Source string
	Target string
}

// Jiggle returns a tiny random offset used to separate coincident bodies.
type Jiggle func() float64

// Force is a single physical effect.
type Force interface {
	// Init is called whenever the body or link set changes.
	Init(bodies []*Body, links []*Link, jiggle Jiggle)
	// Apply adjusts velocities for the given alpha.
	Apply(alpha float64)
}

// NamedForce is an entry in an ordered force set.
type NamedForce struct {
	Name  string
	Force Force
}

// Options configures a Simulation. Zero values take the defaults.
type Options struct {
	AlphaMin      float64
	AlphaDecay    float64
	VelocityDecay float64
	Seed          uint64
	CenterX       float64
	CenterY       float64
}

// Simulation holds bodies, links and the active forces.
type Simulation struct {
	bodies []*Body
	byID   map[string]*Body
	links  []*Link
	forces []NamedForce

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64
	running       bool

	cx, cy float64
	rng    *rand.Rand
}

// New creates an empty, stopped simulation.
func New(opts Options) *Simulation {
	s := &Simulation{
		byID:          make(map[string]*Body),
		alpha:         1,
		alphaMin:      orDefault(opts.AlphaMin, DefaultAlphaMin),
		alphaDecay:    orDefault(opts.AlphaDecay, DefaultAlphaDecay),
		velocityDecay: orDefault(opts.VelocityDecay, DefaultVelocityDecay),
		cx:            opts.CenterX,
		cy:            opts.CenterY,
		rng:           rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
	return s
}

func orDefault(v, def float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return def
	}
	return v
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * jiggleSize
}

// SetCenter sets the point new bodies are seeded around.
func (s *Simulation) SetCenter(x, y float64) {
	s.cx, s.cy = x, y
}

// Sync reconciles the body and link sets with the given specs. Surviving
// bodies keep their positions, velocities and pins; new bodies are placed on
// a phyllotaxis spiral around the centre. Links with a missing endpoint are
// ignored. Forces are re-initialised.
func (s *Simulation) Sync(nodes []NodeSpec, links []LinkSpec) {
	bodies := make([]*Body, 0, len(nodes))
	byID := make(map[string]*Body, len(nodes))
	for i, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			continue
		}
		b, ok := s.byID[n.ID]
		if !ok {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			b = &Body{
				ID: n.ID,
				X:  s.cx + radius*math.Cos(angle),
				Y:  s.cy + radius*math.Sin(angle),
			}
		}
		b.Index = len(bodies)
		bodies = append(bodies, b)
		byID[n.ID] = b
	}

	resolved := make([]*Link, 0, len(links))
	for _, l := range links {
		src, ok1 := byID[l.Source]
		tgt, ok2 := byID[l.Target]
		if !ok1 || !ok2 || src == tgt {
			continue
		}
		resolved = append(resolved, &Link{Source: src, Target: tgt, Index: len(resolved)})
	}

	s.bodies = bodies
	s.byID = byID
	s.links = resolved
	s.initForces()
}

// Configure replaces the active force set. Positions are untouched.
func (s *Simulation) Configure(forces []NamedForce) {
	s.forces = append([]NamedForce(nil), forces...)
	s.initForces()
}

func (s *Simulation) initForces() {
	for _, f := range s.forces {
		f.Force.Init(s.bodies, s.links, s.jiggle)
	}
}

// Forces returns the names of the active forces in application order.
func (s *Simulation) Forces() []string {
	out := make([]string, len(s.forces))
	for i, f := range s.forces {
		out[i] = f.Name
	}
	return out
}

// Restart sets alpha to heat and resumes ticking.
func (s *Simulation) Restart(heat float64) {
	s.alpha = heat
	s.running = true
}

// Resume restarts ticking without changing alpha.
func (s *Simulation) Resume() {
	s.running = true
}

// Stop halts ticking and drops alpha to zero, cancelling any reheat in
// flight. Positions stay where they are. A later Resume only ticks again if
// the alpha target is set.
func (s *Simulation) Stop() {
	s.running = false
	s.alpha = 0
}

// SetAlphaTarget sets the value alpha decays towards.
func (s *Simulation) SetAlphaTarget(t float64) {
	s.alphaTarget = t
}

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// AlphaTarget returns the value alpha decays towards.
func (s *Simulation) AlphaTarget() float64 {
	return s.alphaTarget
}

// Active reports whether the next Tick will move bodies.
func (s *Simulation) Active() bool {
	return s.running && (s.alpha >= s.alphaMin || s.alphaTarget >= s.alphaMin)
}

// Tick advances the simulation one step. It returns false, and does nothing,
// when the simulation is stopped or has cooled below AlphaMin.
func (s *Simulation) Tick() bool {
	if !s.running {
		return false
	}
	if s.alpha < s.alphaMin && s.alphaTarget < s.alphaMin {
		s.running = false
		return false
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, f := range s.forces {
		f.Force.Apply(s.alpha)
	}

	keep := 1 - s.velocityDecay
	for _, b := range s.bodies {
		if b.pinned {
			b.X, b.Y = b.pinX, b.pinY
			b.VX, b.VY = 0, 0
			continue
		}
		b.VX *= keep
		b.VY *= keep
		b.X += b.VX
		b.Y += b.VY
	}
	return true
}

// Settle ticks until the simulation cools or max ticks have run, and
// returns the number of ticks taken.
func (s *Simulation) Settle(max int) int {
	n := 0
	for n < max && s.Tick() {
		n++
	}
	return n
}

// Pin holds a body at (x, y). The body is moved there immediately.
func (s *Simulation) Pin(id string, x, y float64) bool {
	b, ok := s.byID[id]
	if !ok {
		return false
	}
	b.pinned = true
	b.pinX, b.pinY = x, y
	b.X, b.Y = x, y
	b.VX, b.VY = 0, 0
	return true
}

// Unpin releases a body.
func (s *Simulation) Unpin(id string) bool {
	b, ok := s.byID[id]
	if !ok {
		return false
	}
	b.pinned = false
	return true
}

// ClearPins releases every body.
func (s *Simulation) ClearPins() {
	for _, b := range s.bodies {
		b.pinned = false
	}
}

// Position returns the position of a body.
func (s *Simulation) Position(id string) (x, y float64, ok bool) {
	b, ok := s.byID[id]
	if !ok {
		return 0, 0, false
	}
	return b.X, b.Y, true
}

// Body returns the body with the given id.
func (s *Simulation) Body(id string) (*Body, bool) {
	b, ok := s.byID[id]
	return b, ok
}

// Bodies returns the bodies in sync order.
func (s *Simulation) Bodies() []*Body {
	return s.bodies
}

// Links returns the resolved links.
func (s *Simulation) Links() []*Link {
	return s.links
}
