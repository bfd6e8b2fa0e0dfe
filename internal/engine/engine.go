// Package engine is the single context object of a network: it owns the
// graph store, the force simulation, the active layout and the highlight
// state, and serialises every mutation and tick behind one mutex.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/msalah0e/lombard/internal/force"
	"github.com/msalah0e/lombard/internal/graph"
	"github.com/msalah0e/lombard/internal/layout"
	"github.com/msalah0e/lombard/internal/logger"
	"github.com/msalah0e/lombard/internal/render"
)

// Heat levels used to restart the solver.
const (
	IncrementalHeat = 0.3
	BulkHeat        = 1.0
	DragAlphaTarget = 0.3
)

// MaxHistory bounds the undo history.
const MaxHistory = 50

// Options configures a new Engine. Zero values take the defaults.
type Options struct {
	Width     float64
	Height    float64
	Curvature float64
	ShowDates bool
	Layout    string
	Solver    force.Options
	Store     *graph.Store
}

// DefaultOptions returns the standard canvas and drawing settings.
func DefaultOptions() Options {
	return Options{
		Width:     960,
		Height:    640,
		Curvature: 1.0,
		Layout:    string(layout.Force),
	}
}

// Engine is safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	store    *graph.Store
	sim      *force.Simulation
	strategy layout.Strategy
	plan     *layout.Plan

	canvas    layout.Canvas
	curvature float64
	showDates bool
	highlight render.Highlight
	dragging  string

	dirty bool
	bulk  bool
	ops   int

	undo []graph.Snapshot
	redo []graph.Snapshot

	frame render.Frame
	wake  chan struct{}
}

// New builds an engine around opts.Store, or an empty store.
func New(opts Options) (*Engine, error) {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Curvature < 0 {
		return nil, fmt.Errorf("curvature must not be negative: %v", opts.Curvature)
	}
	if opts.Layout == "" {
		opts.Layout = def.Layout
	}
	if opts.Store == nil {
		opts.Store = graph.New()
	}

	strategy, err := layout.Lookup(opts.Layout)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:     opts.Store,
		strategy:  strategy,
		canvas:    layout.Canvas{Width: opts.Width, Height: opts.Height},
		curvature: opts.Curvature,
		showDates: opts.ShowDates,
		wake:      make(chan struct{}, 1),
	}
	solver := opts.Solver
	solver.CenterX, solver.CenterY = opts.Width/2, opts.Height/2
	e.sim = force.New(solver)
	e.store.Subscribe(e.observe)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.resync()
	if err := e.replan(); err != nil {
		logger.Warn("layout does not apply yet, starting with force", "layout", strategy.Name(), "error", err)
		e.strategy, _ = layout.Lookup(string(layout.Force))
		e.replan()
	}
	e.sim.Restart(BulkHeat)
	e.rebuildFrame()
	return e, nil
}

// observe is the store subscription. It only records that the solver view
// is stale; the owning operation settles it.
func (e *Engine) observe(ev graph.Event) {
	e.dirty = true
	if ev.Kind.Bulk() {
		e.bulk = true
	}
	if ev.Kind == graph.NodeRemoved {
		e.highlight.Forget(ev.NodeID)
		if e.dragging == ev.NodeID {
			e.dragging = ""
		}
	}
}

// settle brings the solver in line with the store after a mutation and
// restarts it. It must be called with mu held.
func (e *Engine) settle() {
	defer func() { e.dirty, e.bulk, e.ops = false, false, 0 }()
	if !e.dirty {
		return
	}
	heat := IncrementalHeat
	if e.bulk || e.ops > 1 {
		heat = BulkHeat
	}

	e.resync()
	if err := e.replan(); err != nil {
		logger.Warn("layout no longer applies, falling back", "layout", e.strategy.Name(), "fallback", layout.Force, "error", err)
		e.strategy, _ = layout.Lookup(string(layout.Force))
		e.replan()
	}
	e.sim.Restart(heat)
	e.rebuildFrame()
	e.signal()
}

func (e *Engine) resync() {
	nodes := e.store.Nodes()
	specs := make([]force.NodeSpec, len(nodes))
	for i, n := range nodes {
		specs[i] = force.NodeSpec{ID: n.ID}
	}
	edges := e.store.Edges()
	links := make([]force.LinkSpec, len(edges))
	for i, ed := range edges {
		links[i] = force.LinkSpec{Source: ed.Source, Target: ed.Target}
	}
	e.sim.Sync(specs, links)
}

// replan computes the active strategy's plan and installs it: stop, clear
// pins, apply pins and forces. Nothing changes if the plan fails.
func (e *Engine) replan() error {
	plan, err := e.strategy.Plan(layout.NewInput(e.store, e.canvas))
	if err != nil {
		return err
	}
	e.apply(plan)
	return nil
}

func (e *Engine) apply(plan *layout.Plan) {
	var dragX, dragY float64
	if e.dragging != "" {
		dragX, dragY, _ = e.sim.Position(e.dragging)
	}

	e.sim.Stop()
	e.sim.ClearPins()
	e.sim.Configure(plan.Forces)
	for id, pt := range plan.Pins {
		e.sim.Pin(id, pt.X, pt.Y)
	}
	if e.dragging != "" {
		e.sim.Pin(e.dragging, dragX, dragY)
	}
	e.plan = plan
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) rebuildFrame() {
	bodies := e.sim.Bodies()
	positions := make(map[string]render.Point, len(bodies))
	pinned := make(map[string]bool)
	for _, b := range bodies {
		positions[b.ID] = render.Point{X: b.X, Y: b.Y}
		if b.Pinned() {
			pinned[b.ID] = true
		}
	}

	meta := e.store.Meta()
	scene := render.Scene{
		Width:       e.canvas.Width,
		Height:      e.canvas.Height,
		Title:       meta.Title,
		Description: meta.Description,
		Nodes:       e.store.Nodes(),
		Edges:       e.store.Edges(),
		Positions:   positions,
		Pinned:      pinned,
		Curvature:   e.curvature,
		ShowDates:   e.showDates,
		Layout:      string(e.strategy.Name()),
		Alpha:       e.sim.Alpha(),
		Highlight:   &e.highlight,
	}
	if e.plan != nil {
		scene.Communities = e.plan.Communities
		for _, t := range e.plan.Axis {
			scene.Axis = append(scene.Axis, render.AxisTick{X: t.X, Label: t.Label})
		}
	}
	e.frame = render.BuildFrame(scene)
}

// ─── Mutations ───

func (e *Engine) mutate(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.store.Export()
	e.ops++
	fn()
	e.remember(before)
	e.settle()
}

// remember pushes before onto the undo history if the store changed since
// it was taken. A new change drops the redo history.
func (e *Engine) remember(before graph.Snapshot) {
	m := e.store.Meta()
	if !e.dirty && m.Title == before.Title && m.Description == before.Description {
		return
	}
	e.pushUndo(before)
	e.redo = nil
}

func (e *Engine) pushUndo(snap graph.Snapshot) {
	e.undo = append(e.undo, snap)
	if len(e.undo) > MaxHistory {
		e.undo = e.undo[len(e.undo)-MaxHistory:]
	}
}

// AddNode adds an entity and restarts the solver gently.
func (e *Engine) AddNode(in graph.NodeInput) (n graph.Node, err error) {
	e.mutate(func() { n, err = e.store.AddNode(in) })
	return n, err
}

// AddEdge adds a relationship and restarts the solver gently.
func (e *Engine) AddEdge(in graph.EdgeInput) (ed graph.Edge, err error) {
	e.mutate(func() { ed, err = e.store.AddEdge(in) })
	return ed, err
}

// RemoveNode removes an entity and its relationships.
func (e *Engine) RemoveNode(id string) (ok bool) {
	e.mutate(func() { ok = e.store.RemoveNode(id) })
	return ok
}

// RemoveEdge removes the first relationship matching fn.
func (e *Engine) RemoveEdge(match func(graph.Edge) bool) (ok bool) {
	e.mutate(func() { ok = e.store.RemoveEdge(match) })
	return ok
}

// RemoveEdgeAt removes the relationship at index i of Edges.
func (e *Engine) RemoveEdgeAt(i int) (ok bool) {
	e.mutate(func() { ok = e.store.RemoveEdgeAt(i) })
	return ok
}

// RemoveEdgeBetween removes the relationship between a and b.
func (e *Engine) RemoveEdgeBetween(a, b string) (ok bool) {
	e.mutate(func() { ok = e.store.RemoveEdgeBetween(a, b) })
	return ok
}

// Clear empties the network.
func (e *Engine) Clear() {
	e.mutate(func() { e.store.Clear() })
}

// Load replaces the network with a snapshot.
func (e *Engine) Load(snap graph.Snapshot) (rep graph.LoadReport, err error) {
	e.mutate(func() { rep, err = e.store.Load(snap) })
	return rep, err
}

// LoadJSON parses and loads a snapshot.
func (e *Engine) LoadJSON(data []byte) (rep graph.LoadReport, err error) {
	e.mutate(func() { rep, err = e.store.LoadJSON(data) })
	return rep, err
}

// Restore replaces the network with an earlier snapshot of it. Unlike Load
// it keeps ids stable; see graph.Store.Restore. It can itself be undone.
func (e *Engine) Restore(snap graph.Snapshot) (rep graph.LoadReport, err error) {
	e.mutate(func() { rep, err = e.store.Restore(snap) })
	return rep, err
}

// SetMeta sets the network title and description.
func (e *Engine) SetMeta(m graph.Meta) {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.store.Export()
	e.store.SetMeta(m)
	e.remember(before)
	e.rebuildFrame()
}

// Batch runs several mutations under one lock. The solver restarts once,
// with full heat if more than one mutation happened.
func (e *Engine) Batch(fn func(tx *Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.store.Export()
	tx := &Tx{e: e}
	err := fn(tx)
	tx.done = true
	e.remember(before)
	e.settle()
	return err
}

// ─── History ───

// Undo puts the network back as it was before the last change and returns
// false if there is nothing to undo.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.undo) == 0 {
		return false
	}
	prev := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, e.store.Export())
	e.store.Restore(prev)
	e.settle()
	return true
}

// Redo reapplies the last undone change and returns false if there is
// nothing to redo.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.redo) == 0 {
		return false
	}
	next := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.pushUndo(e.store.Export())
	e.store.Restore(next)
	e.settle()
	return true
}

// History returns how many steps can be undone and redone.
func (e *Engine) History() (undo, redo int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo), len(e.redo)
}

// LastChange returns the network as it was before the most recent change.
func (e *Engine) LastChange() (graph.Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.undo) == 0 {
		return graph.Snapshot{}, false
	}
	return e.undo[len(e.undo)-1], true
}

// ─── Layout and display ───

// SetLayout switches to the named layout. If the layout cannot be planned
// the current layout stays in place and the error is returned.
func (e *Engine) SetLayout(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	strategy, err := layout.Lookup(name)
	if err != nil {
		return err
	}
	plan, err := strategy.Plan(layout.NewInput(e.store, e.canvas))
	if err != nil {
		var missing *layout.MissingDataError
		if errors.As(err, &missing) {
			logger.Warn("layout needs missing data, keeping current layout", "layout", name, "current", e.strategy.Name(), "attribute", missing.Attribute)
		}
		return err
	}

	e.strategy = strategy
	e.dragging = ""
	e.apply(plan)
	e.sim.SetAlphaTarget(0)
	e.sim.Restart(plan.Heat)
	e.rebuildFrame()
	e.signal()
	logger.Debug("layout applied", "layout", name, "pins", len(plan.Pins), "heat", plan.Heat)
	return nil
}

// Layout returns the active layout name.
func (e *Engine) Layout() layout.Name {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strategy.Name()
}

// Regenerate clears drag pins, re-plans the active layout and restarts at
// full heat.
func (e *Engine) Regenerate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragging = ""
	if err := e.replan(); err != nil {
		return err
	}
	e.sim.Restart(BulkHeat)
	e.rebuildFrame()
	e.signal()
	return nil
}

// SetCurvature sets the arc radius multiplier.
func (e *Engine) SetCurvature(c float64) error {
	if c < 0 {
		return fmt.Errorf("curvature must not be negative: %v", c)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.curvature = c
	e.rebuildFrame()
	return nil
}

// SetShowDates toggles date labels on edges.
func (e *Engine) SetShowDates(show bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.showDates = show
	e.rebuildFrame()
}

// SetCanvas resizes the drawing area and re-plans the layout around it.
func (e *Engine) SetCanvas(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid canvas %vx%v", width, height)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canvas = layout.Canvas{Width: width, Height: height}
	e.sim.SetCenter(width/2, height/2)
	if err := e.replan(); err != nil {
		return err
	}
	e.sim.Restart(IncrementalHeat)
	e.rebuildFrame()
	e.signal()
	return nil
}

// ─── Interaction ───

// DragStart pins a node where it is and keeps the solver warm.
func (e *Engine) DragStart(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	x, y, ok := e.sim.Position(id)
	if !ok {
		return false
	}
	e.sim.SetAlphaTarget(DragAlphaTarget)
	e.sim.Resume()
	e.sim.Pin(id, x, y)
	e.dragging = id
	e.signal()
	return true
}

// DragMove moves a dragged node's pin.
func (e *Engine) DragMove(id string, x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sim.Pin(id, x, y) {
		return false
	}
	e.rebuildFrame()
	return true
}

// DragEnd lets the solver cool. In fixed layouts the node stays where it
// was dropped.
func (e *Engine) DragEnd(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, ok := e.sim.Position(id); !ok {
		return false
	}
	e.sim.SetAlphaTarget(0)
	if e.strategy.Kind() != layout.Fixed {
		e.sim.Unpin(id)
	}
	if e.dragging == id {
		e.dragging = ""
	}
	return true
}

// HoverNode highlights a node.
func (e *Engine) HoverNode(id string) {
	e.withHighlight(func(h *render.Highlight) { h.HoverNode(id) })
}

// HoverEdge highlights the edge between a and b.
func (e *Engine) HoverEdge(a, b string) {
	e.withHighlight(func(h *render.Highlight) { h.HoverEdge(a, b) })
}

// ClearHover drops hover highlighting.
func (e *Engine) ClearHover() {
	e.withHighlight(func(h *render.Highlight) { h.ClearHover() })
}

// SelectNode toggles selection of a node and reports whether it is now
// selected.
func (e *Engine) SelectNode(id string) (selected bool) {
	e.withHighlight(func(h *render.Highlight) {
		if e.store.Has(id) {
			selected = h.Select(id)
		}
	})
	return selected
}

// ClickBackground clears hover and selection.
func (e *Engine) ClickBackground() {
	e.withHighlight(func(h *render.Highlight) { h.ClickBackground() })
}

func (e *Engine) withHighlight(fn func(h *render.Highlight)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.highlight)
	e.rebuildFrame()
}

// ─── Ticking ───

// Tick advances the solver one step. It returns the new frame and true, or
// the current frame and false when the solver is idle.
func (e *Engine) Tick() (render.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sim.Tick() {
		return e.frame, false
	}
	e.rebuildFrame()
	return e.frame, true
}

// Stop halts the solver and drops any pending reheat. Positions and pins
// stay; the next mutation or layout change starts it again.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sim.Stop()
	e.sim.SetAlphaTarget(0)
}

// Active reports whether the solver still has heat.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Active()
}

// Settle ticks until the solver cools or maxTicks have run, and returns the
// final frame and the number of ticks taken.
func (e *Engine) Settle(maxTicks int) (render.Frame, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.sim.Settle(maxTicks)
	e.rebuildFrame()
	return e.frame, n
}

// Run drives the solver from the caller's goroutine: one tick per interval
// while active, blocking on mutations while idle. It returns when ctx is
// done.
func (e *Engine) Run(ctx context.Context, interval time.Duration, onFrame func(render.Frame)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !e.Active() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.wake:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if frame, moved := e.Tick(); moved && onFrame != nil {
				onFrame(frame)
			}
		}
	}
}

// ─── Read side ───

// Frame returns the most recent frame.
func (e *Engine) Frame() render.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Snapshot exports the network.
func (e *Engine) Snapshot() graph.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Export()
}

// Nodes returns all entities in insertion order.
func (e *Engine) Nodes() []graph.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Nodes()
}

// Edges returns all relationships in insertion order.
func (e *Engine) Edges() []graph.Edge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Edges()
}

// NodeByName finds an entity by name, case-insensitively.
func (e *Engine) NodeByName(name string) (graph.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.NodeByName(name)
}

// Resolve finds an entity by id or name.
func (e *Engine) Resolve(ref string) (graph.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Resolve(ref)
}

// Position returns a node's current position.
func (e *Engine) Position(id string) (render.Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	x, y, ok := e.sim.Position(id)
	return render.Point{X: x, Y: y}, ok
}

// Stats returns summary counts.
func (e *Engine) Stats() graph.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Stats()
}

// View runs fn with read access to the store. fn must not mutate it.
func (e *Engine) View(fn func(s *graph.Store)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.store)
}
