package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/msalah0e/lombard/internal/logger"
)

// EventKind names a store mutation.
type EventKind int

const (
	NodeAdded EventKind = iota
	NodeRemoved
	EdgeAdded
	EdgeRemoved
	Cleared
	Loaded
)

func (k EventKind) String() string {
	switch k {
	case NodeAdded:
		return "node_added"
	case NodeRemoved:
		return "node_removed"
	case EdgeAdded:
		return "edge_added"
	case EdgeRemoved:
		return "edge_removed"
	case Cleared:
		return "cleared"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// Bulk reports whether the event replaced the whole graph.
func (k EventKind) Bulk() bool {
	return k == Cleared || k == Loaded
}

// Event is delivered to subscribers after every mutation.
type Event struct {
	Kind   EventKind
	NodeID string
	Edge   Edge
}

// Meta is network-level information persisted in the snapshot.
type Meta struct {
	Title       string
	Description string
}

const idPrefix = "node_"

// Store is the authoritative collection of nodes and edges.
// It is not safe for concurrent use; the engine serialises access.
type Store struct {
	meta      Meta
	nodes     map[string]*Node
	order     []string
	edges     []Edge
	pairs     map[string]bool
	retired   map[string]bool
	nextID    int
	observers map[int]func(Event)
	nextObs   int
	muted     bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:     make(map[string]*Node),
		pairs:     make(map[string]bool),
		retired:   make(map[string]bool),
		nextID:    1,
		observers: make(map[int]func(Event)),
	}
}

// Subscribe registers fn to be called after every mutation. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

func (s *Store) emit(ev Event) {
	if s.muted {
		return
	}
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			fn(ev)
		}
	}
}

// Meta returns the network title and description.
func (s *Store) Meta() Meta {
	return s.meta
}

// SetMeta replaces the network title and description.
func (s *Store) SetMeta(m Meta) {
	s.meta = m
}

// ─── Nodes ───

// AddNode stores a new node. A caller-supplied id is kept unless it is live
// or was retired by RemoveNode; otherwise a fresh node_<n> id is assigned. Unknown categories fall back to
// DefaultCategory with a warning.
func (s *Store) AddNode(in NodeInput) (Node, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Node{}, ErrEmptyName
	}

	category := Category(normalize(string(in.Category)))
	switch {
	case category == "":
		category = DefaultCategory
	case !KnownCategory(category):
		logger.Warn("unknown entity category, using default", "name", name, "category", in.Category, "default", DefaultCategory)
		category = DefaultCategory
	}

	importance := DefaultImportance
	if in.Importance != nil && !math.IsNaN(*in.Importance) {
		importance = clamp01(*in.Importance)
	}

	n := &Node{
		ID:          s.assignID(strings.TrimSpace(in.ID)),
		Name:        name,
		Category:    category,
		Importance:  importance,
		Date:        strings.TrimSpace(in.Date),
		Description: strings.TrimSpace(in.Description),
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	s.emit(Event{Kind: NodeAdded, NodeID: n.ID})
	return *n, nil
}

func (s *Store) assignID(requested string) string {
	if requested != "" && !s.taken(requested) {
		if n, ok := parseNodeID(requested); ok && n >= s.nextID {
			s.nextID = n + 1
		}
		return requested
	}
	for {
		id := idPrefix + strconv.Itoa(s.nextID)
		s.nextID++
		if !s.taken(id) {
			return id
		}
	}
}

// taken reports whether id is live or was used by a node since the last
// Clear.
func (s *Store) taken(id string) bool {
	_, live := s.nodes[id]
	return live || s.retired[id]
}

func parseNodeID(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether id is a live node.
func (s *Store) Has(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// NodeByName finds a node by display name, case-insensitively.
func (s *Store) NodeByName(name string) (Node, bool) {
	key := normalize(name)
	if key == "" {
		return Node{}, false
	}
	for _, id := range s.order {
		if normalize(s.nodes[id].Name) == key {
			return *s.nodes[id], true
		}
	}
	return Node{}, false
}

// Resolve finds a node by id first, then by name.
func (s *Store) Resolve(ref string) (Node, bool) {
	if n, ok := s.Node(ref); ok {
		return n, true
	}
	return s.NodeByName(ref)
}

// RemoveNode deletes a node and every edge that references it. It returns
// false if the node does not exist.
func (s *Store) RemoveNode(id string) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	s.retired[id] = true
	for i, nid := range s.order {
		if nid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	// Cascade: remove all edges involving this node
	kept := s.edges[:0]
	var removed []Edge
	for _, e := range s.edges {
		if e.Touches(id) {
			delete(s.pairs, e.Key())
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept

	for _, e := range removed {
		s.emit(Event{Kind: EdgeRemoved, Edge: e})
	}
	s.emit(Event{Kind: NodeRemoved, NodeID: id})
	return true
}

// Nodes returns a copy of all nodes in insertion order.
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.nodes[id])
	}
	return out
}

// NodeCount returns the number of live nodes.
func (s *Store) NodeCount() int {
	return len(s.order)
}

// ─── Edges ───

// AddEdge connects two live nodes. The pair must not already be connected in
// either direction. An empty status becomes confirmed.
func (s *Store) AddEdge(in EdgeInput) (Edge, error) {
	src := strings.TrimSpace(in.Source)
	tgt := strings.TrimSpace(in.Target)
	if !s.Has(src) {
		return Edge{}, &InvalidReferenceError{ID: src, Role: "source"}
	}
	if !s.Has(tgt) {
		return Edge{}, &InvalidReferenceError{ID: tgt, Role: "target"}
	}
	if src == tgt {
		return Edge{}, ErrSelfLoop
	}
	key := PairKey(src, tgt)
	if s.pairs[key] {
		return Edge{}, &DuplicateEdgeError{Source: src, Target: tgt}
	}

	status := Status(normalize(string(in.Status)))
	switch {
	case status == "":
		status = StatusConfirmed
	case !status.Valid():
		logger.Warn("unknown relationship status, using confirmed", "source", src, "target", tgt, "status", in.Status)
		status = StatusConfirmed
	}

	e := Edge{
		Source: src,
		Target: tgt,
		Label:  strings.TrimSpace(in.Label),
		Status: status,
		Date:   strings.TrimSpace(in.Date),
		Value:  in.Value,
	}
	s.edges = append(s.edges, e)
	s.pairs[key] = true
	s.emit(Event{Kind: EdgeAdded, Edge: e})
	return e, nil
}

// RemoveEdge removes the first edge matching fn.
func (s *Store) RemoveEdge(match func(Edge) bool) bool {
	for i, e := range s.edges {
		if match(e) {
			return s.RemoveEdgeAt(i)
		}
	}
	return false
}

// RemoveEdgeAt removes the edge at index i of Edges().
func (s *Store) RemoveEdgeAt(i int) bool {
	if i < 0 || i >= len(s.edges) {
		return false
	}
	e := s.edges[i]
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	delete(s.pairs, e.Key())
	s.emit(Event{Kind: EdgeRemoved, Edge: e})
	return true
}

// RemoveEdgeBetween removes the edge connecting a and b in either direction.
func (s *Store) RemoveEdgeBetween(a, b string) bool {
	key := PairKey(a, b)
	return s.RemoveEdge(func(e Edge) bool { return e.Key() == key })
}

// Edge returns the edge connecting a and b in either direction.
func (s *Store) Edge(a, b string) (Edge, bool) {
	key := PairKey(a, b)
	for _, e := range s.edges {
		if e.Key() == key {
			return e, true
		}
	}
	return Edge{}, false
}

// Edges returns a copy of all edges in insertion order.
func (s *Store) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// Clear empties the store, forgets retired ids and resets the id counter.
func (s *Store) Clear() {
	s.reset()
	s.emit(Event{Kind: Cleared})
}

func (s *Store) reset() {
	s.meta = Meta{}
	s.nodes = make(map[string]*Node)
	s.order = nil
	s.edges = nil
	s.pairs = make(map[string]bool)
	s.retired = make(map[string]bool)
	s.nextID = 1
}

// Validate checks the store's invariants: every edge resolves to live nodes
// and no pair is connected twice.
func (s *Store) Validate() error {
	seen := make(map[string]bool, len(s.edges))
	for _, e := range s.edges {
		if !s.Has(e.Source) {
			return fmt.Errorf("edge references non-existent source node %s", e.Source)
		}
		if !s.Has(e.Target) {
			return fmt.Errorf("edge references non-existent target node %s", e.Target)
		}
		if seen[e.Key()] {
			return fmt.Errorf("duplicate edge between %s and %s", e.Source, e.Target)
		}
		seen[e.Key()] = true
	}
	if len(s.order) != len(s.nodes) {
		return fmt.Errorf("node count mismatch: %d ordered, %d stored", len(s.order), len(s.nodes))
	}
	return nil
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
