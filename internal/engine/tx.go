package engine

import (
	"errors"

	"github.com/msalah0e/lombard/internal/graph"
)

// ErrTxDone is returned when a Tx is used after its Batch returned.
var ErrTxDone = errors.New("transaction already finished")

// Tx applies mutations inside a Batch. The engine lock is already held.
type Tx struct {
	e    *Engine
	done bool
}

func (tx *Tx) count() bool {
	if tx.done {
		return false
	}
	tx.e.ops++
	return true
}

// AddNode adds an entity.
func (tx *Tx) AddNode(in graph.NodeInput) (graph.Node, error) {
	if !tx.count() {
		return graph.Node{}, ErrTxDone
	}
	return tx.e.store.AddNode(in)
}

// AddEdge adds a relationship.
func (tx *Tx) AddEdge(in graph.EdgeInput) (graph.Edge, error) {
	if !tx.count() {
		return graph.Edge{}, ErrTxDone
	}
	return tx.e.store.AddEdge(in)
}

// RemoveNode removes an entity and its relationships.
func (tx *Tx) RemoveNode(id string) bool {
	return tx.count() && tx.e.store.RemoveNode(id)
}

// RemoveEdgeBetween removes the relationship between a and b.
func (tx *Tx) RemoveEdgeBetween(a, b string) bool {
	return tx.count() && tx.e.store.RemoveEdgeBetween(a, b)
}

// Clear empties the network.
func (tx *Tx) Clear() {
	if tx.count() {
		tx.e.store.Clear()
	}
}

// SetMeta sets the network title and description.
func (tx *Tx) SetMeta(m graph.Meta) {
	if !tx.done {
		tx.e.store.SetMeta(m)
	}
}

// NodeByName finds an entity by name, case-insensitively.
func (tx *Tx) NodeByName(name string) (graph.Node, bool) {
	return tx.e.store.NodeByName(name)
}

// Resolve finds an entity by id or name.
func (tx *Tx) Resolve(ref string) (graph.Node, bool) {
	return tx.e.store.Resolve(ref)
}
