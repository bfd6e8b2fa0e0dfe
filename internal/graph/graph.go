package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Category classifies an entity. The known set can be extended with RegisterCategory.
type Category string

const (
	CategoryPerson       Category = "person"
	CategoryCorporation  Category = "corporation"
	CategoryGovernment   Category = "government"
	CategoryFinancial    Category = "financial"
	CategoryOrganization Category = "organization"

	// DefaultCategory is used when a category is missing or unknown.
	DefaultCategory = CategoryPerson
)

var (
	categoryMu sync.RWMutex
	categories = map[Category]bool{
		CategoryPerson:       true,
		CategoryCorporation:  true,
		CategoryGovernment:   true,
		CategoryFinancial:    true,
		CategoryOrganization: true,
	}
)

// RegisterCategory adds a category to the known set.
func RegisterCategory(c Category) {
	c = Category(normalize(string(c)))
	if c == "" {
		return
	}
	categoryMu.Lock()
	categories[c] = true
	categoryMu.Unlock()
}

// KnownCategory reports whether c is in the known set.
func KnownCategory(c Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return categories[Category(normalize(string(c)))]
}

// Status is the confidence of a relationship. It drives how the edge is drawn.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusSuspected Status = "suspected"
	StatusFormer    Status = "former"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusSuspected, StatusFormer:
		return true
	}
	return false
}

// Curved reports whether edges with this status are drawn as arcs.
func (s Status) Curved() bool {
	return s != StatusFormer
}

// DefaultImportance is assigned when a node is created without one.
const DefaultImportance = 0.5

// Node is an entity in the network.
type Node struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"type"`
	Importance  float64  `json:"importance"`
	Date        string   `json:"date,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Edge is a relationship between two nodes. Source and target are ids; their
// order gives the arrow direction but not identity.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"type"`
	Status Status `json:"status"`
	Date   string `json:"date,omitempty"`
	Value  Value  `json:"value,omitempty,omitzero"`
}

// Key identifies the unordered node pair the edge connects.
func (e Edge) Key() string {
	return PairKey(e.Source, e.Target)
}

// Touches reports whether the edge references id at either end.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// Other returns the endpoint opposite id.
func (e Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// PairKey returns an order-independent key for the pair (a, b).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Value is an optional relationship value: a number ("2.5" million) or free text.
type Value struct {
	Text    string
	Number  float64
	Numeric bool
}

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value {
	return Value{Number: f, Numeric: true, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// ParseValue turns free text into a Value, detecting numbers.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberValue(f)
	}
	return Value{Text: s}
}

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool {
	return !v.Numeric && v.Text == ""
}

func (v Value) String() string {
	return v.Text
}

// MarshalJSON writes numbers as JSON numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.Numeric:
		return json.Marshal(v.Number)
	case v.Text == "":
		return []byte("null"), nil
	default:
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON accepts a number, a string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = NumberValue(f)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("value must be a number or string: %w", err)
	}
	*v = ParseValue(text)
	return nil
}

// NodeInput carries the caller-supplied fields of a new node.
type NodeInput struct {
	ID          string
	Name        string
	Category    Category
	Importance  *float64
	Date        string
	Description string
}

// EdgeInput carries the caller-supplied fields of a new edge.
type EdgeInput struct {
	Source string
	Target string
	Label  string
	Status Status
	Date   string
	Value  Value
}

// Importance is a convenience for building a NodeInput.
func Importance(f float64) *float64 {
	return &f
}

var (
	// ErrEmptyName is returned when a node is added without a name.
	ErrEmptyName = errors.New("entity name cannot be empty")
	// ErrSelfLoop is returned when an edge would connect a node to itself.
	ErrSelfLoop = errors.New("source and target cannot be the same entity")
)

// InvalidReferenceError reports an edge endpoint that does not resolve to a live node.
type InvalidReferenceError struct {
	ID   string
	Role string // "source" or "target"
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s entity not found: %s", e.Role, e.ID)
}

// DuplicateEdgeError reports an edge between a pair that is already connected.
type DuplicateEdgeError struct {
	Source string
	Target string
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("a relationship between %s and %s already exists", e.Source, e.Target)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
