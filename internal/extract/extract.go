// Package extract turns AI-extracted entity and relationship records into
// graph mutations. AI output is often malformed, so parsing is tolerant and
// application skips bad records instead of failing.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"

	"github.com/msalah0e/lombard/internal/graph"
	"github.com/msalah0e/lombard/internal/logger"
)

// Defaults applied to records that leave a field out.
const (
	DefaultImportance = 3
	DefaultLabel      = "business"
)

// Rating is an importance on the 1-5 scale. It decodes from a number or a
// numeric string.
type Rating float64

func (r *Rating) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*r = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable ratings fall back to the default during validation.
		*r = 0
		return nil
	}
	*r = Rating(f)
	return nil
}

// Entity is one extracted entity.
type Entity struct {
	Name        string `json:"name" validate:"required"`
	Category    string `json:"type"`
	Importance  Rating `json:"importance" validate:"omitempty,gte=1,lte=5"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// UnmarshalJSON accepts "category" as an alternate for "type".
func (e *Entity) UnmarshalJSON(data []byte) error {
	type plain Entity
	var aux struct {
		plain
		AltCategory string `json:"category"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Entity(aux.plain)
	if e.Category == "" {
		e.Category = aux.AltCategory
	}
	return nil
}

// Relationship is one extracted relationship. Endpoints are entity names.
type Relationship struct {
	SourceName  string      `json:"sourceName" validate:"required"`
	TargetName  string      `json:"targetName" validate:"required"`
	Label       string      `json:"type"`
	Status      string      `json:"status,omitempty"`
	Date        string      `json:"date,omitempty"`
	Value       graph.Value `json:"value,omitzero"`
	Description string      `json:"description,omitempty"`
}

// UnmarshalJSON accepts "source" and "target" as alternates for the name
// fields.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	type plain Relationship
	var aux struct {
		plain
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Relationship(aux.plain)
	if r.SourceName == "" {
		r.SourceName = aux.Source
	}
	if r.TargetName == "" {
		r.TargetName = aux.Target
	}
	return nil
}

// Result is a parsed extraction.
type Result struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes an extraction. It accepts plain, double-encoded and
// repairable JSON, then drops records without names and resets
// out-of-range importance to the default.
func Parse(input string) (*Result, error) {
	var r Result
	if err := unmarshalFlexible(input, &r); err != nil {
		return nil, err
	}
	r.clean()
	return &r, nil
}

func (r *Result) clean() {
	entities := r.Entities[:0]
	for i, e := range r.Entities {
		e.Name = strings.TrimSpace(e.Name)
		if err := validate.Struct(e); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				logger.Warn("skipping entity", "index", i, "error", err)
				continue
			}
			if dropped := fixEntity(&e, verrs); dropped {
				logger.Warn("skipping entity without a name", "index", i)
				continue
			}
		}
		if e.Importance == 0 {
			e.Importance = DefaultImportance
		}
		entities = append(entities, e)
	}
	r.Entities = entities

	rels := r.Relationships[:0]
	for i, rel := range r.Relationships {
		rel.SourceName = strings.TrimSpace(rel.SourceName)
		rel.TargetName = strings.TrimSpace(rel.TargetName)
		if err := validate.Struct(rel); err != nil {
			logger.Warn("skipping relationship without endpoints", "index", i, "source", rel.SourceName, "target", rel.TargetName)
			continue
		}
		if strings.TrimSpace(rel.Label) == "" {
			rel.Label = DefaultLabel
		}
		rels = append(rels, rel)
	}
	r.Relationships = rels
}

// fixEntity repairs what validation flagged and reports whether the entity
// must be dropped.
func fixEntity(e *Entity, verrs validator.ValidationErrors) bool {
	for _, fe := range verrs {
		switch fe.Field() {
		case "Name":
			return true
		case "Importance":
			logger.Warn("importance out of range, using default", "entity", e.Name, "importance", float64(e.Importance), "default", DefaultImportance)
			e.Importance = DefaultImportance
		}
	}
	return false
}

// unmarshalFlexible tries plain JSON, then a double-encoded string, then
// jsonrepair.
func unmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errors.New("empty extraction")
	}

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	input = stripFence(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: %w", err)
	}
	return nil
}

// stripFence removes a markdown code fence around model output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// Target receives extracted records. *graph.Store and the engine's Tx both
// satisfy it.
type Target interface {
	AddNode(graph.NodeInput) (graph.Node, error)
	AddEdge(graph.EdgeInput) (graph.Edge, error)
	NodeByName(name string) (graph.Node, bool)
}

// Report counts what Apply did.
type Report struct {
	NodesAdded   int
	EdgesAdded   int
	SkippedNodes int
	SkippedEdges int
}

// Apply adds a parsed extraction to t. Entities whose name already exists
// are skipped. Relationships resolve by name; unresolved or duplicate ones
// are skipped and logged.
func Apply(t Target, r *Result) Report {
	var rep Report
	if r == nil {
		return rep
	}

	for _, e := range r.Entities {
		if _, ok := t.NodeByName(e.Name); ok {
			logger.Debug("entity already exists", "name", e.Name)
			rep.SkippedNodes++
			continue
		}
		imp := float64(e.Importance) / 5
		_, err := t.AddNode(graph.NodeInput{
			Name:        e.Name,
			Category:    graph.Category(e.Category),
			Importance:  &imp,
			Date:        e.Date,
			Description: e.Description,
		})
		if err != nil {
			logger.Warn("skipping entity", "name", e.Name, "error", err)
			rep.SkippedNodes++
			continue
		}
		rep.NodesAdded++
	}

	for _, rel := range r.Relationships {
		src, ok := t.NodeByName(rel.SourceName)
		if !ok {
			logger.Warn("source entity not found", "source", rel.SourceName)
			rep.SkippedEdges++
			continue
		}
		tgt, ok := t.NodeByName(rel.TargetName)
		if !ok {
			logger.Warn("target entity not found", "target", rel.TargetName)
			rep.SkippedEdges++
			continue
		}
		_, err := t.AddEdge(graph.EdgeInput{
			Source: src.ID,
			Target: tgt.ID,
			Label:  rel.Label,
			Status: graph.Status(rel.Status),
			Date:   rel.Date,
			Value:  rel.Value,
		})
		if err != nil {
			logger.Warn("skipping relationship", "source", rel.SourceName, "target", rel.TargetName, "error", err)
			rep.SkippedEdges++
			continue
		}
		rep.EdgesAdded++
	}
	return rep
}
