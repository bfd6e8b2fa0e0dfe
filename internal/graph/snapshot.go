package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/msalah0e/lombard/internal/logger"
)

// SnapshotVersion is written into every exported snapshot.
const SnapshotVersion = 1

// Snapshot is the flat JSON persistence form of a network. NextID and
// Retired carry the id history, so a reloaded store never hands out an id
// that an earlier session deleted. Snapshots without NextID are treated as
// foreign and their ids are remapped.
type Snapshot struct {
	Version     int            `json:"version" jsonschema:"minimum=1"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	NextID      int            `json:"next_id,omitempty" jsonschema:"minimum=1"`
	Retired     []string       `json:"retired,omitempty"`
	Nodes       []SnapshotNode `json:"nodes"`
	Links       []SnapshotLink `json:"links"`
}

// SnapshotNode is a node record in a snapshot.
type SnapshotNode struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name" jsonschema:"minLength=1"`
	Category    string   `json:"type,omitempty" jsonschema:"enum=person,enum=corporation,enum=government,enum=financial,enum=organization"`
	Importance  *float64 `json:"importance,omitempty" jsonschema:"minimum=0,maximum=1"`
	Date        string   `json:"date,omitempty"`
	Description string   `json:"description,omitempty"`
}

// SnapshotLink is an edge record in a snapshot. Source and target hold ids,
// or names when the producer had no ids.
type SnapshotLink struct {
	Source string `json:"source" jsonschema:"minLength=1"`
	Target string `json:"target" jsonschema:"minLength=1"`
	Label  string `json:"type,omitempty"`
	Status string `json:"status,omitempty" jsonschema:"enum=confirmed,enum=suspected,enum=former"`
	Date   string `json:"date,omitempty"`
	Value  Value  `json:"value,omitempty,omitzero"`
}

// UnmarshalJSON accepts "category" as an alternate for "type".
func (n *SnapshotNode) UnmarshalJSON(data []byte) error {
	type plain SnapshotNode
	var aux struct {
		plain
		AltCategory string `json:"category"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = SnapshotNode(aux.plain)
	if n.Category == "" {
		n.Category = aux.AltCategory
	}
	return nil
}

// UnmarshalJSON accepts "relationship" as an alternate for "type".
func (l *SnapshotLink) UnmarshalJSON(data []byte) error {
	type plain SnapshotLink
	var aux struct {
		plain
		AltLabel string `json:"relationship"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = SnapshotLink(aux.plain)
	if l.Label == "" {
		l.Label = aux.AltLabel
	}
	return nil
}

// UnmarshalJSON accepts entities/nodes, links/edges/relationships and a
// nested data object.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version       int            `json:"version"`
		Title         string         `json:"title"`
		Description   string         `json:"description"`
		NextID        int            `json:"next_id"`
		Retired       []string       `json:"retired"`
		Nodes         []SnapshotNode `json:"nodes"`
		Entities      []SnapshotNode `json:"entities"`
		Links         []SnapshotLink `json:"links"`
		Edges         []SnapshotLink `json:"edges"`
		Relationships []SnapshotLink `json:"relationships"`
		Data          *struct {
			Nodes []SnapshotNode `json:"nodes"`
			Links []SnapshotLink `json:"links"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Snapshot{
		Version:     raw.Version,
		Title:       raw.Title,
		Description: raw.Description,
		NextID:      raw.NextID,
		Retired:     raw.Retired,
		Nodes:       firstNonEmpty(raw.Nodes, raw.Entities),
		Links:       firstNonEmpty(raw.Links, raw.Edges, raw.Relationships),
	}
	if raw.Data != nil {
		if len(s.Nodes) == 0 {
			s.Nodes = raw.Data.Nodes
		}
		if len(s.Links) == 0 {
			s.Links = raw.Data.Links
		}
	}
	return nil
}

func firstNonEmpty[T any](lists ...[]T) []T {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

// ParseSnapshot decodes a snapshot, repairing malformed JSON first.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err == nil {
		return snap, nil
	}
	repaired, err := jsonrepair.JSONRepair(string(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot parse: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot parse: %w", err)
	}
	logger.Debug("snapshot repaired before decoding")
	return snap, nil
}

// SnapshotSchema returns the JSON Schema of the persisted form.
func SnapshotSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := r.Reflect(&Snapshot{})
	schema.Title = "lombard network snapshot"
	return json.MarshalIndent(schema, "", "  ")
}

// JSONSchema describes Value as a number or a string.
func (Value) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "number"},
			{Type: "string"},
		},
	}
}

// Export returns the store as a snapshot.
func (s *Store) Export() Snapshot {
	snap := Snapshot{
		Version:     SnapshotVersion,
		Title:       s.meta.Title,
		Description: s.meta.Description,
		NextID:      s.nextID,
		Nodes:       make([]SnapshotNode, 0, len(s.order)),
		Links:       make([]SnapshotLink, 0, len(s.edges)),
	}
	for id := range s.retired {
		snap.Retired = append(snap.Retired, id)
	}
	sort.Strings(snap.Retired)
	for _, id := range s.order {
		n := s.nodes[id]
		snap.Nodes = append(snap.Nodes, SnapshotNode{
			ID:          n.ID,
			Name:        n.Name,
			Category:    string(n.Category),
			Importance:  Importance(n.Importance),
			Date:        n.Date,
			Description: n.Description,
		})
	}
	for _, e := range s.edges {
		snap.Links = append(snap.Links, SnapshotLink{
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
			Status: string(e.Status),
			Date:   e.Date,
			Value:  e.Value,
		})
	}
	return snap
}

// ExportJSON returns the snapshot as indented JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s.Export(), "", "  ")
}

// LoadReport counts what a Load kept and skipped.
type LoadReport struct {
	Nodes        int
	Links        int
	SkippedNodes int
	SkippedLinks int
}

// Load replaces the store's contents with snap. Ids from a lombard snapshot
// (one carrying NextID) are kept; foreign ids are translated to fresh ones.
// Links whose endpoints match neither a record id nor a name are skipped,
// as are other bad records, and logged. A single Loaded event is emitted.
func (s *Store) Load(snap Snapshot) (LoadReport, error) {
	var rep LoadReport

	s.muted = true
	defer func() { s.muted = false }()

	s.reset()
	s.meta = Meta{Title: snap.Title, Description: snap.Description}
	own := snap.NextID > 0
	if own {
		s.nextID = snap.NextID
		for _, id := range snap.Retired {
			s.retired[id] = true
		}
	}

	ids := make(map[string]string, len(snap.Nodes))
	for i, rec := range snap.Nodes {
		in := NodeInput{
			Name:        rec.Name,
			Category:    Category(rec.Category),
			Importance:  rec.Importance,
			Date:        rec.Date,
			Description: rec.Description,
		}
		if own {
			in.ID = rec.ID
		}
		n, err := s.AddNode(in)
		if err != nil {
			logger.Warn("skipping snapshot node", "index", i, "error", err)
			rep.SkippedNodes++
			continue
		}
		foreign := rec.ID
		if foreign == "" {
			foreign = rec.Name
		}
		if _, seen := ids[foreign]; !seen {
			ids[foreign] = n.ID
		}
		rep.Nodes++
	}

	resolve := func(ref string) string {
		if id, ok := ids[ref]; ok {
			return id
		}
		if n, ok := s.NodeByName(ref); ok {
			return n.ID
		}
		return ""
	}

	for i, rec := range snap.Links {
		_, err := s.AddEdge(EdgeInput{
			Source: resolve(rec.Source),
			Target: resolve(rec.Target),
			Label:  rec.Label,
			Status: Status(rec.Status),
			Date:   rec.Date,
			Value:  rec.Value,
		})
		if err != nil {
			logger.Warn("skipping snapshot link", "index", i, "source", rec.Source, "target", rec.Target, "error", err)
			rep.SkippedLinks++
			continue
		}
		rep.Links++
	}

	s.muted = false
	s.emit(Event{Kind: Loaded})
	logger.Info("snapshot loaded", "nodes", rep.Nodes, "links", rep.Links, "skipped_nodes", rep.SkippedNodes, "skipped_links", rep.SkippedLinks)
	return rep, nil
}

// Restore loads a snapshot this store exported earlier, such as an undo
// step. The id counter never moves back, and ids live now but absent from
// snap are retired, so no id changes meaning across undo and redo.
func (s *Store) Restore(snap Snapshot) (LoadReport, error) {
	retired := make(map[string]bool, len(s.retired)+len(s.order)+len(snap.Retired))
	for id := range s.retired {
		retired[id] = true
	}
	for _, id := range s.order {
		retired[id] = true
	}
	for _, id := range snap.Retired {
		retired[id] = true
	}
	for _, n := range snap.Nodes {
		delete(retired, n.ID)
	}
	snap.NextID = max(s.nextID, snap.NextID)
	snap.Retired = slices.Sorted(maps.Keys(retired))
	return s.Load(snap)
}

// LoadJSON parses data and loads it.
func (s *Store) LoadJSON(data []byte) (LoadReport, error) {
	if strings.TrimSpace(string(data)) == "" {
		return LoadReport{}, fmt.Errorf("snapshot parse: empty input")
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return LoadReport{}, err
	}
	return s.Load(snap)
}
