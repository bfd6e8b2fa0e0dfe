package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
)

func mustNode(t *testing.T, s *Store, name string, cat Category) Node {
	t.Helper()
	n, err := s.AddNode(NodeInput{Name: name, Category: cat})
	if err != nil {
		t.Fatalf("AddNode(%q) failed: %v", name, err)
	}
	return n
}

func mustEdge(t *testing.T, s *Store, src, tgt, label string, status Status) Edge {
	t.Helper()
	e, err := s.AddEdge(EdgeInput{Source: src, Target: tgt, Label: label, Status: status})
	if err != nil {
		t.Fatalf("AddEdge(%s, %s) failed: %v", src, tgt, err)
	}
	return e
}

func TestAddNode(t *testing.T) {
	s := New()

	n, err := s.AddNode(NodeInput{Name: "  BCCI ", Category: "financial"})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if n.ID != "node_1" {
		t.Errorf("expected id node_1, got %q", n.ID)
	}
	if n.Name != "BCCI" {
		t.Errorf("expected trimmed name 'BCCI', got %q", n.Name)
	}
	if n.Category != CategoryFinancial {
		t.Errorf("expected category financial, got %q", n.Category)
	}
	if n.Importance != DefaultImportance {
		t.Errorf("expected default importance 0.5, got %v", n.Importance)
	}
	if s.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", s.NodeCount())
	}
}

func TestAddNodeEmptyName(t *testing.T) {
	s := New()
	_, err := s.AddNode(NodeInput{Name: "   "})
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestAddNodeUnknownCategory(t *testing.T) {
	s := New()
	n := mustNode(t, s, "Alice", "wizard")
	if n.Category != DefaultCategory {
		t.Errorf("expected fallback category %q, got %q", DefaultCategory, n.Category)
	}
}

func TestRegisterCategory(t *testing.T) {
	RegisterCategory("Media")
	if !KnownCategory("media") {
		t.Fatal("expected media to be known after registration")
	}
	s := New()
	n := mustNode(t, s, "Gazette", "media")
	if n.Category != "media" {
		t.Errorf("expected category media, got %q", n.Category)
	}
}

func TestAddNodeImportanceClamped(t *testing.T) {
	s := New()
	hi, _ := s.AddNode(NodeInput{Name: "A", Importance: Importance(3)})
	lo, _ := s.AddNode(NodeInput{Name: "B", Importance: Importance(-1)})
	if hi.Importance != 1 {
		t.Errorf("expected importance clamped to 1, got %v", hi.Importance)
	}
	if lo.Importance != 0 {
		t.Errorf("expected importance clamped to 0, got %v", lo.Importance)
	}
}

func TestNodeIDs(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	s.RemoveNode(b.ID)
	c := mustNode(t, s, "C", "")
	if c.ID == b.ID {
		t.Errorf("removed id %s was reused", b.ID)
	}

	// Supplied node_<n> ids advance the counter
	d, _ := s.AddNode(NodeInput{ID: "node_40", Name: "D"})
	if d.ID != "node_40" {
		t.Errorf("expected supplied id kept, got %q", d.ID)
	}
	e := mustNode(t, s, "E", "")
	if e.ID != "node_41" {
		t.Errorf("expected node_41 after supplied node_40, got %q", e.ID)
	}

	// A colliding id gets a fresh one
	f, _ := s.AddNode(NodeInput{ID: a.ID, Name: "F"})
	if f.ID == a.ID {
		t.Errorf("colliding id %s was accepted", a.ID)
	}

	s.Clear()
	g := mustNode(t, s, "G", "")
	if g.ID != "node_1" {
		t.Errorf("expected counter reset by Clear, got %q", g.ID)
	}
}

func TestNodeByNameCaseInsensitive(t *testing.T) {
	s := New()
	mustNode(t, s, "Global Trust", "corporation")

	n, ok := s.NodeByName("GLOBAL trust")
	if !ok {
		t.Fatal("case-insensitive lookup failed")
	}
	if n.Name != "Global Trust" {
		t.Errorf("expected display name 'Global Trust', got %q", n.Name)
	}
	if _, ok := s.NodeByName("nobody"); ok {
		t.Error("expected lookup of unknown name to fail")
	}
}

func TestAddEdge(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")

	e, err := s.AddEdge(EdgeInput{Source: a.ID, Target: b.ID, Label: "owns"})
	if err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if e.Status != StatusConfirmed {
		t.Errorf("expected omitted status to become confirmed, got %q", e.Status)
	}

	bad, err := s.AddEdge(EdgeInput{Source: a.ID, Target: "node_99", Status: "rumoured"})
	var ref *InvalidReferenceError
	if !errors.As(err, &ref) {
		t.Fatalf("expected InvalidReferenceError, got %v (%v)", err, bad)
	}
	if ref.ID != "node_99" || ref.Role != "target" {
		t.Errorf("unexpected reference error fields: %+v", ref)
	}
}

func TestAddEdgeUnknownStatus(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	e := mustEdge(t, s, a.ID, b.ID, "owns", "rumoured")
	if e.Status != StatusConfirmed {
		t.Errorf("expected unknown status to become confirmed, got %q", e.Status)
	}
}

func TestAddEdgeUndirectedUniqueness(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	mustEdge(t, s, a.ID, b.ID, "owns", StatusConfirmed)

	for _, pair := range [][2]string{{a.ID, b.ID}, {b.ID, a.ID}} {
		_, err := s.AddEdge(EdgeInput{Source: pair[0], Target: pair[1], Label: "funds"})
		var dup *DuplicateEdgeError
		if !errors.As(err, &dup) {
			t.Errorf("expected DuplicateEdgeError for %s->%s, got %v", pair[0], pair[1], err)
		}
	}
	if s.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", s.EdgeCount())
	}
}

func TestAddEdgeSelfLoop(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	_, err := s.AddEdge(EdgeInput{Source: a.ID, Target: a.ID})
	if !errors.Is(err, ErrSelfLoop) {
		t.Fatalf("expected ErrSelfLoop, got %v", err)
	}
}

func TestRemoveNodeCascade(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	c := mustNode(t, s, "C", "")
	mustEdge(t, s, a.ID, b.ID, "", "")
	mustEdge(t, s, b.ID, c.ID, "", "")
	mustEdge(t, s, a.ID, c.ID, "", "")

	if !s.RemoveNode(b.ID) {
		t.Fatal("RemoveNode returned false for a live node")
	}
	if s.RemoveNode(b.ID) {
		t.Error("RemoveNode returned true for a removed node")
	}
	if s.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge after cascade, got %d", s.EdgeCount())
	}
	for _, e := range s.Edges() {
		if e.Touches(b.ID) {
			t.Errorf("edge %s->%s still references removed node", e.Source, e.Target)
		}
	}

	// The pair is free again once its edge is gone
	d := mustNode(t, s, "D", "")
	mustEdge(t, s, a.ID, d.ID, "", "")
}

func TestCascadeInvariantRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	s := New()
	var live []string

	for step := 0; step < 2000; step++ {
		switch op := rng.IntN(10); {
		case op < 4 || len(live) < 2:
			n := mustNode(t, s, "n", "")
			live = append(live, n.ID)
		case op < 8:
			a := live[rng.IntN(len(live))]
			b := live[rng.IntN(len(live))]
			s.AddEdge(EdgeInput{Source: a, Target: b})
		case op < 9:
			i := rng.IntN(len(live))
			s.RemoveNode(live[i])
			live = append(live[:i], live[i+1:]...)
		default:
			s.RemoveEdgeAt(rng.IntN(s.EdgeCount() + 1))
		}

		if err := s.Validate(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}
}

func TestRemoveEdgeVariants(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	c := mustNode(t, s, "C", "")
	mustEdge(t, s, a.ID, b.ID, "owns", "")
	mustEdge(t, s, b.ID, c.ID, "funds", "")
	mustEdge(t, s, a.ID, c.ID, "advises", "")

	if !s.RemoveEdgeBetween(b.ID, a.ID) {
		t.Error("RemoveEdgeBetween should match either direction")
	}
	if !s.RemoveEdge(func(e Edge) bool { return e.Label == "advises" }) {
		t.Error("RemoveEdge should remove the matching edge")
	}
	if s.RemoveEdgeAt(5) {
		t.Error("RemoveEdgeAt out of range should return false")
	}
	if !s.RemoveEdgeAt(0) {
		t.Error("RemoveEdgeAt(0) should remove the last edge")
	}
	if s.EdgeCount() != 0 {
		t.Errorf("expected no edges, got %d", s.EdgeCount())
	}
}

func TestSubscribe(t *testing.T) {
	s := New()
	var kinds []EventKind
	cancel := s.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	mustEdge(t, s, a.ID, b.ID, "", "")
	s.RemoveNode(a.ID)

	want := []EventKind{NodeAdded, NodeAdded, EdgeAdded, EdgeRemoved, NodeRemoved}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	cancel()
	mustNode(t, s, "C", "")
	if len(kinds) != len(want) {
		t.Error("cancelled subscriber still received events")
	}
}

func TestLoadEmitsSingleEvent(t *testing.T) {
	s := New()
	count := 0
	s.Subscribe(func(ev Event) {
		count++
		if ev.Kind != Loaded {
			t.Errorf("expected Loaded, got %s", ev.Kind)
		}
	})

	_, err := s.Load(Snapshot{
		Nodes: []SnapshotNode{{Name: "A"}, {Name: "B"}},
		Links: []SnapshotLink{{Source: "A", Target: "B"}},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestDegreesAndNeighbors(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	c := mustNode(t, s, "C", "")
	mustEdge(t, s, a.ID, b.ID, "", "")
	mustEdge(t, s, c.ID, a.ID, "", "")

	if s.Degree(a.ID) != 2 {
		t.Errorf("expected degree 2 for A, got %d", s.Degree(a.ID))
	}
	deg := s.Degrees()
	if deg[b.ID] != 1 || deg[c.ID] != 1 {
		t.Errorf("unexpected degrees: %v", deg)
	}
	nb := s.Neighbors(a.ID)
	if len(nb) != 2 || nb[0] != b.ID || nb[1] != c.ID {
		t.Errorf("unexpected neighbors of A: %v", nb)
	}
}

func TestStats(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "person")
	b := mustNode(t, s, "B", "corporation")
	s.AddNode(NodeInput{Name: "C", Date: "1991"})
	mustEdge(t, s, a.ID, b.ID, "", StatusSuspected)

	st := s.Stats()
	if st.Nodes != 3 || st.Edges != 1 {
		t.Errorf("expected 3 nodes and 1 edge, got %d and %d", st.Nodes, st.Edges)
	}
	if st.Categories[CategoryPerson] != 2 {
		t.Errorf("expected 2 people, got %d", st.Categories[CategoryPerson])
	}
	if st.Statuses[StatusSuspected] != 1 {
		t.Errorf("expected 1 suspected edge, got %d", st.Statuses[StatusSuspected])
	}
	if st.Dated != 1 || st.Isolated != 1 {
		t.Errorf("expected 1 dated and 1 isolated, got %d and %d", st.Dated, st.Isolated)
	}
	if math.Abs(st.Density-1.0/3) > 1e-9 || math.Abs(st.AvgDegree-2.0/3) > 1e-9 {
		t.Errorf("expected density 1/3 and average degree 2/3, got %v and %v", st.Density, st.AvgDegree)
	}
	if len(st.TopConnected) != 3 || st.TopConnected[0].Node.Name != "A" || st.TopConnected[2].Degree != 0 {
		t.Errorf("unexpected ranking: %+v", st.TopConnected)
	}
}

func TestStatsTopConnected(t *testing.T) {
	s := New()
	if st := s.Stats(); st.Density != 0 || st.AvgDegree != 0 || len(st.TopConnected) != 0 {
		t.Errorf("empty store should have zero metrics, got %+v", st)
	}

	hub := mustNode(t, s, "Hub", "")
	for i := range 6 {
		n := mustNode(t, s, fmt.Sprintf("Spoke %d", i), "")
		mustEdge(t, s, hub.ID, n.ID, "", "")
	}
	st := s.Stats()
	if len(st.TopConnected) != TopConnectedCount {
		t.Fatalf("expected %d ranked nodes, got %d", TopConnectedCount, len(st.TopConnected))
	}
	if st.TopConnected[0].Node.ID != hub.ID || st.TopConnected[0].Degree != 6 {
		t.Errorf("expected hub first, got %+v", st.TopConnected[0])
	}
	if st.TopConnected[1].Node.Name != "Spoke 0" {
		t.Errorf("ties should keep insertion order, got %q", st.TopConnected[1].Node.Name)
	}
}

func TestSuggest(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	c := mustNode(t, s, "C", "")
	mustEdge(t, s, a.ID, b.ID, "owns", "")
	mustEdge(t, s, b.ID, c.ID, "funds", "")

	got := s.Suggest(DefaultMinConfidence)
	if len(got) != 1 {
		t.Fatalf("expected one transitive suggestion, got %+v", got)
	}
	if got[0].Source.ID != a.ID || got[0].Target.ID != c.ID || got[0].Methods[0] != MethodTransitive {
		t.Errorf("unexpected suggestion %+v", got[0])
	}
	if got[0].Evidence[0] != "owns via B, then funds" {
		t.Errorf("unexpected evidence %q", got[0].Evidence[0])
	}

	// D shares A and C with B, and connects to both ends of A–C
	d := mustNode(t, s, "D", "")
	mustEdge(t, s, d.ID, a.ID, "", "")
	mustEdge(t, s, d.ID, c.ID, "", "")

	got = s.Suggest(DefaultMinConfidence)
	if len(got) != 2 {
		t.Fatalf("expected A–C and D–B, got %+v", got)
	}
	for _, sg := range got {
		if _, linked := s.Edge(sg.Source.ID, sg.Target.ID); linked {
			t.Errorf("suggested an existing relationship %s–%s", sg.Source.Name, sg.Target.Name)
		}
		if math.Abs(sg.Confidence-0.8) > 1e-9 || len(sg.Methods) != 2 {
			t.Errorf("%s–%s: expected both signals at 0.8, got %v %v", sg.Source.Name, sg.Target.Name, sg.Confidence, sg.Methods)
		}
	}
	if got[0].Source.ID != a.ID || got[0].Target.ID != c.ID {
		t.Errorf("equal confidence should keep discovery order, got %s–%s first", got[0].Source.Name, got[0].Target.Name)
	}
	if len(s.Suggest(0.9)) != 0 {
		t.Error("expected nothing above 0.9")
	}
}

func TestSearch(t *testing.T) {
	s := New()
	mustNode(t, s, "Bank of Credit", "financial")
	mustNode(t, s, "Credit", "person")
	s.AddNode(NodeInput{Name: "Agha", Description: "founded a credit bank"})

	results := s.Search("credit")
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Node.Name != "Credit" {
		t.Errorf("expected exact match first, got %q", results[0].Node.Name)
	}
	if results[0].Score != 100 {
		t.Errorf("expected score 100, got %d", results[0].Score)
	}
	if results[2].Node.Name != "Agha" {
		t.Errorf("expected description match last, got %q", results[2].Node.Name)
	}
	if len(s.Search("  ")) != 0 {
		t.Error("expected empty query to return nothing")
	}
}

func TestShow(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	c := mustNode(t, s, "C", "")
	mustEdge(t, s, a.ID, b.ID, "owns", "")
	mustEdge(t, s, c.ID, a.ID, "funds", "")

	res, ok := s.Show("a")
	if !ok {
		t.Fatal("Show by name failed")
	}
	if len(res.Outgoing) != 1 || res.Outgoing[0].Other.Name != "B" {
		t.Errorf("unexpected outgoing: %+v", res.Outgoing)
	}
	if len(res.Incoming) != 1 || res.Incoming[0].Other.Name != "C" {
		t.Errorf("unexpected incoming: %+v", res.Incoming)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	s.SetMeta(Meta{Title: "BCCI", Description: "1972-1991"})
	a, _ := s.AddNode(NodeInput{Name: "Agha Hasan Abedi", Category: "person", Importance: Importance(0.9), Date: "1972"})
	b := mustNode(t, s, "BCCI", "financial")
	c := mustNode(t, s, "First American", "corporation")
	s.AddEdge(EdgeInput{Source: a.ID, Target: b.ID, Label: "founded", Date: "1972"})
	s.AddEdge(EdgeInput{Source: b.ID, Target: c.ID, Label: "owned", Status: StatusSuspected, Value: NumberValue(2.5)})
	s.AddEdge(EdgeInput{Source: c.ID, Target: a.ID, Label: "advised", Status: StatusFormer, Value: ParseValue("undisclosed")})

	data, err := s.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	loaded := New()
	rep, err := loaded.LoadJSON(data)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if rep.Nodes != 3 || rep.Links != 3 || rep.SkippedLinks != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if loaded.Meta() != s.Meta() {
		t.Errorf("meta not preserved: %+v", loaded.Meta())
	}

	byName := func(st *Store) map[string]string {
		out := make(map[string]string)
		for _, e := range st.Edges() {
			src, _ := st.Node(e.Source)
			tgt, _ := st.Node(e.Target)
			out[src.Name+"->"+tgt.Name] = string(e.Status) + "|" + e.Label + "|" + e.Value.String()
		}
		return out
	}
	want, got := byName(s), byName(loaded)
	for k, v := range want {
		if got[k] != v {
			t.Errorf("edge %s: expected %q, got %q", k, v, got[k])
		}
	}

	n, _ := loaded.NodeByName("Agha Hasan Abedi")
	if n.Importance != 0.9 || n.Date != "1972" {
		t.Errorf("node fields not preserved: %+v", n)
	}
	e, _ := loaded.Edge(loaded.Nodes()[1].ID, loaded.Nodes()[2].ID)
	if !e.Value.Numeric || e.Value.Number != 2.5 {
		t.Errorf("numeric value not preserved: %+v", e.Value)
	}
}

func TestLoadAlternateKeys(t *testing.T) {
	data := `{
		"entities": [
			{"name": "Alpha", "category": "corporation"},
			{"name": "Beta"}
		],
		"relationships": [
			{"source": "Alpha", "target": "Beta", "relationship": "owns"},
			{"source": "Alpha", "target": "Ghost"},
			{"source": "Beta", "target": "Alpha"}
		]
	}`

	s := New()
	rep, err := s.LoadJSON([]byte(data))
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if rep.Nodes != 2 || rep.Links != 1 || rep.SkippedLinks != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	alpha, _ := s.NodeByName("alpha")
	if alpha.Category != CategoryCorporation {
		t.Errorf("expected category from 'category' key, got %q", alpha.Category)
	}
	if s.Edges()[0].Label != "owns" {
		t.Errorf("expected label from 'relationship' key, got %q", s.Edges()[0].Label)
	}
}

func TestLoadForeignIDs(t *testing.T) {
	data := `{"data": {
		"nodes": [{"id": "x7", "name": "X"}, {"id": "y9", "name": "Y"}],
		"links": [{"source": "x7", "target": "y9", "type": "pays"}]
	}}`

	s := New()
	rep, err := s.LoadJSON([]byte(data))
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if rep.Links != 1 {
		t.Fatalf("expected 1 link, got %+v", rep)
	}
	e := s.Edges()[0]
	if !strings.HasPrefix(e.Source, "node_") || !strings.HasPrefix(e.Target, "node_") {
		t.Errorf("expected translated ids, got %s->%s", e.Source, e.Target)
	}
}

func TestParseSnapshotRepairs(t *testing.T) {
	data := `{"nodes": [{"name": "A"}, {"name": "B"},], "links": [{"source": "A", "target": "B"},]}`

	snap, err := ParseSnapshot([]byte(data))
	if err != nil {
		t.Fatalf("ParseSnapshot failed: %v", err)
	}
	if len(snap.Nodes) != 2 || len(snap.Links) != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestLoadJSONEmpty(t *testing.T) {
	s := New()
	if _, err := s.LoadJSON([]byte("  ")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestValueJSON(t *testing.T) {
	var v struct {
		A Value `json:"a"`
		B Value `json:"b"`
		C Value `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 3.5, "b": "ten million", "c": "42"}`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !v.A.Numeric || v.A.Number != 3.5 {
		t.Errorf("expected numeric 3.5, got %+v", v.A)
	}
	if v.B.Numeric || v.B.Text != "ten million" {
		t.Errorf("expected text value, got %+v", v.B)
	}
	if !v.C.Numeric || v.C.Number != 42 {
		t.Errorf("expected numeric string to parse, got %+v", v.C)
	}

	out, _ := json.Marshal(Edge{Source: "a", Target: "b", Status: StatusConfirmed})
	if strings.Contains(string(out), "value") {
		t.Errorf("expected zero value omitted, got %s", out)
	}
}

func TestSnapshotSchema(t *testing.T) {
	data, err := SnapshotSchema()
	if err != nil {
		t.Fatalf("SnapshotSchema failed: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %s", data)
	}
	for _, key := range []string{"nodes", "links", "version"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema missing property %q", key)
		}
	}
}

func TestExportDOT(t *testing.T) {
	s := New()
	a := mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	c := mustNode(t, s, "C", "")
	mustEdge(t, s, a.ID, b.ID, "owns", StatusSuspected)
	mustEdge(t, s, b.ID, c.ID, "owned", StatusFormer)

	dot := s.ExportDOT()
	if !strings.HasPrefix(dot, "digraph lombard {") {
		t.Errorf("unexpected header: %q", dot)
	}
	if !strings.Contains(dot, `"node_1" -> "node_2" [label="owns", style=dashed]`) {
		t.Errorf("missing suspected edge:\n%s", dot)
	}
	if !strings.Contains(dot, "style=dotted") {
		t.Errorf("missing former edge style:\n%s", dot)
	}
}

func TestRemovedIDNotAcceptedAgain(t *testing.T) {
	s := New()
	mustNode(t, s, "A", "")
	b := mustNode(t, s, "B", "")
	s.RemoveNode(b.ID)

	again, _ := s.AddNode(NodeInput{ID: b.ID, Name: "B again"})
	if again.ID == b.ID {
		t.Errorf("removed id %s was handed out again", b.ID)
	}

	custom, _ := s.AddNode(NodeInput{ID: "acme", Name: "Acme"})
	s.RemoveNode(custom.ID)
	back, _ := s.AddNode(NodeInput{ID: "acme", Name: "Acme"})
	if back.ID == "acme" {
		t.Error("removed custom id was handed out again")
	}

	s.Clear()
	fresh, _ := s.AddNode(NodeInput{ID: b.ID, Name: "B"})
	if fresh.ID != b.ID {
		t.Errorf("expected Clear to forget retired ids, got %q", fresh.ID)
	}
}

func TestLoadSkipsLinkToUnknownInternalID(t *testing.T) {
	data := `{"nodes": [{"id": "a", "name": "A"}, {"id": "b", "name": "B"}, {"id": "c", "name": "C"}],
		"links": [{"source": "a", "target": "node_3"}, {"source": "a", "target": "b"}]}`

	s := New()
	rep, err := s.LoadJSON([]byte(data))
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if rep.Links != 1 || rep.SkippedLinks != 1 {
		t.Fatalf("expected the link to node_3 to be skipped, got %+v", rep)
	}
	c, _ := s.NodeByName("C")
	for _, e := range s.Edges() {
		if e.Touches(c.ID) {
			t.Errorf("link attached to unrelated node %s: %+v", c.ID, e)
		}
	}
}

func TestReloadKeepsIDsAndRetirements(t *testing.T) {
	s := New()
	for _, name := range []string{"A", "B", "C", "D"} {
		mustNode(t, s, name, "")
	}
	acme, _ := s.AddNode(NodeInput{ID: "acme", Name: "Acme"})
	mustEdge(t, s, "node_3", "node_4", "owns", "")
	s.RemoveNode("node_2")
	s.RemoveNode(acme.ID)

	data, err := s.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	reopened := New()
	if _, err := reopened.LoadJSON(data); err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}

	for id, name := range map[string]string{"node_1": "A", "node_3": "C", "node_4": "D"} {
		if n, ok := reopened.Node(id); !ok || n.Name != name {
			t.Errorf("%s: expected %q after reopen, got %+v", id, name, n)
		}
	}
	if _, ok := reopened.Edge("node_3", "node_4"); !ok {
		t.Error("edge between node_3 and node_4 lost")
	}

	next := mustNode(t, reopened, "E", "")
	if next.ID != "node_5" {
		t.Errorf("expected node_5 after reopen, got %q", next.ID)
	}
	for _, id := range []string{"node_2", "acme"} {
		if n, _ := reopened.AddNode(NodeInput{ID: id, Name: "Again " + id}); n.ID == id {
			t.Errorf("id %s retired in the earlier session was handed out", id)
		}
	}
}

func TestRestore(t *testing.T) {
	s := New()
	mustNode(t, s, "A", "")
	before := s.Export()
	b := mustNode(t, s, "B", "")
	mustEdge(t, s, "node_1", b.ID, "owns", "")
	after := s.Export()

	if _, err := s.Restore(before); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if s.NodeCount() != 1 || s.EdgeCount() != 0 {
		t.Fatalf("expected only A after restore, got %d nodes, %d edges", s.NodeCount(), s.EdgeCount())
	}
	c := mustNode(t, s, "C", "")
	if c.ID == b.ID {
		t.Errorf("id %s of the undone node was handed out again", b.ID)
	}

	if _, err := s.Restore(after); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if n, ok := s.Node(b.ID); !ok || n.Name != "B" {
		t.Errorf("expected B back under %s, got %+v", b.ID, n)
	}
	if _, ok := s.Edge("node_1", b.ID); !ok {
		t.Error("edge lost across restore")
	}
	if n, _ := s.AddNode(NodeInput{ID: c.ID, Name: "C again"}); n.ID == c.ID {
		t.Errorf("id %s dropped by the restore was handed out again", c.ID)
	}
}
