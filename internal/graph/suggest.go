package graph

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

// Suggestion methods.
const (
	MethodTransitive = "transitive"
	MethodShared     = "shared-connections"
)

// DefaultMinConfidence is the cut-off the CLI uses for suggestions.
const DefaultMinConfidence = 0.6

const (
	transitiveConfidence = 0.7
	sharedMinimum        = 2
	sharedBase           = 0.5
	sharedStep           = 0.1
	sharedCap            = 0.9
	agreeStep            = 0.1
	agreeCap             = 0.95
)

// Suggestion is an unconnected pair the structure of the graph hints at.
type Suggestion struct {
	Source     Node     `json:"source"`
	Target     Node     `json:"target"`
	Confidence float64  `json:"confidence"`
	Methods    []string `json:"methods"`
	Evidence   []string `json:"evidence"`
}

// Suggest proposes missing relationships from two signals: a path A→B→C
// hints at A–C, and two nodes sharing at least two neighbours hint at each
// other. Each further signal for the same pair adds 0.1 confidence, up to
// 0.95. Suggestions below minConfidence are dropped and the rest are sorted
// by confidence, highest first.
func (s *Store) Suggest(minConfidence float64) []Suggestion {
	var out []Suggestion
	index := make(map[string]int)
	add := func(src, tgt, method, evidence string, confidence float64) {
		key := PairKey(src, tgt)
		if i, ok := index[key]; ok {
			sg := &out[i]
			sg.Confidence = math.Min(sg.Confidence+agreeStep, agreeCap)
			if !slices.Contains(sg.Methods, method) {
				sg.Methods = append(sg.Methods, method)
			}
			sg.Evidence = append(sg.Evidence, evidence)
			return
		}
		index[key] = len(out)
		out = append(out, Suggestion{
			Source:     *s.nodes[src],
			Target:     *s.nodes[tgt],
			Confidence: confidence,
			Methods:    []string{method},
			Evidence:   []string{evidence},
		})
	}

	for _, first := range s.edges {
		for _, second := range s.edges {
			if first.Target != second.Source || first.Source == second.Target {
				continue
			}
			if s.pairs[PairKey(first.Source, second.Target)] {
				continue
			}
			evidence := fmt.Sprintf("%s via %s, then %s",
				labelOr(first.Label), s.nodes[first.Target].Name, labelOr(second.Label))
			add(first.Source, second.Target, MethodTransitive, evidence, transitiveConfidence)
		}
	}

	adj := make(map[string]map[string]bool, len(s.order))
	for _, e := range s.edges {
		for _, id := range []string{e.Source, e.Target} {
			if adj[id] == nil {
				adj[id] = make(map[string]bool)
			}
		}
		adj[e.Source][e.Target] = true
		adj[e.Target][e.Source] = true
	}
	for i, a := range s.order {
		for _, b := range s.order[i+1:] {
			if s.pairs[PairKey(a, b)] {
				continue
			}
			var shared []string
			for _, c := range s.order {
				if adj[a][c] && adj[b][c] {
					shared = append(shared, s.nodes[c].Name)
				}
			}
			if len(shared) < sharedMinimum {
				continue
			}
			confidence := math.Min(sharedBase+sharedStep*float64(len(shared)), sharedCap)
			add(a, b, MethodShared, "both connected to: "+strings.Join(shared, ", "), confidence)
		}
	}

	kept := out[:0]
	for _, sg := range out {
		if sg.Confidence >= minConfidence {
			kept = append(kept, sg)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confidence > kept[j].Confidence })
	return kept
}

func labelOr(label string) string {
	if label == "" {
		return "connected"
	}
	return label
}
