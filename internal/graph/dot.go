package graph

import (
	"fmt"
	"strings"
)

var dotStyle = map[Status]string{
	StatusConfirmed: "solid",
	StatusSuspected: "dashed",
	StatusFormer:    "dotted",
}

// ExportDOT renders the network as a Graphviz digraph. Node and edge order
// follow insertion order.
func (s *Store) ExportDOT() string {
	var b strings.Builder
	b.WriteString("digraph lombard {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  splines=curved;\n")
	b.WriteString("  node [shape=circle, fontname=\"Georgia\"];\n\n")

	for _, id := range s.order {
		n := s.nodes[id]
		label := n.Name
		if n.Date != "" {
			label += "\\n" + n.Date
		}
		b.WriteString(fmt.Sprintf("  %q [label=%q, group=%q, width=%.2f];\n", n.ID, label, n.Category, 0.2+n.Importance*0.4))
	}

	b.WriteString("\n")
	for _, e := range s.edges {
		label := e.Label
		if !e.Value.IsZero() {
			label += " (" + e.Value.String() + ")"
		}
		b.WriteString(fmt.Sprintf("  %q -> %q [label=%q, style=%s];\n", e.Source, e.Target, label, dotStyle[e.Status]))
	}

	b.WriteString("}\n")
	return b.String()
}
