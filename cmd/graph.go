package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/lombard/internal/engine"
	"github.com/msalah0e/lombard/internal/graph"
	"github.com/msalah0e/lombard/internal/ui"
)

func newCmd() *cobra.Command {
	var description string
	var force bool

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Start an empty network snapshot",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := os.Stat(networkFile); err == nil && !force {
				ui.Warn.Printf("  %s already exists (use --force to overwrite)\n", networkFile)
				os.Exit(1)
			}

			e := openOrEmpty()
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			e.Batch(func(tx *engine.Tx) error {
				tx.Clear()
				tx.SetMeta(graph.Meta{Title: title, Description: description})
				return nil
			})
			mustSave(e)
			record(e, "new", title, description)

			ui.Good.Printf("  %s Created %s\n", ui.StatusIcon(true), ui.Brand.Sprint(networkFile))
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Subtitle shown on the title card")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing snapshot")
	return cmd
}

func addCmd() *cobra.Command {
	var (
		category    string
		importance  float64
		date        string
		description string
		id          string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an entity",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()

			in := graph.NodeInput{
				ID:          id,
				Name:        args[0],
				Category:    graph.Category(category),
				Date:        date,
				Description: description,
			}
			if cmd.Flags().Changed("importance") {
				in.Importance = graph.Importance(importance)
			}
			n, err := e.AddNode(in)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			mustSave(e)
			record(e, "add", n.Name, string(n.Category))

			ui.Good.Printf("  %s Added %s (%s, %s)\n", ui.StatusIcon(true), ui.Brand.Sprint(n.Name), n.Category, n.ID)
		},
	}

	cmd.Flags().StringVarP(&category, "type", "t", "", "Category: person, corporation, government, financial, organization")
	cmd.Flags().Float64VarP(&importance, "importance", "i", graph.DefaultImportance, "Importance between 0 and 1")
	cmd.Flags().StringVar(&date, "date", "", "Date or year the entity is tied to")
	cmd.Flags().StringVar(&description, "description", "", "Free text")
	cmd.Flags().StringVar(&id, "id", "", "Explicit id (default node_<n>)")
	return cmd
}

func relateCmd() *cobra.Command {
	var label, status, date, value string

	cmd := &cobra.Command{
		Use:               "relate <from> <to>",
		Short:             "Connect two entities",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: entityCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()
			from, to := mustResolve(e, args[0]), mustResolve(e, args[1])

			_, err := e.AddEdge(graph.EdgeInput{
				Source: from.ID,
				Target: to.ID,
				Label:  label,
				Status: graph.Status(status),
				Date:   date,
				Value:  graph.ParseValue(value),
			})
			if err != nil {
				var dup *graph.DuplicateEdgeError
				if errors.As(err, &dup) {
					ui.Warn.Printf("  %s and %s are already connected\n", from.Name, to.Name)
					os.Exit(1)
				}
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			mustSave(e)
			record(e, "relate", from.Name+" -> "+to.Name, label)

			arrow := "──" + label + "──▶"
			if label == "" {
				arrow = "──▶"
			}
			ui.Good.Printf("  %s %s %s %s\n", ui.StatusIcon(true), ui.Brand.Sprint(from.Name), arrow, ui.Brand.Sprint(to.Name))
		},
	}

	cmd.Flags().StringVarP(&label, "type", "t", "", "Relationship type, e.g. owns, funds, advises")
	cmd.Flags().StringVarP(&status, "status", "s", "confirmed", "confirmed, suspected or former")
	cmd.Flags().StringVar(&date, "date", "", "Date or date range")
	cmd.Flags().StringVar(&value, "value", "", "Amount or other value")
	return cmd
}

func unrelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "unrelate <a> <b>",
		Short:             "Remove the relationship between two entities",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: entityCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()
			a, b := mustResolve(e, args[0]), mustResolve(e, args[1])

			if !e.RemoveEdgeBetween(a.ID, b.ID) {
				ui.Warn.Printf("  %s and %s are not connected\n", a.Name, b.Name)
				os.Exit(1)
			}
			mustSave(e)
			record(e, "unrelate", a.Name+" -- "+b.Name, "")

			ui.Good.Printf("  %s Disconnected %s and %s\n", ui.StatusIcon(true), ui.Brand.Sprint(a.Name), ui.Brand.Sprint(b.Name))
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <entity>",
		Short:             "Remove an entity and its relationships",
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: entityCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()
			n := mustResolve(e, args[0])

			var cut int
			e.View(func(s *graph.Store) { cut = s.Degree(n.ID) })
			e.RemoveNode(n.ID)
			mustSave(e)
			record(e, "remove", n.Name, fmt.Sprintf("%d relationships", cut))

			ui.Good.Printf("  %s Removed %s", ui.StatusIcon(true), ui.Brand.Sprint(n.Name))
			if cut > 0 {
				fmt.Printf(" %s", ui.Subtle.Sprintf("(and %d relationships)", cut))
			}
			fmt.Println()
		},
	}
}

func listCmd() *cobra.Command {
	var jsonOutput, stats bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List entities and relationships",
		Aliases: []string{"ls"},
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()

			if stats {
				if jsonOutput {
					printJSON(e.Stats())
					return
				}
				ui.Banner("stats")
				printStats(e.Stats())
				return
			}
			if jsonOutput {
				printJSON(e.Snapshot())
				return
			}

			nodes, edges := e.Nodes(), e.Edges()
			st := e.Stats()
			snap := e.Snapshot()
			subtitle := networkFile
			if snap.Title != "" {
				subtitle = snap.Title
			}
			ui.Banner(subtitle)

			if len(nodes) == 0 {
				fmt.Println("  Empty network. Get started:")
				fmt.Println()
				ui.Info.Println("  lombard add <name> --type person")
				ui.Info.Println("  lombard relate <from> <to> --type owns")
				ui.Info.Println("  lombard ingest extraction.json")
				return
			}

			names := make(map[string]string, len(nodes))
			rows := make([][]string, len(nodes))
			for i, n := range nodes {
				names[n.ID] = n.Name
				rows[i] = []string{n.ID, ui.Truncate(n.Name, 32), string(n.Category), ui.Importance(n.Importance), n.Date}
			}
			ui.Table([]string{"ID", "NAME", "TYPE", "IMPORTANCE", "DATE"}, rows)
			fmt.Println()

			if len(edges) > 0 {
				rows = rows[:0]
				for _, ed := range edges {
					rows = append(rows, []string{
						ui.Truncate(names[ed.Source], 24),
						ed.Label,
						ui.Truncate(names[ed.Target], 24),
						ui.Status(string(ed.Status)),
						ed.Date,
						ed.Value.String(),
					})
				}
				ui.Table([]string{"FROM", "TYPE", "TO", "STATUS", "DATE", "VALUE"}, rows)
				fmt.Println()
			}

			fmt.Printf("  %s\n", ui.Subtle.Sprintf("%d entities, %d relationships, %d isolated, %d dated",
				st.Nodes, st.Edges, st.Isolated, st.Dated))
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the snapshot as JSON")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print network analytics instead of the listing")
	return cmd
}

func printStats(st graph.Stats) {
	fmt.Printf("  Entities:        %d (%d isolated, %d dated)\n", st.Nodes, st.Isolated, st.Dated)
	fmt.Printf("  Relationships:   %d\n", st.Edges)
	fmt.Printf("  Density:         %.1f%%\n", st.Density*100)
	fmt.Printf("  Average degree:  %.2f\n", st.AvgDegree)

	if len(st.Categories) > 0 {
		cats := make([]graph.Category, 0, len(st.Categories))
		for c := range st.Categories {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool {
			if st.Categories[cats[i]] != st.Categories[cats[j]] {
				return st.Categories[cats[i]] > st.Categories[cats[j]]
			}
			return cats[i] < cats[j]
		})
		fmt.Printf("\n  %s\n", ui.Info.Sprint("Types"))
		for _, c := range cats {
			fmt.Printf("    %-14s %d\n", c, st.Categories[c])
		}
	}

	if len(st.TopConnected) > 0 {
		fmt.Printf("\n  %s\n", ui.Info.Sprint("Most connected"))
		for _, c := range st.TopConnected {
			fmt.Printf("    %-32s %d\n", ui.Truncate(c.Node.Name, 32), c.Degree)
		}
	}
}

func suggestCmd() *cobra.Command {
	var minConfidence float64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest relationships the network structure hints at",
		Long: `Propose missing relationships. A chain A -> B -> C hints at A -- C, and
two entities sharing two or more neighbours hint at each other. Pairs
supported by several hints score higher.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()

			var suggestions []graph.Suggestion
			e.View(func(s *graph.Store) { suggestions = s.Suggest(minConfidence) })

			if jsonOutput {
				printJSON(suggestions)
				return
			}
			if len(suggestions) == 0 {
				ui.Subtle.Println("  No suggestions.")
				return
			}

			rows := make([][]string, len(suggestions))
			for i, sg := range suggestions {
				rows[i] = []string{
					fmt.Sprintf("%.0f%%", sg.Confidence*100),
					ui.Truncate(sg.Source.Name, 24),
					ui.Truncate(sg.Target.Name, 24),
					strings.Join(sg.Methods, ", "),
					ui.Truncate(sg.Evidence[0], 40),
				}
			}
			ui.Table([]string{"CONFIDENCE", "FROM", "TO", "METHOD", "EVIDENCE"}, rows)
		},
	}

	cmd.Flags().Float64Var(&minConfidence, "min", graph.DefaultMinConfidence, "Minimum confidence between 0 and 1")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func showCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:               "show <entity>",
		Short:             "Show an entity and its relationships",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: entityCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()

			var res *graph.ShowResult
			var ok bool
			e.View(func(s *graph.Store) { res, ok = s.Show(args[0]) })
			if !ok {
				ui.Warn.Printf("  unknown entity %q\n", args[0])
				os.Exit(1)
			}

			if jsonOutput {
				printJSON(res)
				return
			}

			n := res.Node
			fmt.Println()
			fmt.Printf("  %s %s\n", ui.Brand.Sprint(n.Name), ui.Subtle.Sprintf("(%s, %s)", n.Category, n.ID))
			if n.Description != "" {
				fmt.Printf("  %s\n", n.Description)
			}
			fmt.Printf("  Importance: %s\n", ui.Importance(n.Importance))
			if n.Date != "" {
				fmt.Printf("  Date:       %s\n", n.Date)
			}
			printShowEdges("Outgoing", "──▶", res.Outgoing)
			printShowEdges("Incoming", "◀──", res.Incoming)
			fmt.Println()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func printShowEdges(title, arrow string, edges []graph.ShowEdge) {
	if len(edges) == 0 {
		return
	}
	fmt.Printf("\n  %s\n", ui.Info.Sprint(title))
	for _, se := range edges {
		extra := []string{ui.Status(string(se.Edge.Status))}
		if se.Edge.Date != "" {
			extra = append(extra, se.Edge.Date)
		}
		if !se.Edge.Value.IsZero() {
			extra = append(extra, se.Edge.Value.String())
		}
		fmt.Printf("    %s %s %s  %s\n", arrow, se.Edge.Label, ui.Brand.Sprint(se.Other.Name), strings.Join(extra, ", "))
	}
}

func searchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search entities by name, type and description",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()

			var results []graph.SearchResult
			e.View(func(s *graph.Store) { results = s.Search(strings.Join(args, " ")) })

			if jsonOutput {
				printJSON(results)
				return
			}
			if len(results) == 0 {
				ui.Subtle.Println("  No matches.")
				return
			}

			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{strconv.Itoa(r.Score), r.Node.ID, r.Node.Name, string(r.Node.Category), ui.Truncate(r.Node.Description, 40)}
			}
			ui.Table([]string{"SCORE", "ID", "NAME", "TYPE", "DESCRIPTION"}, rows)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

// mustResolve finds an entity by id or name, or exits.
func mustResolve(e *engine.Engine, ref string) graph.Node {
	n, ok := e.Resolve(ref)
	if !ok {
		ui.Warn.Printf("  unknown entity %q\n", ref)
		os.Exit(1)
	}
	return n
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		ui.Bad.Printf("  %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
