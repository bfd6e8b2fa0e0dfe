package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/lombard/internal/engine"
	"github.com/msalah0e/lombard/internal/extract"
	"github.com/msalah0e/lombard/internal/graph"
	"github.com/msalah0e/lombard/internal/ui"
)

// readInput reads a file argument, or stdin for "-" or no argument.
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func inputName(args []string) string {
	if len(args) == 0 || args[0] == "-" {
		return "stdin"
	}
	return args[0]
}

func ingestCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "ingest [extraction.json|-]",
		Short: "Add AI-extracted entities and relationships",
		Long: `Add the output of an AI extraction to the network.

The input holds {"entities": [...], "relationships": [...]} with importance on
a 1-5 scale and relationships naming their endpoints. Malformed or
double-encoded JSON is repaired. Entities that already exist and
relationships whose endpoints cannot be found are skipped.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := readInput(args)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			res, err := extract.Parse(string(data))
			if err != nil {
				ui.Bad.Printf("  Failed to parse extraction: %v\n", err)
				os.Exit(1)
			}

			e := mustOpen()
			var rep extract.Report
			err = e.Batch(func(tx *engine.Tx) error {
				rep = extract.Apply(tx, res)
				return nil
			})
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if !dryRun {
				mustSave(e)
				record(e, "ingest", inputName(args), fmt.Sprintf("+%d entities, +%d relationships", rep.NodesAdded, rep.EdgesAdded))
			}

			ui.Banner("ingest")
			fmt.Printf("  %s %d entities, %d relationships added\n", ui.StatusIcon(true), rep.NodesAdded, rep.EdgesAdded)
			if rep.SkippedNodes+rep.SkippedEdges > 0 {
				fmt.Printf("  %s %d entities, %d relationships skipped %s\n", ui.WarnIcon(), rep.SkippedNodes, rep.SkippedEdges,
					ui.Subtle.Sprint("(run with -v for details)"))
			}
			if dryRun {
				ui.Subtle.Println("  Dry run: snapshot not written.")
			}
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be added without saving")
	return cmd
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <snapshot.json|->",
		Short: "Replace the network with a snapshot from elsewhere",
		Long: `Replace the network with another snapshot. Alternate key names
(entities, edges, relationships, category) are accepted, ids are remapped
and records that do not fit are skipped.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := readInput(args)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			e := openOrEmpty()
			rep, err := e.LoadJSON(data)
			if err != nil {
				ui.Bad.Printf("  Failed to load snapshot: %v\n", err)
				os.Exit(1)
			}
			mustSave(e)
			record(e, "load", inputName(args), fmt.Sprintf("%d skipped", rep.SkippedNodes+rep.SkippedLinks))

			ui.Good.Printf("  %s Loaded %d entities and %d relationships into %s\n",
				ui.StatusIcon(true), rep.Nodes, rep.Links, ui.Brand.Sprint(networkFile))
			if rep.SkippedNodes+rep.SkippedLinks > 0 {
				ui.Warn.Printf("  %s Skipped %d entities and %d relationships\n", ui.WarnIcon(), rep.SkippedNodes, rep.SkippedLinks)
			}
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a network snapshot",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			data, err := graph.SnapshotSchema()
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		},
	}
}
