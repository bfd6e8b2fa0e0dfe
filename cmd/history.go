package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/msalah0e/lombard/internal/activity"
	"github.com/msalah0e/lombard/internal/engine"
	"github.com/msalah0e/lombard/internal/graph"
	"github.com/msalah0e/lombard/internal/logger"
	"github.com/msalah0e/lombard/internal/ui"
)

// record journals an edit next to the snapshot, with the network as it was
// before the edit so it can be undone. A failed write is logged and
// otherwise ignored.
func record(e *engine.Engine, action, subject, details string) {
	st := e.Stats()
	entry := activity.Entry{
		Action:  action,
		Subject: subject,
		Details: details,
		Nodes:   st.Nodes,
		Links:   st.Edges,
	}
	if before, ok := e.LastChange(); ok {
		data, err := json.Marshal(before)
		if err != nil {
			logger.Warn("edit recorded without undo state", "action", action, "error", err)
		}
		entry.Before = data
	}
	err := activity.Open(networkFile).Log(entry)
	if err != nil {
		logger.Warn("journal write failed", "file", activity.PathFor(networkFile), "error", err)
	}
}

func historyCmd() *cobra.Command {
	var count int
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"log"},
		Short:   "Show the edits made to the network",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := activity.Open(networkFile).Read(count)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if asJSON {
				for i := range entries {
					entries[i].Before = nil
				}
				printJSON(entries)
				return
			}

			ui.Banner("history")
			if len(entries) == 0 {
				fmt.Println("  No edits recorded yet.")
				return
			}
			printEntries(entries)
			fmt.Printf("\n  Showing %d most recent entries\n", len(entries))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	cmd.AddCommand(historySearchCmd(), historyStatsCmd(), historyClearCmd())
	return cmd
}

func historySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search recorded edits",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := activity.Open(networkFile).Search(args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Printf("  No entries matching %q\n", args[0])
				return
			}

			ui.Banner("history search")
			printEntries(results)
			fmt.Printf("\n  %d results\n", len(results))
		},
	}
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count recorded edits by action",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("history stats")

			entries, err := activity.Open(networkFile).Read(0)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No edits recorded yet.")
				return
			}

			counts := activity.Counts(entries)
			actions := make([]string, 0, len(counts))
			for a := range counts {
				actions = append(actions, a)
			}
			sort.Strings(actions)

			fmt.Printf("  Total entries: %d\n\n", len(entries))
			for _, a := range actions {
				fmt.Printf("    %-12s %d\n", a, counts[a])
			}
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the edit journal",
		Run: func(cmd *cobra.Command, args []string) {
			if err := activity.Open(networkFile).Clear(); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s History cleared\n", ui.StatusIcon(true))
		},
	}
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last recorded edit",
		Long: `Put the network back as it was before the last recorded edit. Undo can
be repeated, and redo reapplies what was undone until a new edit is made.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runStep(activity.ActionUndo, "Undid")
		},
	}
}

func redoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Reapply the last undone edit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runStep(activity.ActionRedo, "Redid")
		},
	}
}

func runStep(action, verb string) {
	top, ok, err := step(action)
	if err != nil {
		ui.Bad.Printf("  %v\n", err)
		os.Exit(1)
	}
	if !ok {
		ui.Warn.Printf("  Nothing to %s\n", action)
		os.Exit(1)
	}
	ui.Good.Printf("  %s %s %s %s\n", ui.StatusIcon(true), verb, editName(top), ui.Brand.Sprint(top.Subject))
}

// step restores the state at the top of the undo or redo stack, saves it
// and journals the step. It returns the entry it went back through, or
// false if the stack is empty.
func step(action string) (activity.Entry, bool, error) {
	undo, redo, err := activity.Open(networkFile).Stacks(engine.MaxHistory)
	if err != nil {
		return activity.Entry{}, false, err
	}
	stack := undo
	if action == activity.ActionRedo {
		stack = redo
	}
	if len(stack) == 0 {
		return activity.Entry{}, false, nil
	}
	top := stack[len(stack)-1]

	var snap graph.Snapshot
	if err := json.Unmarshal(top.Before, &snap); err != nil {
		return top, false, fmt.Errorf("journal entry from %s: %w", top.Timestamp.Format("Jan 02 15:04"), err)
	}
	e := openOrEmpty()
	if _, err := e.Restore(snap); err != nil {
		return top, false, err
	}
	if err := saveNetwork(e); err != nil {
		return top, false, err
	}
	record(e, action, top.Subject, editName(top))
	return top, true, nil
}

// editName names the edit an entry stands for. Undo and redo entries carry
// the name of the edit they moved in Details.
func editName(en activity.Entry) string {
	if en.Action == activity.ActionUndo || en.Action == activity.ActionRedo {
		return en.Details
	}
	return en.Action
}

func printEntries(entries []activity.Entry) {
	var rows [][]string
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04"),
			e.Action,
			ui.Truncate(e.Subject, 32),
			ui.Truncate(e.Details, 30),
			fmt.Sprintf("%d/%d", e.Nodes, e.Links),
		})
	}
	ui.Table([]string{"Time", "Action", "Subject", "Details", "Nodes/Links"}, rows)
}
