package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/lombard/internal/engine"
	"github.com/msalah0e/lombard/internal/graph"
	"github.com/msalah0e/lombard/internal/layout"
	"github.com/msalah0e/lombard/internal/logger"
	"github.com/msalah0e/lombard/internal/parallel"
	"github.com/msalah0e/lombard/internal/render"
	"github.com/msalah0e/lombard/internal/ui"
	"github.com/msalah0e/lombard/internal/watch"
)

// drawFlags are shared by every command that draws.
type drawFlags struct {
	layout    string
	curvature float64
	dates     bool
	noTitle   bool
	noLabels  bool
}

func (d *drawFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&d.layout, "layout", "l", "", "Layout: "+layoutList())
	cmd.Flags().Float64Var(&d.curvature, "curvature", -1, "Arc curvature (0 draws straight lines)")
	cmd.Flags().BoolVar(&d.dates, "dates", false, "Label relationships with their dates")
	cmd.Flags().BoolVar(&d.noTitle, "no-title", false, "Leave out the title card")
	cmd.Flags().BoolVar(&d.noLabels, "no-labels", false, "Leave out entity names")
	_ = cmd.RegisterFlagCompletionFunc("layout", layoutCompletionFunc)
}

// apply configures e and returns the SVG options to draw with.
func (d *drawFlags) apply(e *engine.Engine) (render.SVGOptions, error) {
	if d.layout != "" {
		if err := e.SetLayout(d.layout); err != nil {
			return render.SVGOptions{}, err
		}
	}
	if d.curvature >= 0 {
		if err := e.SetCurvature(d.curvature); err != nil {
			return render.SVGOptions{}, err
		}
	}
	if d.dates {
		e.SetShowDates(true)
	}

	opts := render.DefaultSVGOptions()
	opts.TitleCard = cfg.Render.TitleCard && !d.noTitle
	opts.Labels = !d.noLabels
	return opts, nil
}

func layoutList() string {
	names := layout.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return strings.Join(out, ", ")
}

func svgBytes(f render.Frame, opts render.SVGOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, f, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func defaultSVGPath() string {
	return strings.TrimSuffix(networkFile, filepath.Ext(networkFile)) + ".svg"
}

func layoutCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:               "layout [name]",
		Short:             "List layouts, or print settled positions for one",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: layoutCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				ui.Banner("layouts")
				rows := make([][]string, 0, 7)
				for _, n := range layout.Names() {
					s, _ := layout.Lookup(string(n))
					mark := ""
					if string(n) == cfg.Layout.Default {
						mark = ui.Good.Sprint("default")
					}
					rows = append(rows, []string{string(n), s.Kind().String(), mark})
				}
				ui.Table([]string{"LAYOUT", "KIND", ""}, rows)
				return
			}

			e := mustOpen()
			if err := e.SetLayout(args[0]); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			frame, ticks := e.Settle(cfg.Solver.MaxTicks)

			if jsonOutput {
				printJSON(frame)
				return
			}

			ui.Banner(fmt.Sprintf("%s layout, settled in %d ticks", args[0], ticks))
			rows := make([][]string, len(frame.Nodes))
			for i, n := range frame.Nodes {
				pinned := ""
				if n.Pinned {
					pinned = "pinned"
				}
				rows[i] = []string{n.ID, ui.Truncate(n.Name, 32), fmt.Sprintf("%8.1f", n.Position.X), fmt.Sprintf("%8.1f", n.Position.Y), pinned}
			}
			ui.Table([]string{"ID", "NAME", "X", "Y", ""}, rows)
			for _, t := range frame.Axis {
				fmt.Printf("  %s %s at x=%.1f\n", ui.Subtle.Sprint("axis"), t.Label, t.X)
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the frame as JSON")
	return cmd
}

func renderCmd() *cobra.Command {
	var out string
	var draw drawFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the network to SVG",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()
			opts, err := draw.apply(e)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			frame, ticks := e.Settle(cfg.Solver.MaxTicks)

			data, err := svgBytes(frame, opts)
			if err == nil {
				if out == "" {
					out = defaultSVGPath()
				}
				err = writeAtomic(out, data)
			}
			if err != nil {
				ui.Bad.Printf("  Failed to render: %v\n", err)
				os.Exit(1)
			}

			ui.Good.Printf("  %s Wrote %s %s\n", ui.StatusIcon(true), ui.Brand.Sprint(out),
				ui.Subtle.Sprintf("(%s, %d entities, %d ticks)", e.Layout(), len(frame.Nodes), ticks))
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: snapshot name with .svg)")
	draw.register(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	var format, out string
	var draw drawFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the network as JSON, Graphviz DOT or SVG",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()

			var data []byte
			var err error
			switch strings.ToLower(format) {
			case "json":
				e.View(func(s *graph.Store) { data, err = s.ExportJSON() })
			case "dot":
				e.View(func(s *graph.Store) { data = []byte(s.ExportDOT()) })
			case "svg":
				var opts render.SVGOptions
				if opts, err = draw.apply(e); err == nil {
					frame, _ := e.Settle(cfg.Solver.MaxTicks)
					data, err = svgBytes(frame, opts)
				}
			default:
				err = fmt.Errorf("unknown format %q (available: json, dot, svg)", format)
			}
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			if out == "" {
				os.Stdout.Write(data)
				return
			}
			if err := writeAtomic(out, data); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Wrote %s\n", ui.StatusIcon(true), ui.Brand.Sprint(out))
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "json, dot or svg")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default stdout)")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"json", "dot", "svg"}, cobra.ShellCompDirectiveNoFileComp))
	draw.register(cmd)
	return cmd
}

func galleryCmd() *cobra.Command {
	var dir string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Render every layout side by side",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(networkFile)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			snap, err := graph.ParseSnapshot(data)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if dir == "" {
				dir = strings.TrimSuffix(networkFile, filepath.Ext(networkFile)) + "-gallery"
			}
			if concurrency < 1 {
				concurrency = cfg.Gallery.Concurrency
			}

			ui.Banner(fmt.Sprintf("gallery of %d layouts", len(layout.Names())))

			var tasks []parallel.Task
			for _, name := range layout.Names() {
				tasks = append(tasks, parallel.Task{
					Name: string(name),
					Fn: func(ctx context.Context) (string, error) {
						return renderGalleryItem(snap, name, dir)
					},
				})
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			results := parallel.Run(ctx, tasks, concurrency, os.Stdout)

			failed := parallel.Failed(results)
			fmt.Println()
			fmt.Printf("  %d of %d layouts rendered into %s\n", len(results)-len(failed), len(results), ui.Brand.Sprint(dir))
			for _, r := range failed {
				var missing *layout.MissingDataError
				if !errors.As(r.Err, &missing) {
					os.Exit(1)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", "", "Output directory (default: <snapshot>-gallery)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Layouts rendered at once (default from config)")
	return cmd
}

// renderGalleryItem lays out snap with one strategy in its own engine and
// writes <dir>/<layout>.svg.
func renderGalleryItem(snap graph.Snapshot, name layout.Name, dir string) (string, error) {
	store := graph.New()
	if _, err := store.Load(snap); err != nil {
		return "", err
	}
	e, err := newEngine(string(layout.Force), store)
	if err != nil {
		return "", err
	}
	if err := e.SetLayout(string(name)); err != nil {
		return "", err
	}
	frame, _ := e.Settle(cfg.Solver.MaxTicks)

	opts := render.DefaultSVGOptions()
	opts.TitleCard = cfg.Render.TitleCard
	data, err := svgBytes(frame, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, string(name)+".svg")
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func watchCmd() *cobra.Command {
	var out string
	var draw drawFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the SVG whenever the snapshot changes",
		Long: `Watch the snapshot file and keep an SVG in sync with it. Each change
reloads the network and animates the solver; the SVG is rewritten a few
times a second while the layout settles.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustOpen()
			opts, err := draw.apply(e)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if out == "" {
				out = defaultSVGPath()
			}

			w, err := watch.New(networkFile, watch.DefaultDebounce)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ui.Banner("watch")
			fmt.Printf("  Watching %s, writing %s %s\n", ui.Brand.Sprint(w.Path()), ui.Brand.Sprint(out), ui.Subtle.Sprint("(Ctrl-C to stop)"))

			const flushEvery = 250 * time.Millisecond
			var lastWrite time.Time
			flush := func(f render.Frame) {
				data, err := svgBytes(f, opts)
				if err == nil {
					err = writeAtomic(out, data)
				}
				if err != nil {
					logger.Error("writing svg failed", "file", out, "error", err)
					return
				}
				lastWrite = time.Now()
			}
			flush(e.Frame())

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				interval := time.Duration(cfg.Solver.FrameMS) * time.Millisecond
				return e.Run(gctx, interval, func(f render.Frame) {
					if f.Alpha < cfg.Solver.AlphaMin || time.Since(lastWrite) >= flushEvery {
						flush(f)
					}
				})
			})
			g.Go(func() error {
				return w.Run(gctx, func(data []byte) error {
					rep, err := e.LoadJSON(data)
					if err != nil {
						return err
					}
					if draw.layout != "" {
						if err := e.SetLayout(draw.layout); err != nil {
							logger.Warn("layout does not apply to the new snapshot", "layout", draw.layout, "error", err)
						}
					}
					fmt.Printf("  %s %s %s\n", ui.StatusIcon(true), time.Now().Format("15:04:05"),
						ui.Subtle.Sprintf("%d entities, %d relationships", rep.Nodes, rep.Links))
					return nil
				})
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: snapshot name with .svg)")
	draw.register(cmd)
	return cmd
}
