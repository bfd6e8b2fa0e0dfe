// Package parallel runs independent tasks with a concurrency limit. The
// gallery command uses it to render every layout at once.
package parallel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/lombard/internal/ui"
)

// Result holds the outcome of a parallel task.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Output  string
	Elapsed time.Duration
}

// Task is a function that runs in parallel. Output is a short summary, such
// as the file a task wrote.
type Task struct {
	Name string
	Fn   func(ctx context.Context) (string, error)
}

// Run executes tasks in parallel with the given concurrency limit and
// returns results in the order tasks were submitted. Progress lines go to
// progress when it is non-nil. Tasks not yet started when ctx is cancelled
// fail with the context error.
func Run(ctx context.Context, tasks []Task, concurrency int, progress io.Writer) []Result {
	if concurrency < 1 {
		concurrency = 4
	}

	results := make([]Result, len(tasks))
	var mu sync.Mutex
	report := func(format string, args ...any) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(progress, format, args...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			start := time.Now()
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: task.Name, Err: err}
				return nil
			}
			report("  %s %s...\n", ui.Subtle.Sprint("⟳"), task.Name)

			output, err := task.Fn(gctx)
			elapsed := time.Since(start)

			results[i] = Result{Name: task.Name, OK: err == nil, Err: err, Output: output, Elapsed: elapsed}
			if err != nil {
				report("  %s %s %s\n", ui.StatusIcon(false), task.Name, ui.Bad.Sprintf("(%v)", err))
			} else {
				report("  %s %s %s %s\n", ui.StatusIcon(true), task.Name, output, ui.Subtle.Sprintf("%.1fs", elapsed.Seconds()))
			}
			return nil // collect results instead of failing the group
		})
	}

	_ = g.Wait()
	return results
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK {
			out = append(out, r)
		}
	}
	return out
}
