// Package parallel runs independent read-only probes concurrently.
package parallel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of a parallel task.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Output  string
	Elapsed time.Duration
}

// Task is a function that runs in parallel.
type Task struct {
	Name string
	Fn   func(ctx context.Context) (string, error)
}

// Run executes tasks with at most limit running at once and returns the
// results in submission order. A failing task never cancels the others.
func Run(ctx context.Context, tasks []Task, limit int) []Result {
	if limit < 1 {
		limit = 4
	}

	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, task := range tasks {
		g.Go(func() error {
			start := time.Now()
			output, err := task.Fn(gctx)
			results[i] = Result{
				Name:    task.Name,
				OK:      err == nil,
				Err:     err,
				Output:  output,
				Elapsed: time.Since(start),
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Outputs maps task names to their output, skipping failures.
func Outputs(results []Result) map[string]string {
	out := make(map[string]string, len(results))
	for _, r := range results {
		if r.OK {
			out[r.Name] = r.Output
		}
	}
	return out
}

// Failed returns the failed results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK {
			out = append(out, r)
		}
	}
	return out
}

// TruncateLines splits text into lines and returns at most n lines.
func TruncateLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return lines
	}
	out := lines[:n:n]
	out = append(out, fmt.Sprintf("... (%d more lines)", len(lines)-n))
	return out
}
