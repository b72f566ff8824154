package batch

import (
	"context"
	"runtime"
	"sync"

	"mercator-hq/importcheck/pkg/imports"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called after each file completes. Calls are serialized.
type ProgressFunc func(done, total int, result *imports.Result)

// Runner validates files with bounded concurrency.
type Runner struct {
	service     *imports.Service
	concurrency int
	origin      string
	commit      string
	progress    ProgressFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency limits the number of files validated at once. Values
// below one use the number of CPUs.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithOrigin stamps every result with origin.
func WithOrigin(origin string) Option {
	return func(r *Runner) { r.origin = origin }
}

// WithCommit stamps every result with a git commit.
func WithCommit(commit string) Option {
	return func(r *Runner) { r.commit = commit }
}

// WithProgress reports each completed file.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner creates a batch runner on top of service.
func NewRunner(service *imports.Service, opts ...Option) *Runner {
	r := &Runner{
		service: service,
		origin:  imports.OriginCLI,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = runtime.NumCPU()
	}
	return r
}

// Run validates paths and returns one result per path in input order. The
// error is non-nil only when ctx is canceled; invalid files are results.
func (r *Runner) Run(ctx context.Context, paths []string) ([]*imports.Result, error) {
	results := make([]*imports.Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var (
		mu   sync.Mutex
		done int
	)

	for i, path := range paths {
		g.Go(func() error {
			result, err := r.service.Validate(ctx, imports.Input{
				Path:   path,
				Origin: r.origin,
				Commit: r.commit,
			})
			if err != nil {
				return err
			}
			results[i] = result

			if r.progress != nil {
				mu.Lock()
				done++
				r.progress(done, len(paths), result)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Totals summarizes a batch.
type Totals struct {
	Files   int `json:"files"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Errors  int `json:"errors"` // Files that could not be decoded
}

// Tally counts the outcomes of results.
func Tally(results []*imports.Result) Totals {
	t := Totals{Files: len(results)}
	for _, r := range results {
		switch {
		case r.DecodeError != nil:
			t.Errors++
		case r.Valid:
			t.Valid++
		default:
			t.Invalid++
		}
	}
	return t
}

// OK reports whether every file validated.
func (t Totals) OK() bool {
	return t.Valid == t.Files
}
