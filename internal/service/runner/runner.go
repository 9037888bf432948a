// Package runner executes independent jobs concurrently and collects one
// result per job, whatever the outcome mix.
package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"FinResearch/internal/domain/models"
)

const DefaultTimeout = 30 * time.Second

// Job is a named operation with its own deadline.
type Job[T any] struct {
	Name    string
	Run     func(ctx context.Context) (T, error)
	Timeout time.Duration
}

// Outcome summarises a finished job for observers.
type Outcome struct {
	Index   int
	Name    string
	Status  models.JobStatus
	Kind    models.ErrorKind
	Message string
	Elapsed time.Duration
}

// Hooks observe job progress. OnStart and OnDone are called from the
// goroutine that invoked RunAll, never concurrently.
type Hooks struct {
	OnStart func(index int, name string)
	OnDone  func(Outcome)
}

type options struct {
	defaultTimeout time.Duration
	hooks          Hooks
}

type Option func(*options)

// WithDefaultTimeout applies to jobs that carry a zero or negative timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.defaultTimeout = d
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}

type completion[T any] struct {
	index   int
	result  models.JobResult[T]
	elapsed time.Duration
}

// RunAll starts every job at once and waits until each has succeeded, failed
// or timed out. The returned slice has one entry per job, in input order.
// A job that outlives its deadline is abandoned; its late result is dropped.
func RunAll[T any](ctx context.Context, jobs []Job[T], opts ...Option) []models.JobResult[T] {
	o := options{defaultTimeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]models.JobResult[T], len(jobs))
	if len(jobs) == 0 {
		return results
	}

	done := make(chan completion[T], len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		if o.hooks.OnStart != nil {
			o.hooks.OnStart(i, job.Name)
		}
		timeout := job.Timeout
		if timeout <= 0 {
			timeout = o.defaultTimeout
		}
		g.Go(func() error {
			start := time.Now()
			r := runOne(ctx, job, timeout)
			done <- completion[T]{index: i, result: r, elapsed: time.Since(start)}
			return nil
		})
	}

	for range jobs {
		c := <-done
		results[c.index] = c.result
		if o.hooks.OnDone != nil {
			o.hooks.OnDone(Outcome{
				Index:   c.index,
				Name:    jobs[c.index].Name,
				Status:  c.result.Status,
				Kind:    c.result.Kind,
				Message: c.result.Message,
				Elapsed: c.elapsed,
			})
		}
	}
	_ = g.Wait()
	return results
}

func runOne[T any](parent context.Context, job Job[T], timeout time.Duration) models.JobResult[T] {
	if job.Run == nil {
		return models.Failed[T](models.ErrInternal, fmt.Sprintf("job %q has no operation", job.Name))
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	// Buffered so an abandoned job can still deliver and exit.
	out := make(chan models.JobResult[T], 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				out <- models.Failed[T](models.ErrInternal, fmt.Sprintf("panic: %v", rec))
			}
		}()
		v, err := job.Run(ctx)
		if err != nil {
			out <- classify[T](ctx, parent, err)
			return
		}
		out <- models.Succeeded(v)
	}()

	select {
	case r := <-out:
		return r
	case <-ctx.Done():
		if parent.Err() != nil {
			return models.Failed[T](models.ErrUnavailable, "cancelled: "+parent.Err().Error())
		}
		return models.TimedOut[T]()
	}
}

func classify[T any](ctx, parent context.Context, err error) models.JobResult[T] {
	kind := models.KindOf(err)
	if kind == models.ErrTimedOut && parent.Err() == nil {
		return models.TimedOut[T]()
	}
	if parent.Err() != nil && ctx.Err() != nil {
		return models.Failed[T](models.ErrUnavailable, "cancelled: "+parent.Err().Error())
	}
	return models.Failed[T](kind, err.Error())
}
