package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/campaign-runner/internal/logging"
	"github.com/jonathan/campaign-runner/internal/types"
)

// Defaults for the execution discipline.
const (
	DefaultConcurrency = 10
	DefaultDelay       = 5 * time.Second
)

// ContactProcessor produces exactly one result for a contact.
type ContactProcessor interface {
	Process(ctx context.Context, c types.Contact) types.ResultRecord
}

// Runner processes a contact list either sequentially (Concurrency 1) or on a
// bounded worker pool (Concurrency > 1).
type Runner struct {
	Processor   ContactProcessor
	Concurrency int
	// Delay separates consecutive contacts in sequential mode only.
	Delay  time.Duration
	Logger logging.Logger
	// OnResult is invoked once per finished contact. Calls are serialized.
	OnResult func(types.ResultRecord)

	resultMu sync.Mutex
}

// Run processes every contact and returns the results in input order. If ctx
// is done before all contacts were started, Run returns the results gathered
// so far together with ctx.Err(); a call that was already submitted is never
// retracted.
func (r *Runner) Run(ctx context.Context, contacts []types.Contact) ([]types.ResultRecord, error) {
	collector := NewCollector(len(contacts))

	var err error
	if r.Concurrency <= 1 {
		err = r.runSequential(ctx, contacts, collector)
	} else {
		err = r.runConcurrent(ctx, contacts, collector)
	}
	return collector.Ordered(), err
}

func (r *Runner) runSequential(ctx context.Context, contacts []types.Contact, collector *Collector) error {
	logger := r.logger()
	for i, c := range contacts {
		if i > 0 && r.Delay > 0 {
			logger.Debug("waiting before next call", logging.Duration("delay", r.Delay))
			if err := sleep(ctx, r.Delay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r.record(collector, r.process(ctx, c))
	}
	return nil
}

func (r *Runner) runConcurrent(ctx context.Context, contacts []types.Contact, collector *Collector) error {
	r.logger().Info("processing contacts concurrently",
		logging.Int("contacts", len(contacts)), logging.Int("workers", r.Concurrency))

	var g errgroup.Group
	g.SetLimit(r.Concurrency)

	for _, c := range contacts {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.record(collector, r.process(ctx, c))
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// process shields the batch from a contact whose processing panics.
func (r *Runner) process(ctx context.Context, c types.Contact) (result types.ResultRecord) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger().Error("contact processing panicked", fmt.Errorf("panic: %v", rec),
				logging.Int("contact", c.Index))
			result = types.FailedResult(c, "")
		}
	}()
	return r.Processor.Process(ctx, c)
}

func (r *Runner) record(collector *Collector, result types.ResultRecord) {
	collector.Add(result)
	if r.OnResult == nil {
		return
	}
	r.resultMu.Lock()
	defer r.resultMu.Unlock()
	r.OnResult(result)
}

func (r *Runner) logger() logging.Logger {
	if r.Logger == nil {
		return logging.Nop()
	}
	return r.Logger
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
