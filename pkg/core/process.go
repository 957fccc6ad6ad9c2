package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ConcurrentExecutor limits the number of rule evaluations running at once.
// Each analysis creates its own executor.
type ConcurrentExecutor struct {
	ctx  context.Context
	sema *semaphore.Weighted
}

// NewConcurrentExecutor creates an executor running at most par tasks.
func NewConcurrentExecutor(par int) *ConcurrentExecutor {
	if par < 1 {
		par = 1
	}
	return &ConcurrentExecutor{
		ctx:  context.Background(),
		sema: semaphore.NewWeighted(int64(par)),
	}
}

// execute runs task on eg once a slot is free.
func (ce *ConcurrentExecutor) execute(eg *errgroup.Group, task func() error) {
	if err := ce.sema.Acquire(ce.ctx, 1); err != nil {
		eg.Go(func() error {
			return fmt.Errorf("failed to acquire semaphore: %w", err)
		})
		return
	}
	eg.Go(func() error {
		defer ce.sema.Release(1)
		return task()
	})
}

