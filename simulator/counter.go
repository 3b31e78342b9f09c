package simulator

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultReadDelay        = 300 * time.Millisecond
	DefaultIncrementDelay   = 500 * time.Millisecond
	DefaultIncrementFailure = 0.05
	DefaultInitialCount     = 1
)

var ErrIncrementFailed = errors.New("server error while incrementing")

type Result struct {
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// Backend is what a simulator exposes; it mirrors the GET/POST endpoint pair.
type Backend interface {
	GetCount(ctx context.Context) (Result, error)
	IncrementCount(ctx context.Context) (Result, error)
}

// Counter is an in-memory counter that starts at 1 and lives as long as the instance.
type Counter struct {
	mu        sync.Mutex
	current   int
	read      Faults
	increment Faults
}

type CounterOption func(*Counter)

func WithReadFaults(faults Faults) CounterOption {
	return func(c *Counter) {
		c.read = faults
	}
}

func WithIncrementFaults(faults Faults) CounterOption {
	return func(c *Counter) {
		c.increment = faults
	}
}

func WithInitialCount(count int) CounterOption {
	return func(c *Counter) {
		c.current = count
	}
}

func NewCounter(options ...CounterOption) *Counter {
	c := &Counter{
		current:   DefaultInitialCount,
		read:      Faults{Delay: DefaultReadDelay},
		increment: Faults{Delay: DefaultIncrementDelay, FailureRate: DefaultIncrementFailure},
	}

	for _, option := range options {
		option(c)
	}

	return c
}

func (c *Counter) GetCount(ctx context.Context) (Result, error) {
	if err := c.read.Wait(ctx); err != nil {
		return Result{}, err
	}

	return Result{Count: c.Current(), Message: "count fetched"}, nil
}

func (c *Counter) IncrementCount(ctx context.Context) (Result, error) {
	if err := c.increment.Inject(ctx, ErrIncrementFailed); err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	c.current++
	current := c.current
	c.mu.Unlock()

	return Result{Count: current, Message: "count incremented"}, nil
}

func (c *Counter) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}
