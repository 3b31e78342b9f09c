package simulator

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultRandomDelay   = time.Second
	DefaultRandomFailure = 0.1
	DefaultRandomLimit   = 100
)

var (
	ErrServerFailure = errors.New("simulated server error")
	ErrReadOnly      = errors.New("endpoint is read-only")
)

// Random models a read-only endpoint serving a random count with a higher failure rate.
type Random struct {
	faults     Faults
	randomizer Randomizer
}

type RandomOption func(*Random)

func WithFaults(faults Faults) RandomOption {
	return func(r *Random) {
		r.faults = faults
	}
}

func WithRandomizer(randomizer Randomizer) RandomOption {
	return func(r *Random) {
		r.randomizer = randomizer
	}
}

func NewRandom(options ...RandomOption) *Random {
	r := &Random{
		faults:     Faults{Delay: DefaultRandomDelay, FailureRate: DefaultRandomFailure},
		randomizer: PseudoRandomizer(DefaultRandomLimit),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

func (r *Random) GetCount(ctx context.Context) (Result, error) {
	if err := r.faults.Inject(ctx, ErrServerFailure); err != nil {
		return Result{}, err
	}

	return Result{Count: r.randomizer()}, nil
}

func (r *Random) IncrementCount(context.Context) (Result, error) {
	return Result{}, ErrReadOnly
}
