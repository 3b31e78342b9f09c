package simulator

import (
	"context"
	"math/rand"
	"time"
)

// Chance returns a value in [0, 1). Failures trigger when Chance() < FailureRate.
type Chance = func() float64

// Randomizer produces the value served by read-only simulators.
type Randomizer = func() int

// Faults describes the latency and failure injected into a simulated call.
type Faults struct {
	Delay       time.Duration
	FailureRate float64
	Chance      Chance
}

func (f Faults) chance() float64 {
	if f.Chance == nil {
		return rand.Float64()
	}

	return f.Chance()
}

// Wait sleeps for the configured delay, returning early with the context error
// when ctx is done first.
func (f Faults) Wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fails rolls the dice once.
func (f Faults) Fails() bool {
	if f.FailureRate <= 0 {
		return false
	}

	return f.chance() < f.FailureRate
}

// Inject waits and then returns failure when the roll fails.
func (f Faults) Inject(ctx context.Context, failure error) error {
	if err := f.Wait(ctx); err != nil {
		return err
	}

	if f.Fails() {
		return failure
	}

	return nil
}

func PseudoRandomizer(limit int) Randomizer {
	return func() int {
		return rand.Intn(limit)
	}
}
