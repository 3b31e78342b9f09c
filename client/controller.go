package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "wee-counter/client"

// Controller fetches and increments a count held by a remote endpoint and
// publishes every outcome as a new State.
//
// Operations block until their request completes and are safe to call from
// multiple goroutines. Requests are neither queued nor de-duplicated; when two
// fetches overlap the one that resolves last wins.
type Controller struct {
	http      *resty.Client
	transport http.RoundTripper
	host      string
	timeout   time.Duration
	log       zerolog.Logger

	mu          sync.RWMutex
	state       State
	current     target
	ready       chan struct{}
	subscribers map[uint64]func(State)
	next        uint64
	closed      bool

	// serializes subscriber delivery so callbacks observe commits in order
	delivery sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// target binds an operation to the base URL it was issued against.
type target struct {
	generation uint64
	url        string
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewController creates a controller for baseURL and starts the initial fetch in
// the background. Ready reports when it has completed.
func NewController(baseURL string, options ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		log:         zerolog.Nop(),
		state:       State{IsLoading: true},
		subscribers: map[uint64]func(State){},
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, option := range options {
		option(c)
	}
	c.configure()

	c.mu.Lock()
	initial, ready := c.retarget(baseURL)
	c.mu.Unlock()

	go c.initialize(initial, ready)

	return c
}

// Ready is closed once the initial fetch for the current base URL has completed.
func (c *Controller) Ready() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.ready
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

func (c *Controller) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current.url
}

// Subscribe registers fn to receive every committed state. Callbacks run on the
// goroutine that committed the state, must not block, and must not call back
// into the controller.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}
	}

	id := c.next
	c.next++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		delete(c.subscribers, id)
	}
}

// FetchCount reads the count from the base URL. The returned state is the
// snapshot committed by this call.
func (c *Controller) FetchCount(ctx context.Context) State {
	return c.fetch(ctx, c.target())
}

// Refetch is FetchCount for user initiated refreshes.
func (c *Controller) Refetch(ctx context.Context) State {
	return c.fetch(ctx, c.target())
}

// IncrementCount asks the endpoint to increment the count. On failure the value
// is left untouched and the error is returned as well as recorded in the state.
func (c *Controller) IncrementCount(ctx context.Context) (State, error) {
	t := c.target()
	url := IncrementURL(t.url)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "increment count", trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	previous := 0
	_, ok := c.commit(t, func(state *State) {
		if state.Value != nil {
			previous = *state.Value
		}
		state.IsIncrementing = true
		state.Error = ""
	})
	if !ok {
		return c.rejected()
	}

	ctx, done := c.bind(ctx, t)
	defer done()

	response, err := c.post(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Error().Err(err).Str("url", url).Msg("failed to increment count")

		state, _ := c.commit(t, func(state *State) {
			state.IsIncrementing = false
			state.Error = err.Error()
		})
		return state, err
	}

	value := response.valueOr(previous + 1)
	span.SetAttributes(attribute.Int("count", value))

	state, _ := c.commit(t, func(state *State) {
		state.Value = &value
		state.IsIncrementing = false
		state.Error = ""
	})
	return state, nil
}

// SetBaseURL points the controller at a new endpoint and re-runs the initial
// fetch. Requests still running against the previous URL are cancelled and their
// outcomes discarded.
func (c *Controller) SetBaseURL(url string) {
	c.mu.Lock()
	if c.closed || c.current.url == url {
		c.mu.Unlock()
		return
	}

	c.current.cancel()
	next, ready := c.retarget(url)
	state := c.state
	subscribers := c.snapshot()
	c.delivery.Lock()
	c.mu.Unlock()

	deliver(subscribers, state)
	c.delivery.Unlock()

	go c.initialize(next, ready)
}

// Close cancels in-flight requests. No state is committed after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.closed = true
	c.subscribers = map[uint64]func(State){}
	c.cancel()
	c.mu.Unlock()

	// wait out a delivery that started before the flag was set
	c.delivery.Lock()
	c.delivery.Unlock()
}

func (c *Controller) rejected() (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return c.state, ErrClosed
	}
	return c.state, ErrSuperseded
}

func (c *Controller) initialize(t target, ready chan struct{}) {
	defer close(ready)

	c.fetch(t.ctx, t)
}

func (c *Controller) fetch(ctx context.Context, t target) State {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fetch count", trace.WithAttributes(attribute.String("url", t.url)))
	defer span.End()

	if _, ok := c.commit(t, func(state *State) {
		state.IsLoading = true
		state.Error = ""
	}); !ok {
		return c.State()
	}

	ctx, done := c.bind(ctx, t)
	defer done()

	response, err := c.get(ctx, t.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Debug().Err(err).Str("url", t.url).Msg("failed to fetch count")

		state, _ := c.commit(t, func(state *State) {
			state.Value = nil
			state.IsLoading = false
			state.Error = err.Error()
		})
		return state
	}

	value := response.valueOr(0)
	span.SetAttributes(attribute.Int("count", value))

	state, _ := c.commit(t, func(state *State) {
		state.Value = &value
		state.IsLoading = false
		state.Error = ""
	})
	return state
}

// retarget starts a new generation for url. Callers hold mu.
func (c *Controller) retarget(url string) (target, chan struct{}) {
	ctx, cancel := context.WithCancel(c.ctx)

	c.current = target{
		generation: c.current.generation + 1,
		url:        url,
		ctx:        ctx,
		cancel:     cancel,
	}
	c.ready = make(chan struct{})

	// outcomes from the previous generation are dropped, so nothing else would
	// clear its increment flag
	c.state = State{Value: c.state.Value, IsLoading: true}

	return c.current, c.ready
}

func (c *Controller) target() target {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}

// bind ties a request context to the lifetime of the operation's generation.
func (c *Controller) bind(ctx context.Context, t target) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(t.ctx, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

// commit applies update as one whole-state replacement and notifies subscribers.
// It reports false, leaving the state untouched, when the controller has closed
// or moved on to another base URL.
func (c *Controller) commit(t target, update func(state *State)) (State, bool) {
	c.mu.Lock()
	if c.closed || c.current.generation != t.generation {
		state := c.state
		c.mu.Unlock()
		return state, false
	}

	next := c.state
	update(&next)
	c.state = next

	subscribers := c.snapshot()
	c.delivery.Lock()
	c.mu.Unlock()

	deliver(subscribers, next)
	c.delivery.Unlock()

	return next, true
}

func (c *Controller) snapshot() []func(State) {
	subscribers := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}

	return subscribers
}

func deliver(subscribers []func(State), state State) {
	for _, fn := range subscribers {
		fn(state)
	}
}
