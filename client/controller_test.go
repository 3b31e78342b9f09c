package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-counter-go/simulator"
)

func waitReady(t *testing.T, c *Controller) {
	t.Helper()

	select {
	case <-c.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("initial fetch did not complete")
	}
}

func respondWith(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func ready(t *testing.T, handler http.Handler, options ...Option) *Controller {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewController(server.URL+"/api/count", options...)
	t.Cleanup(c.Close)
	waitReady(t, c)

	return c
}

func value(t *testing.T, state State) int {
	t.Helper()

	v, ok := state.Count()
	require.True(t, ok, "expected a value")
	return v
}

func fetchesCount(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{"count":42}`))

	state := c.State()
	assert.Equal(t, 42, value(t, state))
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsIncrementing)
	assert.Empty(t, state.Error)
}

func fetchFallsBackToID(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{"id":9}`))

	assert.Equal(t, 9, value(t, c.State()))
}

func fetchPrefersCount(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{"count":3,"id":9}`))

	assert.Equal(t, 3, value(t, c.State()))
}

func fetchIgnoresNonNumericID(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{"count":3,"id":"01HZX"}`))

	state := c.State()
	assert.Equal(t, 3, value(t, state))
	assert.Empty(t, state.Error)
}

func fetchDefaultsNonNumericIDToZero(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{"id":"abc"}`))

	state := c.State()
	assert.Equal(t, 0, value(t, state))
	assert.Empty(t, state.Error)
}

func fetchAcceptsWholeFloats(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{"count":3.0}`))

	assert.Equal(t, 3, value(t, c.State()))
}

func fetchDefaultsToZero(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{}`))

	assert.Equal(t, 0, value(t, c.State()))
}

func fetchRecordsHTTPError(t *testing.T) {
	c := ready(t, respondWith(http.StatusInternalServerError, `{"detail":"boom"}`))

	state := c.State()
	assert.Nil(t, state.Value)
	assert.False(t, state.IsLoading)
	assert.Equal(t, "HTTP error: 500", state.Error)
}

func fetchFailureDiscardsValue(t *testing.T) {
	var failing atomic.Bool
	c := ready(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			respondWith(http.StatusServiceUnavailable, `{}`)(w, r)
			return
		}
		respondWith(http.StatusOK, `{"count":5}`)(w, r)
	}))
	require.Equal(t, 5, value(t, c.State()))

	failing.Store(true)
	state := c.Refetch(context.Background())

	assert.Nil(t, state.Value)
	assert.Equal(t, "HTTP error: 503", state.Error)
}

func fetchRejectsInvalidBody(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `not json`))

	state := c.State()
	assert.Nil(t, state.Value)
	assert.NotEmpty(t, state.Error)
}

func fetchRecordsTransportError(t *testing.T) {
	server := httptest.NewServer(respondWith(http.StatusOK, `{}`))
	url := server.URL
	server.Close()

	c := NewController(url + "/api/count")
	t.Cleanup(c.Close)
	waitReady(t, c)

	state := c.State()
	assert.Nil(t, state.Value)
	assert.NotEmpty(t, state.Error)
	assert.NotContains(t, state.Error, "Get \"")
}

func refetchIsIdempotent(t *testing.T) {
	c := ready(t, respondWith(http.StatusOK, `{"count":11}`))

	first := c.Refetch(context.Background())
	second := c.Refetch(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 11, value(t, second))
}

func TestFetchCount(t *testing.T) {
	t.Run("fetches the count", fetchesCount)
	t.Run("falls back to the id field", fetchFallsBackToID)
	t.Run("prefers the count field", fetchPrefersCount)
	t.Run("ignores a non-numeric id", fetchIgnoresNonNumericID)
	t.Run("defaults a non-numeric id to zero", fetchDefaultsNonNumericIDToZero)
	t.Run("accepts whole floats", fetchAcceptsWholeFloats)
	t.Run("defaults a missing count to zero", fetchDefaultsToZero)
	t.Run("records http errors", fetchRecordsHTTPError)
	t.Run("discards the value on failure", fetchFailureDiscardsValue)
	t.Run("rejects invalid bodies", fetchRejectsInvalidBody)
	t.Run("records transport errors", fetchRecordsTransportError)
	t.Run("refetch is idempotent", refetchIsIdempotent)
}

type recorded struct {
	method      string
	path        string
	contentType string
	body        string
}

// counterAPI serves a fixed count and answers increments with body.
func counterAPI(count int, status int, body string, requests chan<- recorded) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/count", respondWith(http.StatusOK, `{"count":`+strconv.Itoa(count)+`}`))
	mux.HandleFunc("/api/count/increment", func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			payload, _ := io.ReadAll(r.Body)
			requests <- recorded{
				method:      r.Method,
				path:        r.URL.Path,
				contentType: r.Header.Get("Content-Type"),
				body:        string(payload),
			}
		}
		respondWith(status, body)(w, r)
	})
	return mux
}

func incrementUsesResponseCount(t *testing.T) {
	c := ready(t, counterAPI(6, http.StatusOK, `{"count":7,"message":"count incremented"}`, nil))

	state, err := c.IncrementCount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, value(t, state))
	assert.False(t, state.IsIncrementing)
	assert.Empty(t, state.Error)
	assert.Equal(t, state, c.State())
}

func incrementFallsBackToPrevious(t *testing.T) {
	c := ready(t, counterAPI(6, http.StatusOK, `{}`, nil))

	state, err := c.IncrementCount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, value(t, state))
}

func incrementFallsBackToID(t *testing.T) {
	c := ready(t, counterAPI(6, http.StatusOK, `{"id":20}`, nil))

	state, err := c.IncrementCount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, value(t, state))
}

func incrementIgnoresNonNumericID(t *testing.T) {
	c := ready(t, counterAPI(6, http.StatusOK, `{"id":"abc"}`, nil))

	state, err := c.IncrementCount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, value(t, state))
	assert.Empty(t, state.Error)
}

func incrementFromAbsentValue(t *testing.T) {
	c := ready(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			respondWith(http.StatusInternalServerError, `{}`)(w, r)
			return
		}
		respondWith(http.StatusOK, `{}`)(w, r)
	}))
	require.Nil(t, c.State().Value)

	state, err := c.IncrementCount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, value(t, state))
	assert.Empty(t, state.Error)
}

func incrementFailureKeepsValue(t *testing.T) {
	c := ready(t, counterAPI(6, http.StatusServiceUnavailable, `{}`, nil))

	state, err := c.IncrementCount(context.Background())
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)

	assert.Equal(t, 6, value(t, state))
	assert.False(t, state.IsIncrementing)
	assert.Equal(t, err.Error(), state.Error)
	assert.Equal(t, "HTTP error: 503", state.Error)
}

func incrementPostsAction(t *testing.T) {
	requests := make(chan recorded, 1)
	c := ready(t, counterAPI(6, http.StatusOK, `{"count":7}`, requests))

	_, err := c.IncrementCount(context.Background())
	require.NoError(t, err)

	request := <-requests
	assert.Equal(t, http.MethodPost, request.method)
	assert.Equal(t, "/api/count/increment", request.path)
	assert.Equal(t, "application/json", request.contentType)
	assert.JSONEq(t, `{"action":"increment"}`, request.body)
}

func incrementClearsFetchError(t *testing.T) {
	c := ready(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			respondWith(http.StatusBadGateway, `{}`)(w, r)
			return
		}
		respondWith(http.StatusOK, `{"count":3}`)(w, r)
	}))
	require.Equal(t, "HTTP error: 502", c.State().Error)

	state, err := c.IncrementCount(context.Background())
	require.NoError(t, err)

	assert.Empty(t, state.Error)
	assert.Equal(t, 3, value(t, state))
}

func TestIncrementCount(t *testing.T) {
	t.Run("uses the response count", incrementUsesResponseCount)
	t.Run("falls back to the previous value", incrementFallsBackToPrevious)
	t.Run("falls back to the id field", incrementFallsBackToID)
	t.Run("ignores a non-numeric id", incrementIgnoresNonNumericID)
	t.Run("treats an absent value as zero", incrementFromAbsentValue)
	t.Run("keeps the value on failure", incrementFailureKeepsValue)
	t.Run("posts the increment action", incrementPostsAction)
	t.Run("clears a previous error", incrementClearsFetchError)
}

func TestOverlap(t *testing.T) {
	t.Run("the last fetch to resolve wins", func(t *testing.T) {
		var calls atomic.Int32
		arrived := make(chan struct{}, 2)
		gates := []chan struct{}{make(chan struct{}), make(chan struct{})}

		c := ready(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := int(calls.Add(1))
			if n == 1 {
				respondWith(http.StatusOK, `{"count":1}`)(w, r)
				return
			}

			arrived <- struct{}{}
			select {
			case <-gates[n-2]:
			case <-r.Context().Done():
				return
			}
			respondWith(http.StatusOK, `{"count":`+strconv.Itoa(n*10)+`}`)(w, r)
		}))

		results := make(chan State, 2)
		go func() { results <- c.FetchCount(context.Background()) }()
		<-arrived
		go func() { results <- c.FetchCount(context.Background()) }()
		<-arrived

		close(gates[1])
		assert.Equal(t, 30, value(t, <-results))

		close(gates[0])
		assert.Equal(t, 20, value(t, <-results))

		state := c.State()
		assert.Equal(t, 20, value(t, state))
		assert.False(t, state.IsLoading)
		assert.Empty(t, state.Error)
	})

	t.Run("a fetch leaves an increment in flight", func(t *testing.T) {
		var reads atomic.Int32
		fetching := make(chan struct{}, 1)
		incrementing := make(chan struct{}, 1)
		releaseFetch := make(chan struct{})
		releaseIncrement := make(chan struct{})

		wait := func(r *http.Request, gate chan struct{}) bool {
			select {
			case <-gate:
				return true
			case <-r.Context().Done():
				return false
			}
		}

		c := ready(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				incrementing <- struct{}{}
				if wait(r, releaseIncrement) {
					respondWith(http.StatusOK, `{"count":7}`)(w, r)
				}
				return
			}

			if reads.Add(1) == 1 {
				respondWith(http.StatusOK, `{"count":6}`)(w, r)
				return
			}
			fetching <- struct{}{}
			if wait(r, releaseFetch) {
				respondWith(http.StatusOK, `{"count":9}`)(w, r)
			}
		}))

		incremented := make(chan State, 1)
		go func() {
			state, _ := c.IncrementCount(context.Background())
			incremented <- state
		}()
		<-incrementing
		require.True(t, c.State().IsIncrementing)

		fetched := make(chan State, 1)
		go func() { fetched <- c.Refetch(context.Background()) }()
		<-fetching

		close(releaseFetch)
		state := <-fetched
		assert.Equal(t, 9, value(t, state))
		assert.False(t, state.IsLoading)
		assert.True(t, state.IsIncrementing)
		assert.True(t, c.State().IsIncrementing)

		close(releaseIncrement)
		state = <-incremented
		assert.Equal(t, 7, value(t, state))
		assert.False(t, state.IsIncrementing)
		assert.False(t, state.IsLoading)
		assert.Equal(t, state, c.State())
	})
}

func TestIncrementURL(t *testing.T) {
	assert.Equal(t, "http://host/api/count/increment", IncrementURL("http://host/api/count"))
	assert.Equal(t, "http://host/api/count/increment", IncrementURL("http://host/api/count/"))
	assert.Equal(t, "http://host/api/count//increment", IncrementURL("http://host/api/count//"))
	assert.Equal(t, "/increment", IncrementURL(""))
}

func TestSimulatedBackend(t *testing.T) {
	never := func() float64 { return 0.999 }
	always := func() float64 { return 0 }

	t.Run("increments the simulated counter", func(t *testing.T) {
		backend := simulator.NewCounter(
			simulator.WithReadFaults(simulator.Faults{}),
			simulator.WithIncrementFaults(simulator.Faults{FailureRate: 0.05, Chance: never}),
		)
		c := NewController("http://simulator/api/count", WithTransport(simulator.NewTransport(backend)))
		t.Cleanup(c.Close)
		waitReady(t, c)
		require.Equal(t, 1, value(t, c.State()))

		state, err := c.IncrementCount(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, value(t, state))
		assert.Equal(t, 2, backend.Current())
	})

	t.Run("surfaces simulated increment failures", func(t *testing.T) {
		backend := simulator.NewCounter(
			simulator.WithReadFaults(simulator.Faults{}),
			simulator.WithIncrementFaults(simulator.Faults{FailureRate: 1, Chance: always}),
		)
		c := NewController("http://simulator/api/count", WithTransport(simulator.NewTransport(backend)))
		t.Cleanup(c.Close)
		waitReady(t, c)

		state, err := c.IncrementCount(context.Background())
		require.Error(t, err)

		assert.ErrorIs(t, err, simulator.ErrIncrementFailed)
		assert.Equal(t, simulator.ErrIncrementFailed.Error(), state.Error)
		assert.Equal(t, 1, value(t, state))

		state = c.Refetch(context.Background())
		assert.Equal(t, 1, value(t, state))
		assert.Empty(t, state.Error)
	})

	t.Run("surfaces random endpoint failures", func(t *testing.T) {
		backend := simulator.NewRandom(simulator.WithFaults(simulator.Faults{FailureRate: 1, Chance: always}))
		c := NewController("http://simulator/api/random", WithTransport(simulator.NewTransport(backend)))
		t.Cleanup(c.Close)
		waitReady(t, c)

		state := c.State()
		assert.Nil(t, state.Value)
		assert.Equal(t, simulator.ErrServerFailure.Error(), state.Error)
	})

	t.Run("reads random values", func(t *testing.T) {
		backend := simulator.NewRandom(
			simulator.WithFaults(simulator.Faults{}),
			simulator.WithRandomizer(func() int { return 37 }),
		)
		c := NewController("http://simulator/api/random", WithTransport(simulator.NewTransport(backend)))
		t.Cleanup(c.Close)
		waitReady(t, c)

		assert.Equal(t, 37, value(t, c.State()))
	})

	t.Run("resolves relative urls against the host", func(t *testing.T) {
		backend := simulator.NewCounter(simulator.WithReadFaults(simulator.Faults{}), simulator.WithInitialCount(12))
		c := NewController("/api/count", WithHost("http://simulator"), WithTransport(simulator.NewTransport(backend)))
		t.Cleanup(c.Close)
		waitReady(t, c)

		assert.Equal(t, 12, value(t, c.State()))
	})
}

func TestLifecycle(t *testing.T) {
	t.Run("starts loading", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			respondWith(http.StatusOK, `{"count":1}`)(w, r)
		}))
		t.Cleanup(server.Close)
		t.Cleanup(func() { close(release) })

		c := NewController(server.URL)
		t.Cleanup(c.Close)

		state := c.State()
		assert.True(t, state.IsLoading)
		assert.Nil(t, state.Value)
		assert.Empty(t, state.Error)
	})

	t.Run("stops updating after close", func(t *testing.T) {
		started := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}))
		t.Cleanup(server.Close)

		c := NewController(server.URL)
		<-started

		var updates atomic.Int32
		c.Subscribe(func(State) { updates.Add(1) })
		c.Close()
		waitReady(t, c)

		assert.Equal(t, int32(0), updates.Load())
		assert.True(t, c.State().IsLoading)
		assert.Nil(t, c.State().Value)

		_, err := c.IncrementCount(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("discards responses from a previous base url", func(t *testing.T) {
		started := make(chan struct{})
		var once sync.Once
		stale := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			once.Do(func() { close(started) })
			<-r.Context().Done()
		}))
		t.Cleanup(stale.Close)

		fresh := httptest.NewServer(respondWith(http.StatusOK, `{"count":5}`))
		t.Cleanup(fresh.Close)

		c := NewController(stale.URL)
		t.Cleanup(c.Close)
		previous := c.Ready()

		<-started
		c.SetBaseURL(fresh.URL)
		waitReady(t, c)
		<-previous

		state := c.State()
		assert.Equal(t, 5, value(t, state))
		assert.Empty(t, state.Error)
		assert.Equal(t, fresh.URL, c.BaseURL())
	})

	t.Run("ignores an unchanged base url", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			respondWith(http.StatusOK, `{"count":2}`)(w, r)
		}))
		t.Cleanup(server.Close)

		c := NewController(server.URL)
		t.Cleanup(c.Close)
		waitReady(t, c)

		c.SetBaseURL(server.URL)
		waitReady(t, c)

		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("notifies subscribers in order", func(t *testing.T) {
		c := ready(t, respondWith(http.StatusOK, `{"count":4}`))

		var mu sync.Mutex
		var seen []State
		unsubscribe := c.Subscribe(func(state State) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, state)
		})

		c.Refetch(context.Background())
		unsubscribe()
		c.Refetch(context.Background())

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, seen, 2)
		assert.True(t, seen[0].IsLoading)
		assert.Empty(t, seen[0].Error)
		assert.False(t, seen[1].IsLoading)
		assert.Equal(t, 4, value(t, seen[1]))
	})
}
