package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/weegigs/wee-counter-go/counters"
	"github.com/weegigs/wee-counter-go/simulator"
)

// DefaultOrigins are the local front-end dev servers allowed by CORS.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

type Option func(server *countServer)

func Logger(log zerolog.Logger) Option {
	return func(server *countServer) {
		server.log = log
	}
}

// Faults injects latency and failures into the /api routes.
func Faults(faults simulator.Faults) Option {
	return func(server *countServer) {
		server.faults = faults
	}
}

// Registry sets the prometheus registry request metrics are registered with.
func Registry(registry *prometheus.Registry) Option {
	return func(server *countServer) {
		server.registry = registry
	}
}

func Origins(origins ...string) Option {
	return func(server *countServer) {
		server.origins = origins
	}
}

type countServer struct {
	log      zerolog.Logger
	service  *counters.Service
	faults   simulator.Faults
	registry *prometheus.Registry
	metrics  *Metrics
	origins  []string
}

func NewHandler(service *counters.Service, options ...Option) http.Handler {
	server := &countServer{
		log:     log.Logger,
		service: service,
		origins: DefaultOrigins,
	}
	for _, option := range options {
		option(server)
	}
	if server.registry == nil {
		server.registry = prometheus.NewRegistry()
	}
	server.metrics = NewMetrics(server.registry)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(withLogging)
	r.Use(withCORS(server.origins))
	r.Use(server.metrics.Middleware)

	r.Get("/", server.welcome())
	r.Get("/health", server.health())
	r.Handle("/metrics", server.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(withFaults(server.faults))

		r.Get("/count", server.getCount())
		r.Post("/count/increment", server.incrementCount())
	})

	r.Route("/counters", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/", server.createCounter())
		r.Get("/", server.listCounters())

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.getCounter())
			r.Put("/", server.updateCounter())
			r.Delete("/", server.deleteCounter())
			r.Post("/increment", server.incrementCounter())
		})
	})

	return otelhttp.NewHandler(r, "wee-counter")
}
