package main

import (
	"context"
	"net/http"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	logrus "github.com/sirupsen/logrus"

	"github.com/weegigs/wee-counter-go/counters"
	"github.com/weegigs/wee-counter-go/events"
	"github.com/weegigs/wee-counter-go/server"
	"github.com/weegigs/wee-counter-go/simulator"
	"github.com/weegigs/wee-counter-go/support"
)

type Application struct {
	Config  support.Config
	Log     zerolog.Logger
	Handler http.Handler
}

type Tracing struct{}

func NewApplication(cfg support.Config, log zerolog.Logger, handler http.Handler, _ Tracing) *Application {
	return &Application{Config: cfg, Log: log, Handler: handler}
}

func NewStore() *events.MemoryStore {
	return events.NewMemoryStore()
}

func NewLogger(cfg support.Config) (zerolog.Logger, error) {
	log, err := support.NewLogger(cfg.Logging)
	if err != nil {
		return zerolog.Nop(), err
	}

	// the access log follows the same level
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	return log, nil
}

func NewFaults(cfg support.Config) simulator.Faults {
	return simulator.Faults{Delay: cfg.Simulate.Delay, FailureRate: cfg.Simulate.FailureRate}
}

func NewTracing(ctx context.Context, cfg support.Config) (Tracing, func(), error) {
	shutdown, err := support.StartTracing(ctx, cfg.Telemetry)
	if err != nil {
		return Tracing{}, nil, err
	}

	return Tracing{}, shutdown, nil
}

func NewHandler(service *counters.Service, log zerolog.Logger, faults simulator.Faults) http.Handler {
	return server.NewHandler(service, server.Logger(log), server.Faults(faults))
}

var service = wire.NewSet(
	NewStore,
	wire.Bind(new(counters.Store), new(*events.MemoryStore)),
	counters.NewService,
	NewHandler,
)

var Server = wire.NewSet(
	service,
	support.LoadConfig,
	NewLogger,
	NewFaults,
	NewTracing,
	NewApplication,
)
