package support

import (
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Client    ClientConfig
	Server    ServerConfig
	Logging   LogConfig
	Simulate  SimulateConfig
	Telemetry TelemetryConfig
}

type ClientConfig struct {
	// APIURL may be relative, in which case it resolves against Host.
	APIURL  string        `envconfig:"COUNTER_API_URL" default:"/api/count"`
	Host    string        `envconfig:"COUNTER_API_HOST" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"COUNTER_TIMEOUT" default:"10s"`
}

type ServerConfig struct {
	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port string `envconfig:"PORT" default:"8000"`
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"console"`
}

type SimulateConfig struct {
	Delay       time.Duration `envconfig:"SIMULATE_DELAY" default:"0s"`
	FailureRate float64       `envconfig:"SIMULATE_FAILURE_RATE" default:"0"`
}

type TelemetryConfig struct {
	Exporter string `envconfig:"TRACE_EXPORTER" default:"none"`
	Endpoint string `envconfig:"TRACE_ENDPOINT" default:"localhost:4317"`

	HoneycombTeam    string `envconfig:"HONEYCOMB_TEAM"`
	HoneycombDataset string `envconfig:"HONEYCOMB_DATASET" default:"wee-counter"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to load config")
	}

	if cfg.Simulate.FailureRate < 0 || cfg.Simulate.FailureRate > 1 {
		return Config{}, errors.Errorf("SIMULATE_FAILURE_RATE must be within [0, 1], got %v", cfg.Simulate.FailureRate)
	}

	return cfg, nil
}
