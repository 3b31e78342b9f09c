package client

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

type Option func(controller *Controller)

// WithHTTPClient replaces the resty client. Transport, host and timeout options
// are still applied on top of it.
func WithHTTPClient(client *resty.Client) Option {
	return func(controller *Controller) {
		controller.http = client
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(controller *Controller) {
		controller.transport = transport
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(controller *Controller) {
		controller.log = log
	}
}

// WithHost resolves relative base URLs such as /api/count.
func WithHost(host string) Option {
	return func(controller *Controller) {
		controller.host = host
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(controller *Controller) {
		controller.timeout = timeout
	}
}
