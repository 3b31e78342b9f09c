package client

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func (c *Controller) configure() {
	if c.http == nil {
		c.http = resty.New()
	}

	c.http.
		SetRetryCount(0).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(restyLogger{log: c.log})

	if c.transport != nil {
		c.http.SetTransport(c.transport)
	}
	if c.host != "" {
		c.http.SetBaseURL(c.host)
	}
	if c.timeout > 0 {
		c.http.SetTimeout(c.timeout)
	}
}

func (c *Controller) get(ctx context.Context, url string) (countResponse, error) {
	response, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)

	return c.decode(response, err)
}

func (c *Controller) post(ctx context.Context, url string) (countResponse, error) {
	response, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetBody(incrementRequest{Action: "increment"}).
		Post(url)

	return c.decode(response, err)
}

func (c *Controller) decode(response *resty.Response, err error) (countResponse, error) {
	if err != nil {
		return countResponse{}, failure(err)
	}

	if !response.IsSuccess() {
		return countResponse{}, &HTTPError{StatusCode: response.StatusCode()}
	}

	return decodeCount(response.Body())
}

type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}
