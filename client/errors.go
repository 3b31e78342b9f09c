package client

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrClosed     = errors.New("controller closed")
	ErrSuperseded = errors.New("base url changed")
)

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// failure strips the method/URL envelope net/http puts around transport errors so
// the recorded message is the cause itself.
func failure(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}

	return err
}
