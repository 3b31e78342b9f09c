package simulator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Transport serves a Backend over the count endpoint contract without a network:
// GET on any path reads the count, POST on a path ending in /increment increments it.
// Simulated failures surface as transport errors, a read-only rejection as 405.
type Transport struct {
	Backend Backend
}

func NewTransport(backend Backend) *Transport {
	return &Transport{Backend: backend}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
		_ = req.Body.Close()
	}

	var result Result
	var err error

	switch {
	case req.Method == http.MethodGet && !isIncrement(req):
		result, err = t.Backend.GetCount(req.Context())
	case req.Method == http.MethodPost && isIncrement(req):
		result, err = t.Backend.IncrementCount(req.Context())
	case req.Method == http.MethodGet, req.Method == http.MethodPost:
		return respond(req, http.StatusNotFound, map[string]string{"detail": "not found"})
	default:
		return respond(req, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
	}

	if errors.Is(err, ErrReadOnly) {
		return respond(req, http.StatusMethodNotAllowed, map[string]string{"detail": err.Error()})
	}

	if err != nil {
		return nil, err
	}

	return respond(req, http.StatusOK, result)
}

func isIncrement(req *http.Request) bool {
	return strings.HasSuffix(strings.TrimSuffix(req.URL.Path, "/"), "/increment")
}

func respond(req *http.Request, status int, body any) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(encoded)),
		ContentLength: int64(len(encoded)),
		Request:       req,
	}, nil
}
