package client

import (
	"bytes"
	"math"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// countResponse accepts the primary "count" field and the "id" field some
// alternate endpoints return instead. Both are kept raw so an unexpected type in
// one field does not fail the whole response.
type countResponse struct {
	Count json.RawMessage `json:"count"`
	ID    json.RawMessage `json:"id"`
}

func (r countResponse) valueOr(fallback int) int {
	if count, ok := integer(r.Count); ok {
		return count
	}
	if id, ok := integer(r.ID); ok {
		return id
	}

	return fallback
}

// integer reads raw as a whole number. Missing, null, non-numeric and
// fractional values are not counts.
func integer(raw json.RawMessage) (int, bool) {
	text := string(bytes.TrimSpace(raw))
	if value, err := strconv.Atoi(text); err == nil {
		return value, true
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value != math.Trunc(value) || value < math.MinInt64 || value >= math.MaxInt64 {
		return 0, false
	}

	return int(value), true
}

func decodeCount(body []byte) (countResponse, error) {
	var response countResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return countResponse{}, errors.Wrap(err, "invalid count response")
	}

	return response, nil
}

type incrementRequest struct {
	Action string `json:"action"`
}
