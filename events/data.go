package events

import (
	"fmt"

	"github.com/goccy/go-json"
)

const jsonEncoding = "application/json"

type Data struct {
	Encoding string `json:"encoding"`
	Data     []byte `json:"data"`
}

type InvalidEncodingError struct {
	Expected string
	Actual   string
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("expected encoding %s, got %s", e.Expected, e.Actual)
}

func MarshalToData(event DomainEvent) (Data, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Data{}, err
	}

	return Data{
		Encoding: jsonEncoding,
		Data:     data,
	}, nil
}

func UnmarshalFromData(data Data, value any) error {
	if data.Encoding != jsonEncoding {
		return &InvalidEncodingError{Expected: jsonEncoding, Actual: data.Encoding}
	}

	return json.Unmarshal(data.Data, value)
}
