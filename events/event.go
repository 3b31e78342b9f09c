package events

import (
	"strings"

	"github.com/pkg/errors"
)

type EventID string

func (id EventID) String() string {
	return string(id)
}

type EventType string

func (et EventType) String() string {
	return string(et)
}

type AggregateId struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

type EncodedAggregateId string

func (id AggregateId) Encode() EncodedAggregateId {
	return EncodedAggregateId(id.Type + "." + id.Key)
}

func (id EncodedAggregateId) String() string {
	return string(id)
}

func (id EncodedAggregateId) Decode() (AggregateId, error) {
	kind, key, found := strings.Cut(string(id), ".")
	if !found || kind == "" || key == "" {
		return AggregateId{}, errors.Errorf("expected <type>.<key> aggregate id, got %q", string(id))
	}

	return AggregateId{Type: kind, Key: key}, nil
}

type DomainEvent any

// EventTyped lets an event pick its own stored name instead of the derived one.
type EventTyped interface {
	EventType() EventType
}

func EventTypeOf(event DomainEvent) EventType {
	if typed, ok := event.(EventTyped); ok {
		return typed.EventType()
	}

	return EventType(NameOf(event))
}

type RecordedEvent struct {
	AggregateId AggregateId `json:"aggregate"`
	Revision    Revision    `json:"revision"`
	EventID     EventID     `json:"id"`
	EventType   EventType   `json:"type"`
	Timestamp   Timestamp   `json:"timestamp"`
	Data        Data        `json:"data"`
}

type Aggregate struct {
	Id       AggregateId     `json:"id"`
	Events   []RecordedEvent `json:"events,omitempty"`
	Revision Revision        `json:"revision"`
}
