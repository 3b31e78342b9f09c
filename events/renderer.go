package events

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

const tracerName = "wee-counter/events"

type Reducer[T any] interface {
	Reduce(state *T, evt *RecordedEvent) error
}

// ReducerFunction adapts a typed reducer; the recorded payload is decoded into E first.
type ReducerFunction[T any, E any] func(state *T, evt *E, recorded *RecordedEvent) error

func (f ReducerFunction[T, E]) Reduce(state *T, evt *RecordedEvent) error {
	var event E
	if err := UnmarshalFromData(evt.Data, &event); err != nil {
		return err
	}

	return f(state, &event, evt)
}

type Reducers[T any] map[EventType]Reducer[T]

type Renderer[T any] struct {
	Reducers Reducers[T]
}

func (r *Renderer[T]) Render(ctx context.Context, aggregate Aggregate) (Entity[T], error) {
	var state T

	_, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("render %s", aggregate.Id.Type))
	defer span.End()

	for _, event := range aggregate.Events {
		reducer := r.Reducers[event.EventType]
		if reducer == nil {
			continue
		}

		if err := reducer.Reduce(&state, &event); err != nil {
			return Entity[T]{}, errors.Wrap(
				err,
				fmt.Sprintf("failed to process update with %s", event.EventType),
			)
		}
	}

	return Entity[T]{
		Aggregate: aggregate.Id,
		Revision:  aggregate.Revision,
		State:     state,
	}, nil
}

type Entity[T any] struct {
	Aggregate AggregateId
	Revision  Revision
	State     T
}

func (e *Entity[T]) Initialized() bool {
	return e.Revision != InitialRevision
}
