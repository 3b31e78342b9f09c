package events

import (
	"context"
	"errors"
)

type EventLoader = func(ctx context.Context, id AggregateId) (Aggregate, error)
type EventPublisher = func(ctx context.Context, id AggregateId, options PublishOptions, events ...DomainEvent) (Revision, error)

type EventStore interface {
	Load(ctx context.Context, id AggregateId) (Aggregate, error)
	Publish(ctx context.Context, id AggregateId, options PublishOptions, events ...DomainEvent) (Revision, error)
}

var RevisionConflict = errors.New("revision-conflict")

var ErrNoEvents = errors.New("attempted to publish empty list of events")

type PublishOptions struct {
	ExpectedRevision Revision
}

type PublishOption func(modifier *PublishOptions)

func Options(options ...PublishOption) PublishOptions {
	modifiers := &PublishOptions{}
	for _, option := range options {
		option(modifiers)
	}

	return *modifiers
}

// WithExpectedRevision fails the publish with RevisionConflict unless the stream is
// still at the given revision. InitialRevision means "stream must not exist yet".
func WithExpectedRevision(expectedRevision Revision) PublishOption {
	return func(modifier *PublishOptions) {
		modifier.ExpectedRevision = expectedRevision
	}
}
