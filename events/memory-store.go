package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

// MemoryStore keeps every stream for the lifetime of the process. Nothing is persisted.
type MemoryStore struct {
	mu       sync.RWMutex
	streams  map[EncodedAggregateId][]RecordedEvent
	revision *RevisionGenerator
	now      func() time.Time
}

type MemoryStoreOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryStoreOption {
	return func(store *MemoryStore) {
		store.now = now
	}
}

func NewMemoryStore(options ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		streams:  make(map[EncodedAggregateId][]RecordedEvent),
		revision: NewRevisionGenerator(),
		now:      time.Now,
	}

	for _, option := range options {
		option(store)
	}

	return store
}

func (ms *MemoryStore) Load(ctx context.Context, id AggregateId) (Aggregate, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "load aggregate")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return Aggregate{}, err
	}

	ms.mu.RLock()
	stream := ms.streams[id.Encode()]
	recorded := make([]RecordedEvent, len(stream))
	copy(recorded, stream)
	ms.mu.RUnlock()

	return Aggregate{
		Id:       id,
		Events:   recorded,
		Revision: revisionFrom(recorded),
	}, nil
}

func (ms *MemoryStore) Publish(ctx context.Context, id AggregateId, options PublishOptions, events ...DomainEvent) (Revision, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "publish events")
	defer span.End()

	if len(events) == 0 {
		return "", ErrNoEvents
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := id.Encode()
	current := revisionFrom(ms.streams[key])
	if options.ExpectedRevision != "" && options.ExpectedRevision != current {
		return "", RevisionConflict
	}

	now := ms.now()
	timestamp := TimestampFromTime(now)
	recorded := make([]RecordedEvent, len(events))
	for index, event := range events {
		data, err := MarshalToData(event)
		if err != nil {
			return "", errors.Wrapf(err, "failed to marshal %s", EventTypeOf(event))
		}

		revision := ms.revision.NewRevision(now)
		recorded[index] = RecordedEvent{
			AggregateId: id,
			Revision:    revision,
			EventID:     EventID(revision),
			EventType:   EventTypeOf(event),
			Timestamp:   timestamp,
			Data:        data,
		}
	}

	ms.streams[key] = append(ms.streams[key], recorded...)

	return recorded[len(recorded)-1].Revision, nil
}

// Remove drops a stream and reports how many events it held.
func (ms *MemoryStore) Remove(ctx context.Context, id AggregateId) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := id.Encode()
	count := len(ms.streams[key])
	delete(ms.streams, key)

	return count, nil
}

// Aggregates lists the ids of every stream of the given type, oldest first.
// Keys are ULIDs so lexical order is creation order.
func (ms *MemoryStore) Aggregates(ctx context.Context, aggregateType string) ([]AggregateId, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var ids []AggregateId
	for key := range ms.streams {
		id, err := key.Decode()
		if err != nil {
			return nil, err
		}

		if id.Type == aggregateType {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Key < ids[j].Key })

	return ids, nil
}

func revisionFrom(events []RecordedEvent) Revision {
	count := len(events)
	if count == 0 {
		return InitialRevision
	}

	return events[count-1].Revision
}
