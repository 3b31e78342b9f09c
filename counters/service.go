package counters

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/weegigs/wee-counter-go/events"
)

const tracerName = "wee-counter/counters"

// DefaultInitialValue seeds the counter created on first access through Current.
const DefaultInitialValue = 1

type Store interface {
	events.EventStore
	Remove(ctx context.Context, id events.AggregateId) (int, error)
	Aggregates(ctx context.Context, aggregateType string) ([]events.AggregateId, error)
}

type Update struct {
	Value       *int
	Description *string
}

type Service struct {
	store    Store
	renderer *events.Renderer[Counter]

	// serializes get-or-create so concurrent first reads share one counter
	current sync.Mutex
}

func NewService(store Store) *Service {
	return &Service{
		store:    store,
		renderer: &events.Renderer[Counter]{Reducers: Reducers()},
	}
}

func aggregateId(id string) events.AggregateId {
	return events.AggregateId{Type: AggregateType, Key: id}
}

func (s *Service) load(ctx context.Context, id string) (events.Entity[Counter], error) {
	aggregate, err := s.store.Load(ctx, aggregateId(id))
	if err != nil {
		return events.Entity[Counter]{}, errors.Wrapf(err, "failed to load counter %s", id)
	}

	entity, err := s.renderer.Render(ctx, aggregate)
	if err != nil {
		return events.Entity[Counter]{}, err
	}

	if !entity.Initialized() {
		return events.Entity[Counter]{}, NotFound(id)
	}

	return entity, nil
}

func (s *Service) Create(ctx context.Context, initial int, description *string) (Counter, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "create counter")
	defer span.End()

	id := ulid.Make().String()
	_, err := s.store.Publish(
		ctx,
		aggregateId(id),
		events.Options(events.WithExpectedRevision(events.InitialRevision)),
		Created{Initial: initial, Description: description},
	)
	if err != nil {
		return Counter{}, errors.Wrap(err, "failed to create counter")
	}

	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Counter, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return Counter{}, err
	}

	return entity.State, nil
}

func (s *Service) List(ctx context.Context) ([]Counter, error) {
	ids, err := s.store.Aggregates(ctx, AggregateType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list counters")
	}

	counters := make([]Counter, 0, len(ids))
	for _, id := range ids {
		counter, err := s.Get(ctx, id.Key)
		if err != nil {
			var missing *NotFoundError
			if errors.As(err, &missing) {
				continue
			}
			return nil, err
		}
		counters = append(counters, counter)
	}

	return counters, nil
}

// Increment adds amount using optimistic concurrency. Conflicting writers are
// retried against the freshly loaded revision.
func (s *Service) Increment(ctx context.Context, id string, amount int) (Counter, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "increment counter")
	defer span.End()

	return s.change(ctx, id, Incremented{Amount: amount})
}

func (s *Service) Update(ctx context.Context, id string, update Update) (Counter, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "update counter")
	defer span.End()

	if update.Value == nil && update.Description == nil {
		return s.Get(ctx, id)
	}

	return s.change(ctx, id, Updated{Value: update.Value, Description: update.Description})
}

func (s *Service) change(ctx context.Context, id string, event events.DomainEvent) (Counter, error) {
	err := retry.Do(
		func() error {
			entity, err := s.load(ctx, id)
			if err != nil {
				return err
			}

			_, err = s.store.Publish(
				ctx,
				entity.Aggregate,
				events.Options(events.WithExpectedRevision(entity.Revision)),
				event,
			)
			return err
		},
		retry.Attempts(5),
		retry.Delay(5*time.Millisecond),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, events.RevisionConflict)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return Counter{}, err
	}

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.store.Remove(ctx, aggregateId(id))
	if err != nil {
		return errors.Wrapf(err, "failed to delete counter %s", id)
	}

	if removed == 0 {
		return NotFound(id)
	}

	return nil
}

// Current returns the most recently created counter, creating one seeded with
// DefaultInitialValue when none exist.
func (s *Service) Current(ctx context.Context) (Counter, error) {
	s.current.Lock()
	defer s.current.Unlock()

	ids, err := s.store.Aggregates(ctx, AggregateType)
	if err != nil {
		return Counter{}, errors.Wrap(err, "failed to list counters")
	}

	if len(ids) > 0 {
		return s.Get(ctx, ids[len(ids)-1].Key)
	}

	return s.Create(ctx, DefaultInitialValue, nil)
}

func (s *Service) IncrementCurrent(ctx context.Context) (Counter, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return Counter{}, err
	}

	return s.Increment(ctx, current.ID, 1)
}
