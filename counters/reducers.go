package counters

import "github.com/weegigs/wee-counter-go/events"

func Reducers() events.Reducers[Counter] {
	return events.Reducers[Counter]{
		events.EventTypeOf(Created{}):     created(),
		events.EventTypeOf(Incremented{}): incremented(),
		events.EventTypeOf(Updated{}):     updated(),
	}
}

func created() events.Reducer[Counter] {
	var reducer events.ReducerFunction[Counter, Created] = func(counter *Counter, evt *Created, recorded *events.RecordedEvent) error {
		at, err := recorded.Timestamp.Time()
		if err != nil {
			return err
		}

		counter.ID = recorded.AggregateId.Key
		counter.Value = evt.Initial
		counter.Description = evt.Description
		counter.CreatedAt = at
		return nil
	}

	return reducer
}

func incremented() events.Reducer[Counter] {
	var reducer events.ReducerFunction[Counter, Incremented] = func(counter *Counter, evt *Incremented, recorded *events.RecordedEvent) error {
		counter.Value = counter.Value + evt.Amount
		return touch(counter, recorded)
	}

	return reducer
}

func updated() events.Reducer[Counter] {
	var reducer events.ReducerFunction[Counter, Updated] = func(counter *Counter, evt *Updated, recorded *events.RecordedEvent) error {
		if evt.Value != nil {
			counter.Value = *evt.Value
		}
		if evt.Description != nil {
			counter.Description = evt.Description
		}
		return touch(counter, recorded)
	}

	return reducer
}

func touch(counter *Counter, recorded *events.RecordedEvent) error {
	at, err := recorded.Timestamp.Time()
	if err != nil {
		return err
	}

	counter.UpdatedAt = &at
	return nil
}
