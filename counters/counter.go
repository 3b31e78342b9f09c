package counters

import "time"

const AggregateType = "counter"

type Counter struct {
	ID          string     `json:"id"`
	Value       int        `json:"count_number"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (state *Counter) Current() int {
	return state.Value
}
