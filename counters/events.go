package counters

type Created struct {
	Initial     int     `json:"initial"`
	Description *string `json:"description,omitempty"`
}

type Incremented struct {
	Amount int `json:"amount"`
}

type Updated struct {
	Value       *int    `json:"value,omitempty"`
	Description *string `json:"description,omitempty"`
}
