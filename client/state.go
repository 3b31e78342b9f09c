package client

// State is an immutable snapshot of the controller. A new value replaces the
// previous one on every transition; Value is never mutated in place.
type State struct {
	Value          *int   `json:"value"`
	IsLoading      bool   `json:"is_loading"`
	IsIncrementing bool   `json:"is_incrementing"`
	Error          string `json:"error,omitempty"`
}

func (s State) Count() (int, bool) {
	if s.Value == nil {
		return 0, false
	}

	return *s.Value, true
}

func (s State) Failed() bool {
	return s.Error != ""
}

func (s State) Busy() bool {
	return s.IsLoading || s.IsIncrementing
}
