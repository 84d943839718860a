package domain

import (
	"encoding/json"
	"fmt"
)

// Entry is a single id/flag pair of a serialized store.
// It is encoded as a two-element JSON array: ["subsystem-0/Drive", true].
type Entry struct {
	ID    string
	Value bool
}

// MarshalJSON encodes the entry as an [id, value] tuple.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Value})
}

// UnmarshalJSON decodes an [id, value] tuple.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("entry must be an [id, value] pair: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("entry must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Value); err != nil {
		return fmt.Errorf("entry value: %w", err)
	}
	return nil
}

// ViewState is the saved form of the view's two state stores.
// Pending deactivation timers are not part of it: only the displayed flag survives.
type ViewState struct {
	Expansion []Entry `json:"expansion"`
	Active    []Entry `json:"active"`
}

// NewViewState returns an empty, non-nil view state.
func NewViewState() *ViewState {
	return &ViewState{
		Expansion: []Entry{},
		Active:    []Entry{},
	}
}
