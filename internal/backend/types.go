package backend

import (
	"context"
	"strings"
)

// Item is the backend's description of a single item and its current state.
// Matches the JSON returned by GET /rest/items/{name}.
type Item struct {
	Name             string            `json:"name"`
	Label            string            `json:"label,omitempty"`
	Type             string            `json:"type"`
	State            string            `json:"state"`
	StateDescription *StateDescription `json:"stateDescription,omitempty"`
}

// StateDescription carries display hints for an item's state.
type StateDescription struct {
	Pattern  string `json:"pattern,omitempty"`
	ReadOnly bool   `json:"readOnly,omitempty"`
}

// Pattern returns the display pattern, or "" when none is declared.
func (i *Item) Pattern() string {
	if i == nil || i.StateDescription == nil {
		return ""
	}
	return i.StateDescription.Pattern
}

// BaseType returns the item type without its dimension suffix
// ("Number:Temperature" -> "Number").
func (i *Item) BaseType() string {
	base, _, _ := strings.Cut(i.Type, ":")
	return base
}

// StateReader reads current item state from the backend.
type StateReader interface {
	// GetItem retrieves an item by name using the caller's auth token.
	GetItem(ctx context.Context, token, name string) (*Item, error)
}

// CommandSender sends state-change commands to the backend.
type CommandSender interface {
	// SendCommand requests that the item named name take the given value.
	SendCommand(ctx context.Context, token, name, value string) error
}

// Backend combines reads and commands.
type Backend interface {
	StateReader
	CommandSender
}
