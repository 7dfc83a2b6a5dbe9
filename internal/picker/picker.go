// Package picker defines the interactive selection surface. The core
// supplies display strings and backing records; a host-provided picker
// (fuzzy finder, menu, whatever) returns the user's choice. No picker
// implementation ships with the core.
package picker

import "errors"

// ErrCancelled is returned when the user dismisses the picker.
var ErrCancelled = errors.New("picker: cancelled")

// Item pairs a display string with an opaque backing value.
type Item struct {
	Display string
	Value   any
}

// Picker presents items and reports the selection.
type Picker interface {
	// PickOne returns the selected item, or ErrCancelled.
	PickOne(prompt string, items []Item) (Item, error)
	// PickMany returns the selected items, or ErrCancelled.
	PickMany(prompt string, items []Item) ([]Item, error)
}
