package types

import (
	"fmt"

	"github.com/juju/errors"
)

// Structured event.
// Category and Action are required, the rest is optional.
type Event struct {
	Category string
	Action   string
	Label    Value
	Property Value
	Value    Value
}

func (e *Event) Validate() error {
	switch {
	case e.Category == "":
		return errors.Annotate(OutcomeMissingArgument, "event category")
	case e.Action == "":
		return errors.Annotate(OutcomeMissingArgument, "event action")
	}
	return nil
}

func (e *Event) String() string {
	return fmt.Sprintf("event(category=%s action=%s label=%s property=%s value=%s)",
		e.Category, e.Action, e.Label.String(), e.Property.String(), e.Value.String())
}
