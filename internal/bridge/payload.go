package bridge

import (
	"bytes"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/juju/errors"
	"github.com/temoto/iotrack/internal/types"
)

// Message is JSON payload of one event:
// {"category":"pump","action":"start","label":"p1","value":3.5,"precision":1}
type Message struct {
	Category  string          `json:"category"`
	Action    string          `json:"action"`
	Label     *string         `json:"label,omitempty"`
	Property  *string         `json:"property,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Precision *int            `json:"precision,omitempty"`
}

// ParseMessage decodes payload into Event.
// Floats without explicit precision use defaultPrecision.
func ParseMessage(payload []byte, defaultPrecision int) (types.Event, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return types.Event{}, errors.Annotate(err, "bridge message decode")
	}
	return m.Event(defaultPrecision)
}

func (m *Message) Event(defaultPrecision int) (types.Event, error) {
	ev := types.Event{Category: m.Category, Action: m.Action}
	if m.Label != nil {
		ev.Label = types.Str(*m.Label)
	}
	if m.Property != nil {
		ev.Property = types.Str(*m.Property)
	}
	precision := defaultPrecision
	if m.Precision != nil {
		precision = *m.Precision
	}
	v, err := parseValue(m.Value, precision)
	if err != nil {
		return types.Event{}, errors.Annotatef(err, "bridge message category=%s action=%s", m.Category, m.Action)
	}
	ev.Value = v
	return ev, nil
}

func parseValue(raw json.RawMessage, precision int) (types.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return types.Value{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return types.Value{}, errors.Annotate(err, "value")
		}
		return types.Str(s), nil
	}
	s := string(raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return types.Int(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.FloatPrecision(f, precision), nil
	}
	return types.Value{}, errors.NotValidf("value=%s", s)
}
