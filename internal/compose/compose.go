// Package compose merges tracker identity with event fields into wire pairs.
package compose

import (
	"strconv"

	"github.com/juju/errors"
	"github.com/temoto/iotrack/internal/query"
	"github.com/temoto/iotrack/internal/types"
)

// Wire field names, order of Compose result.
const (
	FieldTid            = "tid"
	FieldPlatform       = "p"
	FieldMac            = "mac"
	FieldUserId         = "uid"
	FieldAppId          = "aid"
	FieldTrackerVersion = "tv"
	FieldEvent          = "e"
	FieldCategory       = "ev_ca"
	FieldAction         = "ev_ac"
	FieldLabel          = "ev_la"
	FieldProperty       = "ev_pr"
	FieldValue          = "ev_va"
)

// Compose returns pairs for one structured event.
// Invalid event error cause is types.OutcomeMissingArgument.
func Compose(ev *types.Event, id *types.Identity, tid uint32) (query.Pairs, error) {
	if err := ev.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return query.Pairs{
		query.P(FieldTid, strconv.FormatUint(uint64(tid), 10)),
		query.P(FieldPlatform, id.Platform),
		query.P(FieldMac, id.Mac),
		query.P(FieldUserId, id.UserId),
		query.P(FieldAppId, id.AppId),
		query.P(FieldTrackerVersion, id.TrackerVersion),
		query.P(FieldEvent, types.StructuredEventMarker),
		query.P(FieldCategory, ev.Category),
		query.P(FieldAction, ev.Action),
		optional(FieldLabel, ev.Label),
		optional(FieldProperty, ev.Property),
		optional(FieldValue, ev.Value),
	}, nil
}

func optional(name string, v types.Value) query.Pair {
	if !v.IsSet() {
		return query.Absent(name)
	}
	return query.P(name, v.String())
}
