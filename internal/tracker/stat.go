package tracker

import (
	"expvar"
	"fmt"
	"sync/atomic"

	"github.com/temoto/iotrack/helpers/atomic_clock"
	"github.com/temoto/iotrack/internal/http1"
	"github.com/temoto/iotrack/internal/types"
)

type Stat struct {
	Attempts         uint32
	Success          uint32 // 2xx
	Rejected         uint32 // other HTTP status
	ConnectionFailed uint32
	TimedOut         uint32
	InvalidResponse  uint32
	MissingArgument  uint32
	LastSuccess      atomic_clock.Clock
	LastFailure      atomic_clock.Clock

	// collector stream traffic
	BytesSent     expvar.Int
	BytesReceived expvar.Int
}

// Publish exposes counters in expvar as prefix.name, call once per process.
func (s *Stat) Publish(prefix string) {
	expvar.Publish(prefix+".bytes_sent", &s.BytesSent)
	expvar.Publish(prefix+".bytes_received", &s.BytesReceived)
	expvar.Publish(prefix+".stat", expvar.Func(func() interface{} { return s.String() }))
}

// statPoller counts bytes polled from collector.
type statPoller struct {
	p http1.Poller
	v *expvar.Int
}

func (sp statPoller) Poll() (byte, bool) {
	b, ok := sp.p.Poll()
	if ok {
		sp.v.Add(1)
	}
	return b, ok
}

func (s *Stat) record(o types.Outcome) {
	atomic.AddUint32(&s.Attempts, 1)
	var counter *uint32
	switch {
	case o == types.OutcomeConnectionFailed:
		counter = &s.ConnectionFailed
	case o == types.OutcomeTimedOut:
		counter = &s.TimedOut
	case o == types.OutcomeInvalidResponse:
		counter = &s.InvalidResponse
	case o == types.OutcomeMissingArgument:
		counter = &s.MissingArgument
	case o >= 200 && o < 300:
		atomic.AddUint32(&s.Success, 1)
		s.LastSuccess.SetNow()
		return
	default:
		counter = &s.Rejected
	}
	atomic.AddUint32(counter, 1)
	s.LastFailure.SetNow()
}

func (s *Stat) String() string {
	last := "never"
	if !s.LastSuccess.IsZero() {
		last = s.LastSuccess.Time().Format("2006-01-02T15:04:05")
	}
	return fmt.Sprintf("attempts=%d success=%d rejected=%d connection_failed=%d timed_out=%d invalid_response=%d missing_argument=%d bytes_sent=%d bytes_received=%d last_success=%s",
		atomic.LoadUint32(&s.Attempts), atomic.LoadUint32(&s.Success), atomic.LoadUint32(&s.Rejected),
		atomic.LoadUint32(&s.ConnectionFailed), atomic.LoadUint32(&s.TimedOut), atomic.LoadUint32(&s.InvalidResponse),
		atomic.LoadUint32(&s.MissingArgument), s.BytesSent.Value(), s.BytesReceived.Value(), last)
}
