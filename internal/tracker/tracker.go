// Package tracker sends structured events to collector, one HTTP GET per event.
//
// Tracker contract:
// - TrackEvent blocks until collector status line is read, error or timeout
// - exactly one connection per event, always closed before return
// - calls are serialized, concurrent callers wait in turn
// - nothing is retried, caller decides
package tracker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/iotrack/helpers"
	"github.com/temoto/iotrack/internal/compose"
	"github.com/temoto/iotrack/internal/http1"
	"github.com/temoto/iotrack/internal/tid"
	"github.com/temoto/iotrack/internal/types"
	"github.com/temoto/iotrack/log2"
)

const ContextKey = "iotrack/tracker"

type Options struct {
	// Identity.Mac is required unless UserId is set, then mac field is sent empty.
	Identity types.Identity

	Dialer http1.Dialer
	Clock  helpers.Clock
	Rand   *rand.Rand

	ResponseTimeout time.Duration
	PollInterval    time.Duration
}

type Tracker struct {
	txLock sync.Mutex // one request at a time
	idLock sync.Mutex // protects identity.UserId

	log      *log2.Log
	identity types.Identity
	dialer   http1.Dialer
	readOpt  http1.ReadOptions
	tids     *tid.Generator
	stat     Stat
}

// New validates and completes configuration. Network is not touched until first TrackEvent.
func New(log *log2.Log, opt Options) (*Tracker, error) {
	id := opt.Identity
	if id.CollectorHost == "" {
		return nil, errors.NotValidf("config: collector host is empty")
	}
	if id.AppId == "" {
		return nil, errors.NotValidf("config: app_id is empty")
	}
	if id.CollectorPort == 0 {
		id.CollectorPort = types.DefaultCollectorPort
	} else if id.CollectorPort < 0 || id.CollectorPort > 65535 {
		return nil, errors.NotValidf("config: collector port=%d", id.CollectorPort)
	}
	if id.CollectorPath == "" {
		id.CollectorPath = types.DefaultCollectorPath
	}
	if id.Platform == "" {
		id.Platform = types.Platform
	}
	if id.TrackerVersion == "" {
		id.TrackerVersion = types.TrackerVersion
	}
	if id.UserAgent == "" {
		id.UserAgent = types.DefaultUserAgent
	}
	if id.UserId == "" {
		if id.Mac == "" {
			return nil, errors.NotValidf("config: both mac and user_id are empty")
		}
		id.UserId = id.Mac
	}

	t := &Tracker{
		log:      log,
		identity: id,
		dialer:   opt.Dialer,
		readOpt: http1.ReadOptions{
			Clock:        opt.Clock,
			Log:          log,
			Timeout:      opt.ResponseTimeout,
			PollInterval: opt.PollInterval,
		},
		tids: tid.New(opt.Rand),
	}
	if t.dialer == nil {
		t.dialer = &http1.NetDialer{}
	}
	if t.readOpt.Clock == nil {
		t.readOpt.Clock = helpers.NewSystemClock()
	}
	t.log.Debugf("tracker collector=%s:%d%s app_id=%s user_id=%s",
		id.CollectorHost, id.CollectorPort, id.CollectorPath, id.AppId, id.UserId)
	return t, nil
}

// SetUserId takes effect on next event. Empty id restores default, the MAC address.
// Without MAC the current user id is kept, it must never become empty.
func (t *Tracker) SetUserId(id string) {
	t.idLock.Lock()
	defer t.idLock.Unlock()
	if id == "" {
		if t.identity.Mac == "" {
			t.log.Errorf("tracker SetUserId empty without mac, keep user_id=%s", t.identity.UserId)
			return
		}
		id = t.identity.Mac
	}
	t.identity.UserId = id
}

func (t *Tracker) UserId() string {
	t.idLock.Lock()
	defer t.idLock.Unlock()
	return t.identity.UserId
}

// Identity snapshot.
func (t *Tracker) Identity() types.Identity {
	t.idLock.Lock()
	defer t.idLock.Unlock()
	return t.identity
}

func (t *Tracker) Stat() *Stat { return &t.stat }

// TrackEvent sends ev and returns collector HTTP status code.
// On failure outcome is negative and err describes it, types.OutcomeOf(err) == outcome.
// ctx only limits connection establishment.
func (t *Tracker) TrackEvent(ctx context.Context, ev types.Event) (types.Outcome, error) {
	id := t.Identity()
	pairs, err := compose.Compose(&ev, &id, t.tids.Next())
	if err != nil {
		t.stat.record(types.OutcomeMissingArgument)
		return types.OutcomeMissingArgument, errors.Annotate(err, "track")
	}

	t.txLock.Lock()
	defer t.txLock.Unlock()

	outcome, err := t.roundTrip(ctx, &id, &http1.Request{
		Host:      id.CollectorHost,
		Path:      id.CollectorPath,
		Query:     pairs,
		UserAgent: id.UserAgent,
	})
	t.stat.record(outcome)
	if err != nil {
		t.log.Debugf("track %s outcome=%d err=%v", ev.String(), outcome, err)
		return outcome, errors.Annotatef(err, "track category=%s action=%s", ev.Category, ev.Action)
	}
	t.log.Debugf("track %s status=%d", ev.String(), outcome)
	return outcome, nil
}

func (t *Tracker) roundTrip(ctx context.Context, id *types.Identity, req *http1.Request) (types.Outcome, error) {
	stream, err := t.dialer.Dial(ctx, id.CollectorHost, id.CollectorPort)
	if err != nil {
		return types.OutcomeConnectionFailed, connectionFailed(err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			t.log.Debugf("tracker close err=%v", err)
		}
	}()

	if _, err = req.WriteTo(helpers.NewStatWriter(stream, &t.stat.BytesSent, 0)); err != nil {
		return types.OutcomeConnectionFailed, connectionFailed(err)
	}
	return http1.ReadStatus(statPoller{p: stream, v: &t.stat.BytesReceived}, t.readOpt)
}

// connectionFailed keeps err text, cause becomes OutcomeConnectionFailed.
func connectionFailed(err error) error {
	return errors.Wrapf(err, types.OutcomeConnectionFailed, "%v", err)
}
