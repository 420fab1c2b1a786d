package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/iotrack/internal/types"
	"github.com/temoto/iotrack/log2"
)

type fakeTracker struct {
	mu      sync.Mutex
	events  []types.Event
	outcome types.Outcome
}

func (f *fakeTracker) TrackEvent(ctx context.Context, ev types.Event) (types.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if f.outcome.IsError() {
		return f.outcome, f.outcome
	}
	return f.outcome, nil
}

func newTestBridge(t testing.TB, tr Tracker, queue int) *Bridge {
	b, err := New(log2.NewTest(t, log2.LDebug), tr, Options{
		Broker:    "tcp://127.0.0.1:1",
		Topic:     "iotrack/event",
		QueueSize: queue,
		Precision: 2,
	})
	require.NoError(t, err)
	return b
}

func TestNew(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	_, err := New(log, &fakeTracker{}, Options{Topic: "x"})
	assert.Contains(t, err.Error(), "broker is empty")
	_, err = New(log, &fakeTracker{}, Options{Broker: "tcp://127.0.0.1:1"})
	assert.Contains(t, err.Error(), "topic is empty")

	b := newTestBridge(t, &fakeTracker{}, 0)
	assert.Equal(t, DefaultQueueSize, cap(b.queue))
	assert.NotEmpty(t, b.opt.ClientId)

	b, err = New(log, &fakeTracker{}, Options{Broker: "tcp://127.0.0.1:1", Topic: "x", Precision: -1})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPrecision, b.opt.Precision)
	b, err = New(log, &fakeTracker{}, Options{Broker: "tcp://127.0.0.1:1", Topic: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, b.opt.Precision)
}

func TestHandle(t *testing.T) {
	t.Parallel()

	ft := &fakeTracker{outcome: 200}
	b := newTestBridge(t, ft, 4)
	ctx := context.Background()

	outcome, err := b.Handle(ctx, []byte(`{"category":"ecomm","action":"checkout","value":19.99}`))
	require.NoError(t, err)
	assert.Equal(t, types.Outcome(200), outcome)

	outcome, err = b.Handle(ctx, []byte(`not json`))
	require.Error(t, err)
	assert.Equal(t, types.Outcome(0), outcome)
	assert.Equal(t, uint32(1), b.Invalid())

	ft.outcome = types.OutcomeConnectionFailed
	outcome, err = b.Handle(ctx, []byte(`{"category":"a","action":"b"}`))
	require.Error(t, err)
	assert.Equal(t, types.OutcomeConnectionFailed, outcome)

	require.Len(t, ft.events, 2)
	assert.Equal(t, uint32(1), b.Invalid())
	assert.Equal(t, "19.99", ft.events[0].Value.String())
}

func TestEnqueueDrop(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, &fakeTracker{}, 2)
	assert.True(t, b.enqueue([]byte("1")))
	assert.True(t, b.enqueue([]byte("2")))
	assert.False(t, b.enqueue([]byte("3")))
	assert.Equal(t, uint32(1), b.Dropped())
	assert.Equal(t, []byte("1"), <-b.queue)
}

func TestRunStopped(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, &fakeTracker{}, 1)
	a := alive.NewAlive()
	a.Stop()
	assert.NoError(t, b.Run(context.Background(), a))
	a.Wait()
}
