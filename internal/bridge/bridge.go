// Package bridge feeds events from MQTT topic into tracker.
// Messages are queued and tracked one by one on single goroutine.
package bridge

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/iotrack/helpers"
	"github.com/temoto/iotrack/internal/types"
	"github.com/temoto/iotrack/log2"
)

const (
	DefaultQueueSize      = 64
	DefaultConnectTimeout = 10 * time.Second
	DefaultKeepAlive      = 60 * time.Second
)

type Tracker interface {
	TrackEvent(context.Context, types.Event) (types.Outcome, error)
}

type Options struct {
	Broker         string
	Topic          string
	ClientId       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	LogDebug       bool

	Precision int // for float values without explicit precision, negative means default
	QueueSize int
}

type Bridge struct {
	log     *log2.Log
	opt     Options
	tracker Tracker
	client  mqtt.Client
	backoff helpers.Backoff
	queue   chan []byte
	dropped uint32
	invalid uint32
}

func New(log *log2.Log, tracker Tracker, opt Options) (*Bridge, error) {
	if opt.Broker == "" {
		return nil, errors.NotValidf("bridge broker is empty")
	}
	if opt.Topic == "" {
		return nil, errors.NotValidf("bridge topic is empty")
	}
	if opt.ClientId == "" {
		host, _ := os.Hostname()
		opt.ClientId = fmt.Sprintf("iotrack-%s-%d", host, os.Getpid())
	}
	if opt.ConnectTimeout == 0 {
		opt.ConnectTimeout = DefaultConnectTimeout
	}
	if opt.QueueSize <= 0 {
		opt.QueueSize = DefaultQueueSize
	}
	if opt.Precision < 0 {
		opt.Precision = types.DefaultPrecision
	}
	b := &Bridge{
		log:     log,
		opt:     opt,
		tracker: tracker,
		backoff: helpers.Backoff{Min: time.Second, Max: time.Minute, K: 2},
		queue:   make(chan []byte, opt.QueueSize),
	}

	mopt := mqtt.NewClientOptions().
		AddBroker(opt.Broker).
		SetClientID(opt.ClientId).
		SetUsername(opt.Username).
		SetPassword(opt.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetKeepAlive(DefaultKeepAlive).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(b.onConnectionLost)
	b.client = mqtt.NewClient(mopt)
	return b, nil
}

// Run connects to broker, retrying with backoff, then tracks queued messages until `a` is stopped.
func (b *Bridge) Run(ctx context.Context, a *alive.Alive) error {
	if !a.Add(1) {
		return nil
	}
	defer a.Done()

	// paho loggers are package globals
	mqtt.ERROR = b.log
	mqtt.CRITICAL = b.log
	mqtt.WARN = b.log
	if b.opt.LogDebug {
		mqtt.DEBUG = b.log
	}

	stopCh := a.StopChan()
	for a.IsRunning() {
		select {
		case <-stopCh:
			return nil
		case <-time.After(b.backoff.DelayBefore()):
		}
		err := b.connect()
		b.backoff.Update(err == nil)
		if err == nil {
			break
		}
		b.log.Errorf("bridge connect broker=%s err=%v retry in %v", b.opt.Broker, err, b.backoff.DelayBefore())
	}
	if !a.IsRunning() {
		return nil
	}
	defer b.client.Disconnect(250)

	for {
		select {
		case <-stopCh:
			return nil
		case payload := <-b.queue:
			b.Handle(ctx, payload)
		}
	}
}

func (b *Bridge) connect() error {
	token := b.client.Connect()
	if !token.WaitTimeout(b.opt.ConnectTimeout) {
		return types.OutcomeTimedOut
	}
	return errors.Trace(token.Error())
}

// Handle decodes one payload and tracks it.
// Undecodable payload is counted in Invalid() and returns zero outcome, tracker is not called.
func (b *Bridge) Handle(ctx context.Context, payload []byte) (types.Outcome, error) {
	ev, err := ParseMessage(payload, b.opt.Precision)
	if err != nil {
		n := atomic.AddUint32(&b.invalid, 1)
		b.log.Errorf("bridge payload=%q invalid=%d err=%v", payload, n, err)
		return 0, err
	}
	outcome, err := b.tracker.TrackEvent(ctx, ev)
	if err != nil {
		b.log.Errorf("bridge track %s outcome=%s err=%v", ev.String(), outcome.String(), err)
	} else {
		b.log.Debugf("bridge track %s outcome=%s", ev.String(), outcome.String())
	}
	return outcome, err
}

func (b *Bridge) Dropped() uint32 { return atomic.LoadUint32(&b.dropped) }
func (b *Bridge) Invalid() uint32 { return atomic.LoadUint32(&b.invalid) }

// enqueue never blocks paho router
func (b *Bridge) enqueue(payload []byte) bool {
	select {
	case b.queue <- payload:
		return true
	default:
		n := atomic.AddUint32(&b.dropped, 1)
		b.log.Errorf("bridge queue full, dropped=%d", n)
		return false
	}
}

func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	b.log.Debugf("bridge message topic=%s payload=%s", msg.Topic(), msg.Payload())
	b.enqueue(msg.Payload())
}

func (b *Bridge) onConnect(c mqtt.Client) {
	b.log.Infof("bridge connected broker=%s", b.opt.Broker)
	if token := c.Subscribe(b.opt.Topic, 1, b.onMessage); token.Wait() && token.Error() != nil {
		b.log.Errorf("bridge subscribe topic=%s err=%v", b.opt.Topic, token.Error())
	}
}

func (b *Bridge) onConnectionLost(_ mqtt.Client, err error) {
	b.log.Errorf("bridge connection lost err=%v", err)
}
