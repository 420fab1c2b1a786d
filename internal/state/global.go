package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/iotrack/internal/config"
	"github.com/temoto/iotrack/internal/http1"
	"github.com/temoto/iotrack/internal/netdev"
	"github.com/temoto/iotrack/internal/tracker"
	"github.com/temoto/iotrack/log2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *config.Config
	Log          *log2.Log
	Tracker      *tracker.Tracker

	// Dialer overrides network connections to collector, nil means TCP.
	Dialer http1.Dialer
}

const ContextKey = "iotrack/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *config.Config) error {
	g.Config = cfg
	g.Log.Infof("build version=%s", g.BuildVersion)
	if cfg.LogDebug {
		g.Log.SetLevel(log2.LDebug)
	}
	if err := cfg.Validate(); err != nil {
		return errors.Annotate(err, "config")
	}

	id := cfg.Identity()
	mac, err := g.resolveMac()
	if err != nil {
		if id.UserId == "" {
			return errors.Annotate(err, "mac required when user_id is empty")
		}
		g.Log.Errorf("mac unknown, sending empty err=%v", err)
	} else {
		id.Mac = mac
	}

	dialer := g.Dialer
	if dialer == nil {
		dialer = &http1.NetDialer{
			DialTimeout:  cfg.DialTimeout(),
			WriteTimeout: cfg.ResponseTimeout(),
		}
	}
	g.Tracker, err = tracker.New(g.Log, tracker.Options{
		Identity:        id,
		Dialer:          dialer,
		ResponseTimeout: cfg.ResponseTimeout(),
		PollInterval:    cfg.PollInterval(),
	})
	return errors.Annotate(err, "tracker init")
}

func (g *Global) MustInit(ctx context.Context, cfg *config.Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

// resolveMac prefers configured `mac` over network interface lookup.
func (g *Global) resolveMac() (string, error) {
	if s := g.Config.Mac; s != "" {
		mac, err := netdev.ParseMac(s)
		if err != nil {
			return "", errors.Annotate(err, "config")
		}
		return netdev.FormatMac(mac), nil
	}
	mac, err := netdev.HardwareAddr(g.Config.Interface)
	if err != nil {
		return "", err
	}
	return netdev.FormatMac(mac), nil
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
		return true
	case <-time.After(timeout):
		return false
	}
}
