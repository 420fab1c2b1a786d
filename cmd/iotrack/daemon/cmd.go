// Long running service: events from MQTT bridge, systemd notify, graceful stop on signal.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	sd "github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/iotrack/cmd/iotrack/subcmd"
	"github.com/temoto/iotrack/helpers"
	"github.com/temoto/iotrack/internal/bridge"
	"github.com/temoto/iotrack/internal/config"
	"github.com/temoto/iotrack/internal/state"
)

var Mod = subcmd.Mod{Name: "daemon", Usage: "track events from MQTT bridge until stopped (default)", Main: Main}

const stopMargin = 5 * time.Second

// stopTimeout covers one in-flight TrackEvent: dial, then waiting for response.
func stopTimeout(config *config.Config) time.Duration {
	return config.DialTimeout() + config.ResponseTimeout() + stopMargin
}

func Main(ctx context.Context, config *config.Config, args []string) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	if !config.Bridge.Enable {
		return errors.NotValidf("config: daemon requires bridge.enable=true")
	}

	b, err := bridge.New(g.Log, g.Tracker, bridge.Options{
		Broker:         config.Bridge.Broker,
		Topic:          config.Bridge.Topic,
		ClientId:       config.Bridge.ClientId,
		Username:       config.Bridge.Username,
		Password:       config.Bridge.Password,
		ConnectTimeout: helpers.IntSecondDefault(config.Bridge.ConnectTimeout, bridge.DefaultConnectTimeout),
		LogDebug:       config.Bridge.LogDebug,
		Precision:      config.FloatPrecision(),
	})
	if err != nil {
		return errors.Annotate(err, "bridge init")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		g.Log.Infof("signal=%v stopping", s)
		g.Stop()
	}()

	go func() {
		if err := b.Run(ctx, g.Alive); err != nil {
			g.Error(err, "bridge")
			g.Stop()
		}
	}()

	g.Tracker.Stat().Publish("iotrack.tracker")
	subcmd.SdNotify(sd.SdNotifyReady)
	g.Log.Infof("daemon running broker=%s topic=%s", config.Bridge.Broker, config.Bridge.Topic)

	<-g.Alive.StopChan()
	subcmd.SdNotify(sd.SdNotifyStopping)
	if timeout := stopTimeout(config); !g.StopWait(timeout) {
		g.Log.Errorf("stop timeout=%v", timeout)
	}
	g.Log.Infof("stat %s dropped=%d invalid=%d", g.Tracker.Stat().String(), b.Dropped(), b.Invalid())
	return nil
}
