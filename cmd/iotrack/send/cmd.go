// One event from command line flags, exit status reflects outcome.
package send

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/temoto/iotrack/cmd/iotrack/subcmd"
	"github.com/temoto/iotrack/internal/config"
	"github.com/temoto/iotrack/internal/state"
	"github.com/temoto/iotrack/internal/types"
)

var Mod = subcmd.Mod{Name: "send", Usage: "track one event: -category C -action A [-label L] [-property P] [-value V]", Main: Main}

type flags struct {
	category  string
	action    string
	label     string
	property  string
	value     string
	precision int
	userId    string
}

func parseFlags(args []string, defaultPrecision int, output io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&f.category, "category", "", "event category, required")
	fs.StringVar(&f.action, "action", "", "event action, required")
	fs.StringVar(&f.label, "label", "", "")
	fs.StringVar(&f.property, "property", "", "")
	fs.StringVar(&f.value, "value", "", "integer, float or string")
	fs.IntVar(&f.precision, "precision", defaultPrecision, "digits after decimal point for float value")
	fs.StringVar(&f.userId, "uid", "", "override user id")
	if err := fs.Parse(args); err != nil {
		return nil, errors.Annotate(err, "send")
	}
	if fs.NArg() != 0 {
		return nil, errors.NotValidf("send unexpected arguments=%v", fs.Args())
	}
	return f, nil
}

// Empty label/property flags are absent, not empty strings.
func (f *flags) event() types.Event {
	ev := types.Event{
		Category: f.category,
		Action:   f.action,
		Value:    types.ParseValue(f.value, f.precision),
	}
	if f.label != "" {
		ev.Label = types.Str(f.label)
	}
	if f.property != "" {
		ev.Property = types.Str(f.property)
	}
	return ev
}

func Main(ctx context.Context, config *config.Config, args []string) error {
	g := state.GetGlobal(ctx)
	f, err := parseFlags(args, config.FloatPrecision(), nil)
	if err != nil {
		return err
	}
	g.MustInit(ctx, config)
	if f.userId != "" {
		g.Tracker.SetUserId(f.userId)
	}

	ev := f.event()
	outcome, err := g.Tracker.TrackEvent(ctx, ev)
	fmt.Println(outcome.String())
	if err != nil {
		return err
	}
	if outcome >= 400 {
		return errors.Errorf("collector rejected %s status=%d", ev.String(), outcome)
	}
	return nil
}
