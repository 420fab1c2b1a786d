// Interactive or scripted event tracking.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/iotrack/cmd/iotrack/subcmd"
	"github.com/temoto/iotrack/helpers/cli"
	"github.com/temoto/iotrack/internal/config"
	"github.com/temoto/iotrack/internal/query"
	"github.com/temoto/iotrack/internal/state"
	"github.com/temoto/iotrack/internal/types"
	"github.com/temoto/iotrack/log2"
)

const modName = "cli"

const usage = `syntax: one command per line
- track CATEGORY ACTION [label=X] [property=X] [value=N] [precision=N]
               values are percent-decoded, e.g. label=north%20gate
- uid          show user id
- uid=ID       set user id, empty restores MAC address
- log=yes|no   debug logging
- stat         tracker counters
- help
`

var Mod = subcmd.Mod{Name: modName, Usage: "track events typed at prompt or read from stdin", Main: Main}

func Main(ctx context.Context, config *config.Config, args []string) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	g.Log.Debugf("cli init complete")

	err := cli.MainLoop("iotrack", newExecutor(ctx), newCompleter(), g.Stop)
	g.Log.Infof("stat %s", g.Tracker.Stat().String())
	return err
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "track", Description: "CATEGORY ACTION [label=X] [property=X] [value=N]"},
		{Text: "uid", Description: "show user id"},
		{Text: "uid=", Description: "set user id"},
		{Text: "log=yes", Description: "debug logging on"},
		{Text: "log=no", Description: "debug logging off"},
		{Text: "stat", Description: "tracker counters"},
		{Text: "help"},
	}
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

func newExecutor(ctx context.Context) func(string) {
	g := state.GetGlobal(ctx)
	return func(line string) {
		tbegin := time.Now()
		out, err := execLine(ctx, g, line)
		if err != nil {
			g.Log.Error(errors.ErrorStack(err))
		}
		if out != "" {
			fmt.Println(out)
		}
		g.Log.Debugf("duration=%v", time.Since(tbegin))
	}
}

func execLine(ctx context.Context, g *state.Global, line string) (string, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", nil
	}
	switch cmd := words[0]; {
	case cmd == "help":
		return usage, nil

	case cmd == "track":
		ev, err := ParseTrack(words[1:], g.Config.FloatPrecision())
		if err != nil {
			return "", err
		}
		outcome, err := g.Tracker.TrackEvent(ctx, ev)
		return fmt.Sprintf("%s outcome=%s", ev.String(), outcome.String()), err

	case cmd == "uid":
		return g.Tracker.UserId(), nil

	case strings.HasPrefix(cmd, "uid="):
		id, err := query.Unescape(strings.TrimPrefix(cmd, "uid="))
		if err != nil {
			return "", errors.Annotate(err, "uid")
		}
		g.Tracker.SetUserId(id)
		return g.Tracker.UserId(), nil

	case strings.HasPrefix(cmd, "log="):
		switch strings.TrimPrefix(cmd, "log=") {
		case "yes":
			g.Log.SetLevel(log2.LDebug)
		case "no":
			g.Log.SetLevel(log2.LInfo)
		default:
			return "", errors.NotValidf("%s, expected log=yes|no", cmd)
		}
		return "", nil

	case cmd == "stat":
		return g.Tracker.Stat().String(), nil
	}
	return "", errors.NotSupportedf("command=%s", words[0])
}

// ParseTrack reads `CATEGORY ACTION [key=value]...`, values are percent-decoded.
// Empty category or action is allowed here so tracker reports missing argument.
func ParseTrack(words []string, defaultPrecision int) (types.Event, error) {
	ev := types.Event{}
	if len(words) < 2 {
		return ev, errors.Errorf("track requires CATEGORY ACTION, see help")
	}
	var err error
	if ev.Category, err = query.Unescape(words[0]); err != nil {
		return ev, errors.Annotate(err, "category")
	}
	if ev.Action, err = query.Unescape(words[1]); err != nil {
		return ev, errors.Annotate(err, "action")
	}

	precision := defaultPrecision
	rawValue := ""
	for _, w := range words[2:] {
		parts := strings.SplitN(w, "=", 2)
		if len(parts) != 2 {
			return ev, errors.NotValidf("argument=%s expected key=value", w)
		}
		key := parts[0]
		value, err := query.Unescape(parts[1])
		if err != nil {
			return ev, errors.Annotatef(err, "argument=%s", key)
		}
		switch key {
		case "label":
			ev.Label = types.Str(value)
		case "property":
			ev.Property = types.Str(value)
		case "value":
			rawValue = value
		case "precision":
			if precision, err = strconv.Atoi(value); err != nil {
				return ev, errors.NotValidf("precision=%s", value)
			}
		default:
			return ev, errors.NotSupportedf("argument=%s", key)
		}
	}
	ev.Value = types.ParseValue(rawValue, precision)
	return ev, nil
}
