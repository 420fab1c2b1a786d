package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/iotrack/cmd/iotrack/cli"
	"github.com/temoto/iotrack/cmd/iotrack/daemon"
	"github.com/temoto/iotrack/cmd/iotrack/send"
	"github.com/temoto/iotrack/cmd/iotrack/subcmd"
	"github.com/temoto/iotrack/internal/config"
	"github.com/temoto/iotrack/internal/state"
	"github.com/temoto/iotrack/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

var log = log2.NewStderr(log2.LInfo)

var modules = []subcmd.Mod{
	daemon.Mod,
	cli.Mod,
	send.Mod,
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "iotrack.hcl", "")
	cmdline.Usage = func() {
		fmt.Fprintf(cmdline.Output(), "Usage: %s [-config=iotrack.hcl] [command] [args]\ncommands:\n%s",
			os.Args[0], subcmd.Usage(modules))
		cmdline.PrintDefaults()
	}
	_ = cmdline.Parse(os.Args[1:])

	command := daemon.Mod.Name
	args := cmdline.Args()
	if len(args) != 0 {
		command, args = args[0], args[1:]
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		cmdline.Usage()
		log.Fatal(err)
	}

	if subcmd.SdNotify("start") {
		// under systemd, journal adds timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	cfg := config.MustRead(log, config.NewOsFullReader(), *flagConfig)
	log.Debugf("config app_id=%s collector=%s bridge=%v", cfg.AppId, cfg.CollectorHost(), cfg.Bridge.Enable)

	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion
	if err := mod.Main(ctx, cfg, args); err != nil {
		log.Fatalf("command=%s error=%v", mod.Name, errors.ErrorStack(err))
	}
}
