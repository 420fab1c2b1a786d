// Package cli runs line oriented commands from terminal or script on stdin.
package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
)

// MainLoop reads commands until EOF. Interactive prompt with completion when stdin is terminal.
// `stop` is called on first termination signal.
func MainLoop(tag string, exec func(line string), complete func(d prompt.Document) []prompt.Suggest, stop func()) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer signal.Stop(signalCh)
	go func() {
		<-signalCh
		if stop != nil {
			stop()
		}
		os.Exit(1)
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, complete,
			prompt.OptionTitle(tag),
			prompt.OptionPrefix(tag+"> "),
		).Run()
		return nil
	}
	return ScriptLoop(os.Stdin, exec)
}

// ScriptLoop executes each non-empty line, `#` starts comment line.
func ScriptLoop(r io.Reader, exec func(line string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exec(line)
	}
	return errors.Annotate(scanner.Err(), "script read")
}
