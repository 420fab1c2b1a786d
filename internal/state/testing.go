package state

import (
	"context"
	"os"
	"testing"

	"github.com/juju/errors"
	"github.com/temoto/iotrack/internal/config"
	"github.com/temoto/iotrack/internal/http1"
	"github.com/temoto/iotrack/log2"
)

// NewTestContext builds Global from inline config with MockDialer answering `response`.
func NewTestContext(t testing.TB, confString string, response string) (context.Context, *Global, *http1.MockDialer) {
	fs := config.NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("iotrack_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log)
	dialer := &http1.MockDialer{Response: response}
	g.Dialer = dialer
	cfg, err := config.Read(log, fs, "test-inline")
	if err != nil {
		t.Fatal(errors.ErrorStack(err))
	}
	if err := g.Init(ctx, cfg); err != nil {
		t.Fatal(errors.ErrorStack(err))
	}
	return ctx, g, dialer
}
