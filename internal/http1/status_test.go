package http1

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/iotrack/helpers"
	"github.com/temoto/iotrack/internal/types"
	"github.com/temoto/iotrack/log2"
)

func TestReadStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		input      string
		stallEvery int
		expect     types.Outcome
		unread     string
	}{
		{"ok", "HTTP/1.1 200 OK\r\n", 0, 200, ""},
		{"ok-headers-left", "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n", 0, 200, "Content-Length: 0\r\n\r\n"},
		{"not-found", "HTTP/1.0 404 Not Found\r\n", 0, 404, ""},
		{"server-error", "HTTP/1.1 500 Internal Server Error\r\n", 0, 500, ""},
		{"no-reason", "HTTP/1.1 204\r\n", 0, 204, ""},
		{"lf-only", "HTTP/1.1 302 Found\n", 0, 302, ""},
		{"continue-then-final", "HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 200 OK\r\n", 0, 200, ""},
		{"processing-indented", "HTTP/1.1 102 Processing\r\n HTTP/1.1 200 OK\r\n", 0, 200, ""},
		{"two-informational", "HTTP/1.1 100 Continue\r\nHTTP/1.1 103 Early Hints\r\nHTTP/1.1 201 Created\r\n", 0, 201, ""},
		{"partial-reads", "HTTP/1.1 100 Continue\r\nHTTP/1.1 200 OK\r\n", 2, 200, ""},
		{"version-wildcard", "HTTP/x.y 200 OK\r\n", 0, 200, ""},
		{"no-prefix", "SSH-2.0-OpenSSH\r\n", 0, types.OutcomeInvalidResponse, "SH-2.0-OpenSSH\r\n"},
		{"leading-space-first-line", " HTTP/1.1 200 OK\r\n", 0, types.OutcomeInvalidResponse, "HTTP/1.1 200 OK\r\n"},
		{"leading-crlf-first-line", "\r\nHTTP/1.1 200 OK\r\n", 0, types.OutcomeInvalidResponse, "\nHTTP/1.1 200 OK\r\n"},
		{"lowercase-prefix", "http/1.1 200 OK\r\n", 0, types.OutcomeInvalidResponse, "ttp/1.1 200 OK\r\n"},
		{"http2", "HTTP/2 200\r\n", 0, types.OutcomeInvalidResponse, "200\r\n"},
		{"no-code", "HTTP/1.1 OK\r\n", 0, types.OutcomeInvalidResponse, ""},
		{"long-code", "HTTP/1.1 2000 OK\r\n", 0, types.OutcomeInvalidResponse, " OK\r\n"},
		{"low-code", "HTTP/1.1 42 OK\r\n", 0, types.OutcomeInvalidResponse, ""},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			clock := &helpers.FakeClock{}
			m := NewMockStream(c.input)
			m.StallEvery = c.stallEvery
			result, err := ReadStatus(m, ReadOptions{Clock: clock, Log: log2.NewTest(t, log2.LDebug)})
			assert.Equal(t, c.expect, result)
			if c.expect.IsError() {
				require.Error(t, err)
				assert.Equal(t, c.expect, types.OutcomeOf(err))
				// malformed input must not wait
				assert.Equal(t, time.Duration(0), clock.Now())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, c.unread, m.Unread())
		})
	}
}

func TestReadStatusTimeout(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
	}{
		{"silent", ""},
		{"stall-in-prefix", "HTTP/1"},
		{"stall-in-code", "HTTP/1.1 20"},
		{"stall-before-lf", "HTTP/1.1 200 OK\r"},
		{"stall-after-informational", "HTTP/1.1 100 Continue\r\n"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			clock := &helpers.FakeClock{}
			m := NewMockStream(c.input)
			result, err := ReadStatus(m, ReadOptions{
				Clock:        clock,
				Timeout:      15 * time.Second,
				PollInterval: 750 * time.Millisecond,
			})
			assert.Equal(t, types.OutcomeTimedOut, result)
			assert.Equal(t, types.OutcomeTimedOut, types.OutcomeOf(err))
			assert.Equal(t, 20, clock.Sleeps())
			assert.Equal(t, 15*time.Second, clock.Now())
		})
	}
}

// slowPoller delivers next byte only after clock advanced by step.
type slowPoller struct {
	clock *helpers.FakeClock
	data  string
	step  time.Duration
	next  time.Duration
}

func (p *slowPoller) Poll() (byte, bool) {
	if p.data == "" || p.clock.Now() < p.next {
		return 0, false
	}
	c := p.data[0]
	p.data = p.data[1:]
	p.next = p.clock.Now() + p.step
	return c, true
}

func TestReadStatusTimeoutResetsOnByte(t *testing.T) {
	t.Parallel()

	// every byte arrives 10s after previous, total far beyond 15s timeout
	clock := &helpers.FakeClock{}
	input := "HTTP/1.1 200 OK\r\n"
	p := &slowPoller{clock: clock, data: input, step: 10 * time.Second}
	result, err := ReadStatus(p, ReadOptions{Clock: clock, Timeout: 15 * time.Second, PollInterval: time.Second})
	require.NoError(t, err)
	assert.Equal(t, types.Outcome(200), result)
	assert.True(t, clock.Now() > 15*time.Second*time.Duration(len(input))/2)
}

func TestReadStatusDefaults(t *testing.T) {
	t.Parallel()

	clock := &helpers.FakeClock{}
	_, err := ReadStatus(NewMockStream(""), ReadOptions{Clock: clock})
	assert.Equal(t, types.OutcomeTimedOut, types.OutcomeOf(err))
	assert.Equal(t, DefaultResponseTimeout, clock.Now())
	assert.Equal(t, int(DefaultResponseTimeout/DefaultPollInterval), clock.Sleeps())
}

func TestStatusParserStates(t *testing.T) {
	t.Parallel()

	var p StatusParser
	feed := func(s string) (bool, error) {
		var done bool
		var err error
		for i := 0; i < len(s); i++ {
			if done, err = p.Feed(s[i]); err != nil || done {
				return done, err
			}
		}
		return done, err
	}
	assert.Equal(t, StateRequestSent, p.State())
	_, err := feed("HTTP/1.1 ")
	require.NoError(t, err)
	assert.Equal(t, StateReadingStatusCode, p.State())
	_, err = feed("103")
	require.NoError(t, err)
	assert.Equal(t, StateReadingStatusCode, p.State())
	_, err = feed(" Early Hints\r")
	require.NoError(t, err)
	assert.Equal(t, StateStatusCodeRead, p.State())
	_, err = feed("\n")
	require.NoError(t, err)
	assert.Equal(t, StateRequestSent, p.State())
	assert.Equal(t, 1, p.Informational())
	done, err := feed("HTTP/1.1 404 Not Found\r\n")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, types.Outcome(404), p.Code())
	assert.True(t, strings.Contains(StateStatusCodeRead.String(), "read"))
}
