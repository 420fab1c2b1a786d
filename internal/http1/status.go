package http1

import (
	"time"

	"github.com/juju/errors"
	"github.com/temoto/iotrack/helpers"
	"github.com/temoto/iotrack/internal/types"
	"github.com/temoto/iotrack/log2"
)

const (
	DefaultResponseTimeout = 15 * time.Second
	DefaultPollInterval    = 750 * time.Millisecond

	// '*' matches any single byte
	statusPrefix    = "HTTP/*.* "
	maxStatusDigits = 3
)

type ParseState uint8

const (
	StateRequestSent ParseState = iota
	StateReadingStatusCode
	StateStatusCodeRead
)

func (s ParseState) String() string {
	switch s {
	case StateRequestSent:
		return "request-sent"
	case StateReadingStatusCode:
		return "reading-status-code"
	case StateStatusCodeRead:
		return "status-code-read"
	}
	return "invalid"
}

// StatusParser extracts status code from "HTTP/x.y NNN reason\r\n".
// Informational 1xx lines are skipped, parser restarts for the next status line.
// Zero value is ready to use.
type StatusParser struct {
	state         ParseState
	prefixPos     int
	code          int
	digits        int
	informational int
	done          bool
}

func (p *StatusParser) State() ParseState { return p.state }

// Code is valid after Feed returned done=true.
func (p *StatusParser) Code() types.Outcome { return types.Outcome(p.code) }

// Informational is number of skipped 1xx status lines.
func (p *StatusParser) Informational() int { return p.informational }

func (p *StatusParser) restart() {
	p.state = StateRequestSent
	p.prefixPos = 0
	p.code = 0
	p.digits = 0
}

// Feed is the transition function. Returns done=true when final status line ended with '\n'.
// Error cause is types.OutcomeInvalidResponse.
func (p *StatusParser) Feed(c byte) (bool, error) {
	if p.done {
		return true, nil
	}
	switch p.state {
	case StateRequestSent:
		// whitespace may separate lines after 1xx, first status line must start at once
		if p.prefixPos == 0 && p.informational > 0 && isSpace(c) {
			return false, nil
		}
		expect := statusPrefix[p.prefixPos]
		if expect != '*' && expect != c {
			return false, errors.Annotatef(types.OutcomeInvalidResponse,
				"status line offset=%d byte=%q expected=%q", p.prefixPos, c, expect)
		}
		p.prefixPos++
		if p.prefixPos == len(statusPrefix) {
			p.state = StateReadingStatusCode
		}
		return false, nil

	case StateReadingStatusCode:
		if c >= '0' && c <= '9' {
			p.digits++
			if p.digits > maxStatusDigits {
				return false, errors.Annotatef(types.OutcomeInvalidResponse, "status code longer than %d digits", maxStatusDigits)
			}
			p.code = p.code*10 + int(c-'0')
			return false, nil
		}
		p.state = StateStatusCodeRead
		return p.lineEnd(c)

	case StateStatusCodeRead:
		return p.lineEnd(c)
	}
	panic("code error StatusParser state=" + p.state.String())
}

func (p *StatusParser) lineEnd(c byte) (bool, error) {
	if c != '\n' {
		return false, nil
	}
	code := types.Outcome(p.code)
	switch {
	case code.IsInformational():
		p.informational++
		p.restart()
		return false, nil
	case code < 100:
		return false, errors.Annotatef(types.OutcomeInvalidResponse, "status code=%d digits=%d", p.code, p.digits)
	}
	p.done = true
	return true, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

type ReadOptions struct {
	Clock helpers.Clock
	Log   *log2.Log
	// Timeout restarts with every received byte.
	Timeout time.Duration
	// PollInterval is wait when no byte is available.
	PollInterval time.Duration
}

func (o *ReadOptions) defaults() {
	if o.Clock == nil {
		o.Clock = helpers.NewSystemClock()
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultResponseTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
}

// ReadStatus consumes src until final status line is complete.
// Returns status code or error with cause OutcomeInvalidResponse or OutcomeTimedOut.
// Bytes after status line are not consumed.
func ReadStatus(src Poller, opt ReadOptions) (types.Outcome, error) {
	opt.defaults()
	var p StatusParser
	last := opt.Clock.Now()
	for {
		if c, ok := src.Poll(); ok {
			last = opt.Clock.Now()
			done, err := p.Feed(c)
			if err != nil {
				return types.OutcomeInvalidResponse, err
			}
			if done {
				opt.Log.Debugf("http1 status=%d informational=%d", p.code, p.informational)
				return p.Code(), nil
			}
			continue
		}

		if idle := opt.Clock.Now() - last; idle >= opt.Timeout {
			return types.OutcomeTimedOut, errors.Annotatef(types.OutcomeTimedOut,
				"status line state=%s idle=%v", p.state, idle)
		}
		opt.Clock.Sleep(opt.PollInterval)
	}
}
