package types

import (
	"strconv"

	"github.com/juju/errors"
)

// Outcome is result of one tracked event.
// Positive is HTTP status code from collector, negative is local error.
// Negative outcomes implement error and serve as error causes.
type Outcome int

const (
	OutcomeConnectionFailed Outcome = -1
	OutcomeTimedOut         Outcome = -3
	OutcomeInvalidResponse  Outcome = -4
	OutcomeMissingArgument  Outcome = -5
)

func (o Outcome) IsError() bool { return o < 0 }

// Informational 1xx status.
func (o Outcome) IsInformational() bool { return o >= 100 && o < 200 }

func (o Outcome) Error() string { return o.String() }

func (o Outcome) String() string {
	switch o {
	case OutcomeConnectionFailed:
		return "connection failed"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeInvalidResponse:
		return "invalid response"
	case OutcomeMissingArgument:
		return "missing argument"
	}
	if o < 0 {
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
	return strconv.Itoa(int(o))
}

// Timeout lets net-style checks `interface{ Timeout() bool }` recognize OutcomeTimedOut.
func (o Outcome) Timeout() bool { return o == OutcomeTimedOut }

// OutcomeOf finds Outcome at the root of annotated err.
// nil gives 0. Unknown cause gives OutcomeConnectionFailed,
// the only outcome meaning "could not talk to collector".
func OutcomeOf(err error) Outcome {
	if err == nil {
		return 0
	}
	if o, ok := errors.Cause(err).(Outcome); ok {
		return o
	}
	return OutcomeConnectionFailed
}
