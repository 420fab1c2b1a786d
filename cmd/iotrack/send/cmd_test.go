package send

import (
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/iotrack/internal/types"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	f, err := parseFlags([]string{"-category", "ecomm", "-action", "checkout", "-value", "19.99"}, 2, ioutil.Discard)
	require.NoError(t, err)
	assert.Equal(t, types.Event{Category: "ecomm", Action: "checkout", Value: types.FloatPrecision(19.99, 2)}, f.event())

	f, err = parseFlags([]string{"-category", "t", "-action", "a", "-label", "l", "-value", "7", "-uid", "u"}, 2, ioutil.Discard)
	require.NoError(t, err)
	ev := f.event()
	assert.Equal(t, types.Str("l"), ev.Label)
	assert.False(t, ev.Property.IsSet())
	assert.Equal(t, types.Int(7), ev.Value)
	assert.Equal(t, "u", f.userId)

	_, err = parseFlags([]string{"-nope"}, 2, ioutil.Discard)
	assert.Error(t, err)
	_, err = parseFlags([]string{"-category", "t", "extra"}, 2, ioutil.Discard)
	assert.Contains(t, err.Error(), "unexpected arguments")
}
