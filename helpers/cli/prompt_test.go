package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptLoop(t *testing.T) {
	t.Parallel()

	input := "track pump start\n\n  # comment\n  stat  \r\nlast"
	lines := []string{}
	err := ScriptLoop(strings.NewReader(input), func(line string) { lines = append(lines, line) })
	require.NoError(t, err)
	assert.Equal(t, []string{"track pump start", "stat", "last"}, lines)
}
