package instance

import (
	"testing"

	"github.com/npillmayer/varinstance/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimits(t *testing.T) {
	limits, err := ParseLimits([]string{"wdth=100", "wght=75.0:125.0", "it=1"})
	require.NoError(t, err)
	require.Len(t, limits, 3)

	assert.Equal(t, ot.T("wdth"), limits[0].Tag)
	assert.Equal(t, 100.0, limits[0].Min)
	assert.True(t, limits[0].Pinned())

	assert.Equal(t, ot.T("wght"), limits[1].Tag)
	assert.Equal(t, 75.0, limits[1].Min)
	assert.Equal(t, 125.0, limits[1].Max)
	assert.False(t, limits[1].Pinned())

	// short tags are right-padded with spaces
	assert.Equal(t, ot.T("it  "), limits[2].Tag)
}

func TestParseLimitsDegenerateRange(t *testing.T) {
	limits, err := ParseLimits([]string{"wght=400:400"})
	require.NoError(t, err)
	assert.True(t, limits[0].Pinned(), "equal bounds collapse to a pin")
}

func TestParseLimitsErrors(t *testing.T) {
	_, err := ParseLimits([]string{"wght=400", "wght=500"})
	assert.ErrorIs(t, err, ErrDuplicateLimit)

	for _, bad := range []string{"wght", "=400", "wght=", "wght=abc", "toolong=1", "wght=1:x"} {
		_, err := ParseLimits([]string{bad})
		assert.ErrorIs(t, err, ErrBadLimitSyntax, "input %q", bad)
	}
}
