package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreservesOrdinalGaps(t *testing.T) {
	t.Parallel()

	text := "1. Fed Holds Rates\nThe committee left rates unchanged.\n\n" +
		"2. Dollar Slips\nThe dollar weakened against majors.\n\n" +
		"5. Oil Rallies\nCrude gained three percent."

	fragments := Parse(text)
	require.Len(t, fragments, 3)

	assert.Equal(t, 1, fragments[0].Ordinal)
	assert.Equal(t, 2, fragments[1].Ordinal)
	assert.Equal(t, 5, fragments[2].Ordinal)

	assert.Equal(t, "Fed Holds Rates", fragments[0].Title)
	assert.Equal(t, "The committee left rates unchanged.", fragments[0].Body)
	assert.Equal(t, "Oil Rallies", fragments[2].Title)
}

func TestParseStrongWrappedMarkers(t *testing.T) {
	t.Parallel()

	text := `<strong style="font-size: 18px;">1. Tariff Talks Resume</strong>
Negotiators met in Geneva.

<strong>2. Chip Stocks Jump</strong>
Semiconductor names led the session.`

	fragments := Parse(text)
	require.Len(t, fragments, 2)

	assert.Equal(t, "Tariff Talks Resume", fragments[0].Title)
	assert.Equal(t, "Negotiators met in Geneva.", fragments[0].Body)
	assert.Equal(t, "Chip Stocks Jump", fragments[1].Title)
}

func TestParseNoMarkersFallsBackToSingleFragment(t *testing.T) {
	t.Parallel()

	text := "Central Bank Watch\nA quiet week for policy makers.\nNothing moved."

	fragments := Parse(text)
	require.Len(t, fragments, 1)

	assert.Equal(t, 1, fragments[0].Ordinal)
	assert.Equal(t, "Central Bank Watch", fragments[0].Title)
	assert.Equal(t, "A quiet week for policy makers.\nNothing moved.", fragments[0].Body)
}

func TestParseNeverReturnsEmpty(t *testing.T) {
	t.Parallel()

	fragments := Parse("")
	require.Len(t, fragments, 1)
	assert.Equal(t, 1, fragments[0].Ordinal)
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Oil Rallies", StripTags("<strong>Oil Rallies</strong>"))
	assert.Equal(t, "Plain", StripTags("Plain"))
}
