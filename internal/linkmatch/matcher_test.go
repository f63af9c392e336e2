package linkmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPicksBestAnchor(t *testing.T) {
	t.Parallel()

	anchors := []Anchor{
		{Text: "Oil Prices Rally On Supply Cuts", URL: "https://example.com/oil"},
		{Text: "Fed Holds Rates Steady", URL: "https://example.com/fed"},
	}

	url, score := Match("Fed Holds Rates Steady", anchors)
	assert.Equal(t, "https://example.com/fed", url)
	assert.InDelta(t, 1.0, score, 0.01)
}

func TestMatchBelowFloorReturnsNothing(t *testing.T) {
	t.Parallel()

	anchors := []Anchor{
		{Text: "celebrity gossip roundup", URL: "https://example.com/gossip"},
	}

	url, score := Match("quarterly earnings preview", anchors)
	assert.Empty(t, url)
	assert.Zero(t, score)
}

func TestMatchNoAnchors(t *testing.T) {
	t.Parallel()

	url, score := Match("Fed Holds Rates", nil)
	assert.Empty(t, url)
	assert.Zero(t, score)
}

func TestMatchTieKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	anchors := []Anchor{
		{Text: "Fed Holds Rates Steady", URL: "https://example.com/first"},
		{Text: "Fed Holds Rates Steady", URL: "https://example.com/second"},
	}

	url, _ := Match("Fed Holds Rates Steady", anchors)
	assert.Equal(t, "https://example.com/first", url)
}

func TestNormalizeStripsOrdinalAndDecoration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fed holds rates", Normalize("📰 3. Fed Holds Rates"))
	assert.Equal(t, "dollar slips", Normalize("Dollar Slips"))
}

func TestSequenceRatioBounds(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, sequenceRatio("abc", "abc"), 0.001)
	assert.Zero(t, sequenceRatio("", "abc"))
	assert.InDelta(t, 0.0, sequenceRatio("abcd", "wxyz"), 0.001)
}

func TestOverlapRatioStopwordsIgnored(t *testing.T) {
	t.Parallel()

	title := contentWords("the fed holds rates")
	anchor := contentWords("fed holds the line on rates")

	// "the"/"on" are stopwords; all three title content words appear.
	assert.InDelta(t, 1.0, overlapRatio(title, anchor), 0.001)
}
