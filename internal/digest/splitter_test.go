package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prcodex/codexsage/internal/domain"
	"github.com/prcodex/codexsage/internal/keywords"
	"github.com/prcodex/codexsage/internal/linkmatch"
)

type fakeStoryRepo struct {
	records []domain.StoryRecord
	failIDs map[string]bool
}

func (f *fakeStoryRepo) Upsert(_ context.Context, record domain.StoryRecord) error {
	if f.failIDs[record.ID] {
		return errors.New("upsert refused")
	}
	f.records = append(f.records, record)
	return nil
}

type fakeDocRepo struct {
	states     map[string]domain.EnrichmentState
	splitCount map[string]int
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		states:     map[string]domain.EnrichmentState{},
		splitCount: map[string]int{},
	}
}

func (f *fakeDocRepo) Save(context.Context, domain.SourceDocument) error { return nil }
func (f *fakeDocRepo) Exists(context.Context, string) (bool, error)     { return false, nil }
func (f *fakeDocRepo) Unenriched(context.Context, int, bool, time.Time) ([]domain.SourceDocument, error) {
	return nil, nil
}
func (f *fakeDocRepo) Get(context.Context, string) (domain.SourceDocument, error) {
	return domain.SourceDocument{}, nil
}
func (f *fakeDocRepo) SetState(_ context.Context, id string, state domain.EnrichmentState) error {
	f.states[id] = state
	return nil
}
func (f *fakeDocRepo) SaveEnrichment(context.Context, string, string, []string, float64) error {
	return nil
}
func (f *fakeDocRepo) MarkSplit(_ context.Context, id string, count int) error {
	f.states[id] = domain.StateSplitDone
	f.splitCount[id] = count
	return nil
}

// fakeKeywords returns canned keywords, or an error for titles in failTitles.
type fakeKeywords struct {
	failTitles map[string]bool
}

func (f *fakeKeywords) Extract(_ context.Context, title, _ string, _ keywords.ExclusionSet) ([]string, error) {
	if f.failTitles[title] {
		return nil, errors.New("model unavailable")
	}
	return []string{"Fed", "Rates"}, nil
}

type fakeAnchors struct {
	pool []linkmatch.Anchor
}

func (f *fakeAnchors) Extract(string) []linkmatch.Anchor { return f.pool }

func digestDoc() domain.SourceDocument {
	return domain.SourceDocument{
		ID:         "abc123",
		RoutingTag: "Bloomberg",
		Title:      "Evening Briefing",
		CreatedAt:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestSplitTwoStoriesWithDistinctLinks(t *testing.T) {
	t.Parallel()

	stories := &fakeStoryRepo{}
	docs := newFakeDocRepo()
	anchors := &fakeAnchors{pool: []linkmatch.Anchor{
		{Text: "Fed Holds Rates Steady", URL: "https://bloomberg.com/news/fed-holds"},
		{Text: "Oil Prices Rally On Supply Cuts", URL: "https://bloomberg.com/news/oil-rally"},
	}}
	splitter := NewSplitter(stories, docs, &fakeKeywords{}, anchors, nil)

	enrichment := domain.EnrichmentResult{RawText: "1. Fed Holds Rates Steady\nThe committee held.\n\n" +
		"2. Oil Prices Rally On Supply Cuts\nCrude jumped."}

	records, err := splitter.Split(context.Background(), digestDoc(), enrichment, keywords.ExclusionSet{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "abc123_story_1", records[0].ID)
	assert.Equal(t, "abc123_story_2", records[1].ID)
	assert.Equal(t, "Bloomberg-digest", records[0].RoutingTagSuffixed)
	assert.Equal(t, "https://bloomberg.com/news/fed-holds", records[0].SourceLink)
	assert.Equal(t, "https://bloomberg.com/news/oil-rally", records[1].SourceLink)
	assert.Equal(t, 8.0, records[0].Score)
	assert.Equal(t, "abc123", records[0].OriginalHTMLRef)

	assert.Equal(t, domain.StateSplitDone, docs.states["abc123"])
	assert.Equal(t, 2, docs.splitCount["abc123"])
	assert.Len(t, stories.records, 2)
}

func TestSplitFragmentFailureIsIsolated(t *testing.T) {
	t.Parallel()

	stories := &fakeStoryRepo{}
	docs := newFakeDocRepo()
	kw := &fakeKeywords{failTitles: map[string]bool{"Dollar Slips": true}}
	splitter := NewSplitter(stories, docs, kw, &fakeAnchors{}, nil)

	enrichment := domain.EnrichmentResult{RawText: "1. Fed Holds Rates\nHeld.\n\n2. Dollar Slips\nSlipped."}

	records, err := splitter.Split(context.Background(), digestDoc(), enrichment, keywords.ExclusionSet{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Fed Holds Rates", records[0].Title)
	assert.Equal(t, domain.StateSplitDone, docs.states["abc123"])
	assert.Equal(t, 1, docs.splitCount["abc123"])
}

func TestSplitAllFragmentsFailedMarksDocumentFailed(t *testing.T) {
	t.Parallel()

	stories := &fakeStoryRepo{}
	docs := newFakeDocRepo()
	kw := &fakeKeywords{failTitles: map[string]bool{"Only Story": true}}
	splitter := NewSplitter(stories, docs, kw, &fakeAnchors{}, nil)

	enrichment := domain.EnrichmentResult{RawText: "1. Only Story\nBody."}

	records, err := splitter.Split(context.Background(), digestDoc(), enrichment, keywords.ExclusionSet{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no fragments survived"))
	assert.Empty(t, records)
	assert.Equal(t, domain.StateFailed, docs.states["abc123"])
}

func TestSplitIsDeterministic(t *testing.T) {
	t.Parallel()

	enrichment := domain.EnrichmentResult{RawText: "1. Fed Holds Rates\nHeld.\n\n2. Dollar Slips\nSlipped."}

	run := func() []domain.StoryRecord {
		stories := &fakeStoryRepo{}
		splitter := NewSplitter(stories, newFakeDocRepo(), &fakeKeywords{}, &fakeAnchors{}, nil)
		records, err := splitter.Split(context.Background(), digestDoc(), enrichment, keywords.ExclusionSet{})
		require.NoError(t, err)
		return records
	}

	assert.Equal(t, run(), run())
}
