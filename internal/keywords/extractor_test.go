package keywords

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	answer string
	err    error
}

func (f *fakeModel) Generate(context.Context, string, int) (string, error) {
	return f.answer, f.err
}

func TestExtractSplitsAndFilters(t *testing.T) {
	t.Parallel()

	model := &fakeModel{answer: "China • Breaking News • Tariffs • Jerome Powell"}
	ex := NewExtractor(model, nil)
	set := NewExclusionSet([]string{"Breaking News"})

	kw, err := ex.Extract(context.Background(), "Trade talks", "Tariff negotiations resumed.", set)
	require.NoError(t, err)
	assert.Equal(t, []string{"China", "Tariffs", "Jerome Powell"}, kw)
}

func TestExtractCapsAtSixKeywords(t *testing.T) {
	t.Parallel()

	model := &fakeModel{answer: "A1 • B2 • C3 • D4 • E5 • F6 • G7 • H8"}
	ex := NewExtractor(model, nil)

	kw, err := ex.Extract(context.Background(), "t", "b", ExclusionSet{})
	require.NoError(t, err)
	assert.Len(t, kw, 6)
}

func TestExtractModelErrorDegradesToFallback(t *testing.T) {
	t.Parallel()

	ex := NewExtractor(&fakeModel{err: errors.New("rate limited")}, nil)

	kw, err := ex.Extract(context.Background(), "Fed watch", "Rates held steady.", ExclusionSet{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Financial News"}, kw)
}

func TestExtractPortugueseFallback(t *testing.T) {
	t.Parallel()

	ex := NewExtractor(&fakeModel{err: errors.New("rate limited")}, nil)

	kw, err := ex.Extract(context.Background(), "Resumo", "As notícias de hoje no Brasil.", ExclusionSet{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Notícias Financeiras"}, kw)
}

func TestExtractAllFilteredDegradesToFallback(t *testing.T) {
	t.Parallel()

	model := &fakeModel{answer: "Breaking News • Analysis"}
	ex := NewExtractor(model, nil)
	set := NewExclusionSet([]string{"Breaking News", "Analysis"})

	kw, err := ex.Extract(context.Background(), "t", "b", set)
	require.NoError(t, err)
	assert.Equal(t, []string{"Financial News"}, kw)
}

func TestExtractCancelledContextSurfacesError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := NewExtractor(&fakeModel{err: context.Canceled}, nil)

	_, err := ex.Extract(ctx, "t", "b", ExclusionSet{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsPortuguese(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPortuguese("As notícias da semana"))
	assert.False(t, IsPortuguese("Weekly roundup of markets"))
}

func TestPrecleanStripsBoilerplate(t *testing.T) {
	t.Parallel()

	got := Preclean("Breaking News: markets rally")
	assert.NotContains(t, got, "Breaking News")
}
