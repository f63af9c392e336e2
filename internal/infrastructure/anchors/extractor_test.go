package anchors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeepsArticleLinksInOrder(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<a href="https://www.bloomberg.com/news/articles/fed-holds">Fed Holds Rates Steady</a>
	<a href="https://email.wsj.com/click/abc">Dollar Slips Against Majors</a>
	<a href="https://www.bloomberg.com/news/articles/oil">Oil Rallies</a>
	</body></html>`

	pool := NewExtractor().Extract(html)
	require.Len(t, pool, 3)

	assert.Equal(t, "Fed Holds Rates Steady", pool[0].Text)
	assert.Equal(t, "https://www.bloomberg.com/news/articles/fed-holds", pool[0].URL)
	assert.Equal(t, "Dollar Slips Against Majors", pool[1].Text)
	assert.Equal(t, "Oil Rallies", pool[2].Text)
}

func TestExtractDropsJunkAndNonArticleLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<a href="https://www.bloomberg.com/news/unsubscribe">Unsubscribe</a>
	<a href="mailto:help@bloomberg.com">Contact us</a>
	<a href="https://twitter.com/business">Follow us</a>
	<a href="https://example.com/somewhere">Random Site Story</a>
	<a href="https://www.bloomberg.com/news/articles/x">Ok</a>
	<a href="https://www.bloomberg.com/news/articles/real">Real Article Headline</a>
	</body></html>`

	pool := NewExtractor().Extract(html)
	require.Len(t, pool, 1)
	assert.Equal(t, "Real Article Headline", pool[0].Text)
}

func TestExtractEmptyOrMalformedHTML(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NewExtractor().Extract(""))
	assert.Empty(t, NewExtractor().Extract("<div><a href="))
}
