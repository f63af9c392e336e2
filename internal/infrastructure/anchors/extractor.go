// Package anchors extracts the (anchor text, URL) pool the link matcher
// consumes from a newsletter's HTML body.
package anchors

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prcodex/codexsage/internal/linkmatch"
)

// Navigation/footer links that never point at an article.
var junkMarkers = []string{
	"unsubscribe", "preference", "settings", "manage",
	"facebook.com", "twitter.com", "linkedin.com", "instagram.com",
	"mailto:", "view it in", "ver no navegador", "acesse este link",
}

// Hosts (direct and click-tracking) that article links resolve through.
var articleHosts = []string{
	"wsj.com/articles", "email.wsj.com", "weekendreads.cmail",
	"bloomberg.com/news", "links.message.bloomberg.com",
	"businessinsider.com", "l.businessinsider.com",
	"reuters.com", "newslink.reuters.com",
	"barrons.com", "barrons.cmail19.com",
	"ft.com/content",
	"estadao.com.br", "click.jornal.estadao.com.br",
	"folha", "click.folhadespaulo.com.br",
}

const minAnchorTextLen = 4

// Extractor builds anchor pools from raw HTML.
type Extractor struct{}

// NewExtractor returns a stateless anchor extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns all article-looking anchors in document order. Malformed
// HTML degrades to an empty pool; the caller treats that as "no links".
func (e *Extractor) Extract(html string) []linkmatch.Anchor {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var pool []linkmatch.Anchor
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())

		if !strings.HasPrefix(href, "http") {
			return
		}
		if isJunk(href, text) {
			return
		}
		if !isArticleLink(href) {
			return
		}
		if len(text) < minAnchorTextLen {
			return
		}

		pool = append(pool, linkmatch.Anchor{Text: text, URL: href})
	})

	return pool
}

func isJunk(href, text string) bool {
	h, t := strings.ToLower(href), strings.ToLower(text)
	for _, marker := range junkMarkers {
		if strings.Contains(h, marker) || strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

func isArticleLink(href string) bool {
	h := strings.ToLower(href)
	for _, host := range articleHosts {
		if strings.Contains(h, host) {
			return true
		}
	}
	return false
}
