// Package linkmatch scores candidate anchors against a story title and picks
// the best source URL above a confidence floor. A wrong link is worse than no
// link, so low-confidence matches return nothing and the caller falls back to
// rendering the original HTML.
package linkmatch

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	weightSequence  = 0.6
	weightOverlap   = 0.4
	confidenceFloor = 0.4
)

// Anchor is one (anchor text, URL) pair extracted from the source HTML.
type Anchor struct {
	Text string
	URL  string
}

var (
	ordinalPrefix = regexp.MustCompile(`^\s*\d+\.\s*`)
	wordExpr      = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

// English + Portuguese filler words removed before word-overlap scoring.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "is": {},
	"o": {}, "os": {}, "as": {}, "de": {}, "da": {}, "do": {}, "das": {},
	"dos": {}, "e": {}, "em": {}, "para": {},
}

// Match returns the best-matching URL for the fragment title and its combined
// score, or ("", 0) when no anchor clears the confidence floor. Ties keep the
// first-seen anchor (stable scan order).
func Match(fragmentTitle string, anchors []Anchor) (string, float64) {
	title := Normalize(fragmentTitle)
	if title == "" {
		return "", 0
	}

	titleWords := contentWords(title)

	var (
		bestURL   string
		bestScore float64
	)

	for _, anchor := range anchors {
		anchorText := strings.ToLower(strings.TrimSpace(anchor.Text))
		if anchorText == "" {
			continue
		}

		score := sequenceRatio(title, anchorText)

		anchorWords := contentWords(anchorText)
		if len(titleWords) > 0 && len(anchorWords) > 0 {
			score = weightSequence*score + weightOverlap*overlapRatio(titleWords, anchorWords)
		}

		if score > bestScore {
			bestScore = score
			bestURL = anchor.URL
		}
	}

	if bestScore > confidenceFloor {
		return bestURL, bestScore
	}
	return "", 0
}

// Normalize lowercases the title and strips the leading ordinal prefix and
// decoration the digest formatter adds.
func Normalize(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "📰", ""))
	title = ordinalPrefix.ReplaceAllString(title, "")
	return strings.ToLower(strings.TrimSpace(title))
}

// sequenceRatio is a Levenshtein-based similarity in [0,1].
func sequenceRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	dist := dmp.DiffLevenshtein(diffs)

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(longest)
}

// overlapRatio is |title ∩ anchor| / |title| over stopword-free word sets.
func overlapRatio(titleWords, anchorWords map[string]struct{}) float64 {
	if len(titleWords) == 0 {
		return 0
	}

	shared := 0
	for w := range titleWords {
		if _, ok := anchorWords[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(titleWords))
}

func contentWords(text string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, w := range wordExpr.FindAllString(text, -1) {
		if _, stop := stopwords[w]; !stop {
			words[w] = struct{}{}
		}
	}
	return words
}
