// Package digest implements the NewsBrief digest-splitting subsystem: parsing
// one model-generated enrichment blob into story fragments and fanning it out
// into independent persisted story records.
package digest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/prcodex/codexsage/internal/domain"
)

// Marker lines look like "1. Story Title", optionally wrapped in the <strong>
// formatting the digest prompt asks the model to produce.
var (
	markerExpr = regexp.MustCompile(`^\s*(?:<strong[^>]*>)?\s*(\d+)\.\s+(.+?)\s*$`)
	tagExpr    = regexp.MustCompile(`<[^>]+>`)
)

// Parse scans the enrichment text for numbered story markers and returns the
// fragments in emitted order. Ordinals are taken verbatim from the markers, so
// gaps the model introduced are preserved, not renumbered. Markers embedded in
// body text are accepted as real boundaries; that is a known soft failure mode
// of marker-based parsing and is not disambiguated here.
//
// When no markers are found the whole text becomes a single fragment (ordinal
// 1, title = first line, body = remainder). Parse never returns an empty list.
func Parse(enrichmentText string) []domain.StoryFragment {
	lines := strings.Split(enrichmentText, "\n")

	var (
		fragments []domain.StoryFragment
		current   *domain.StoryFragment
		body      []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		fragments = append(fragments, *current)
		current = nil
		body = nil
	}

	for _, line := range lines {
		if m := markerExpr.FindStringSubmatch(line); m != nil {
			flush()
			ordinal, err := strconv.Atoi(m[1])
			if err != nil {
				// Regex guarantees digits; overflow is the only way here.
				continue
			}
			current = &domain.StoryFragment{
				Ordinal: ordinal,
				Title:   StripTags(m[2]),
			}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	if len(fragments) == 0 {
		return []domain.StoryFragment{singleFragment(enrichmentText)}
	}
	return fragments
}

// singleFragment is the no-marker fallback: the text is treated as one story.
func singleFragment(text string) domain.StoryFragment {
	trimmed := strings.TrimSpace(text)
	title, body, _ := strings.Cut(trimmed, "\n")
	return domain.StoryFragment{
		Ordinal: 1,
		Title:   StripTags(strings.TrimSpace(title)),
		Body:    strings.TrimSpace(body),
	}
}

// StripTags removes residual HTML the model wraps around titles.
func StripTags(s string) string {
	return strings.TrimSpace(tagExpr.ReplaceAllString(s, ""))
}
