package digest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prcodex/codexsage/internal/domain"
	"github.com/prcodex/codexsage/internal/keywords"
	"github.com/prcodex/codexsage/internal/linkmatch"
	"github.com/prcodex/codexsage/internal/ports"
)

// Relevance assigned to digest-split stories, matching the single-path scale.
const digestStoryScore = 8.0

// KeywordExtractor yields keywords for one fragment. The production
// implementation degrades model failures to a fallback sentinel internally and
// only errors on hard failures (context cancellation, timeout); any error here
// skips the fragment, not the digest.
type KeywordExtractor interface {
	Extract(ctx context.Context, title, body string, set keywords.ExclusionSet) ([]string, error)
}

// AnchorExtractor turns source HTML into the anchor pool the link matcher
// consumes as-is.
type AnchorExtractor interface {
	Extract(html string) []linkmatch.Anchor
}

// Splitter fans one enriched digest out into N independent story records and
// marks the source document consumed.
type Splitter struct {
	stories   ports.StoryRepository
	documents ports.DocumentRepository
	keywords  KeywordExtractor
	anchors   AnchorExtractor
	logger    *slog.Logger
}

// NewSplitter wires the splitter's collaborators.
func NewSplitter(stories ports.StoryRepository, documents ports.DocumentRepository, kw KeywordExtractor, anchors AnchorExtractor, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{
		stories:   stories,
		documents: documents,
		keywords:  kw,
		anchors:   anchors,
		logger:    logger,
	}
}

// Split parses the enrichment text, builds one StoryRecord per fragment and
// upserts them in ordinal order. Story ids are deterministic, so re-running
// with identical inputs overwrites rather than duplicates.
//
// A failing fragment is logged and skipped; siblings continue. The source
// document moves to SplitDone when at least one fragment succeeded, otherwise
// to Failed so the next scheduled run retries it.
func (s *Splitter) Split(ctx context.Context, doc domain.SourceDocument, enrichment domain.EnrichmentResult, set keywords.ExclusionSet) ([]domain.StoryRecord, error) {
	fragments := Parse(enrichment.RawText)
	anchorPool := s.anchors.Extract(doc.ContentHTML)

	s.logger.Info("splitting digest",
		"document", doc.ID,
		"fragments", len(fragments),
		"anchors", len(anchorPool),
		"model", enrichment.ModelID)

	records := make([]domain.StoryRecord, 0, len(fragments))
	for _, frag := range fragments {
		record, err := s.buildRecord(ctx, doc, frag, anchorPool, set)
		if err != nil {
			s.logger.Warn("fragment skipped",
				"document", doc.ID, "ordinal", frag.Ordinal, "error", err)
			continue
		}

		if err := s.stories.Upsert(ctx, record); err != nil {
			s.logger.Warn("fragment upsert failed",
				"document", doc.ID, "ordinal", frag.Ordinal, "error", err)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		if err := s.documents.SetState(ctx, doc.ID, domain.StateFailed); err != nil {
			return nil, fmt.Errorf("mark document %s failed: %w", doc.ID, err)
		}
		return nil, fmt.Errorf("digest %s: no fragments survived", doc.ID)
	}

	if err := s.documents.MarkSplit(ctx, doc.ID, len(records)); err != nil {
		return records, fmt.Errorf("mark document %s split: %w", doc.ID, err)
	}

	return records, nil
}

func (s *Splitter) buildRecord(ctx context.Context, doc domain.SourceDocument, frag domain.StoryFragment, anchorPool []linkmatch.Anchor, set keywords.ExclusionSet) (domain.StoryRecord, error) {
	kw, err := s.keywords.Extract(ctx, frag.Title, frag.Body, set)
	if err != nil {
		return domain.StoryRecord{}, fmt.Errorf("keywords: %w", err)
	}

	link, confidence := linkmatch.Match(frag.Title, anchorPool)
	if link != "" {
		s.logger.Debug("link matched",
			"document", doc.ID, "ordinal", frag.Ordinal, "confidence", confidence)
	}

	return domain.StoryRecord{
		ID:                 domain.StoryID(doc.ID, frag.Ordinal),
		RoutingTagSuffixed: doc.RoutingTag + domain.DigestTagSuffix,
		Title:              frag.Title,
		EnrichedBody:       frag.Body,
		Keywords:           kw,
		SourceLink:         link,
		Score:              digestStoryScore,
		OriginalHTMLRef:    doc.ID,
		CreatedAt:          doc.CreatedAt,
	}, nil
}
