package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// EnrichmentState tracks a document's progress through the pipeline.
type EnrichmentState string

const (
	StateEmpty          EnrichmentState = "empty"
	StateEnriching      EnrichmentState = "enriching"
	StateSplitPending   EnrichmentState = "split_pending"
	StateSplitDone      EnrichmentState = "split_done"
	StateEnrichedSingle EnrichmentState = "enriched_single"
	StateFailed         EnrichmentState = "failed"
)

// DigestTagSuffix marks story records spawned from a digest so the router
// never treats them as fresh source documents.
const DigestTagSuffix = "-digest"

// SourceDocument is one ingested newsletter message. Raw content is immutable
// once stored; only the enrichment stage mutates state and enrichment fields.
type SourceDocument struct {
	ID          string
	RoutingTag  string
	Title       string
	Sender      string
	ContentHTML string
	ContentText string
	CreatedAt   time.Time
	State       EnrichmentState

	// Populated by the single-record enrichment path.
	EnrichedBody string
	Keywords     []string
	Score        float64

	// Summary marker stamped after a digest split.
	SplitCount int
}

// DocumentID derives the stable document identifier from subject, sender and
// receipt time. Re-ingesting the same message yields the same id.
func DocumentID(subject, sender string, receivedAt time.Time) string {
	sum := md5.Sum([]byte(subject + sender + receivedAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}

// EnrichmentResult is the transient output of one model call. It is consumed
// immediately by either the single-record path or the digest splitter.
type EnrichmentResult struct {
	RawText      string
	ModelID      string
	CostEstimate float64
}

// StoryFragment is one parsed unit of a digest enrichment. Ordinal is taken
// verbatim from the model's numbering and is unique within one digest.
type StoryFragment struct {
	Ordinal int
	Title   string
	Body    string
}

// StoryRecord is one persisted output card produced by the digest splitter.
// Records are immutable after creation except for idempotent full overwrite
// when the parent digest is re-processed.
type StoryRecord struct {
	ID                 string
	RoutingTagSuffixed string
	Title              string
	EnrichedBody       string
	Keywords           []string
	SourceLink         string // empty means no confident match; renderer falls back to OriginalHTMLRef
	Score              float64
	OriginalHTMLRef    string // parent document id, lookup only
	CreatedAt          time.Time
}

// StoryID composes the deterministic child id so re-splitting upserts instead
// of duplicating.
func StoryID(docID string, ordinal int) string {
	return fmt.Sprintf("%s_story_%d", docID, ordinal)
}
