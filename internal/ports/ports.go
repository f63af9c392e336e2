package ports

import (
	"context"
	"time"

	"github.com/prcodex/codexsage/internal/domain"
)

// DocumentSource supplies freshly ingested documents (mailroom intake).
type DocumentSource interface {
	Fetch(ctx context.Context) ([]domain.SourceDocument, error)
}

// DocumentRepository persists source documents and their enrichment lifecycle.
type DocumentRepository interface {
	Save(ctx context.Context, doc domain.SourceDocument) error
	Exists(ctx context.Context, id string) (bool, error)
	// Unenriched returns documents in StateEmpty (plus StateFailed when
	// includeFailed is set) received after since, oldest first, bounded
	// by limit.
	Unenriched(ctx context.Context, limit int, includeFailed bool, since time.Time) ([]domain.SourceDocument, error)
	Get(ctx context.Context, id string) (domain.SourceDocument, error)
	SetState(ctx context.Context, id string, state domain.EnrichmentState) error
	// SaveEnrichment records the single-path result and moves the document
	// to StateEnrichedSingle.
	SaveEnrichment(ctx context.Context, id, enrichedBody string, keywords []string, score float64) error
	// MarkSplit stamps the fragment count and moves the document to
	// StateSplitDone so the unenriched query never re-selects it.
	MarkSplit(ctx context.Context, id string, count int) error
}

// StoryRepository upserts split story records keyed by deterministic id.
type StoryRepository interface {
	Upsert(ctx context.Context, record domain.StoryRecord) error
}

// ModelClient is the single fallible call to a hosted language model.
type ModelClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Enricher produces the enrichment text for one document via a model call.
type Enricher interface {
	EnrichDigest(ctx context.Context, doc domain.SourceDocument) (domain.EnrichmentResult, error)
	EnrichSingle(ctx context.Context, doc domain.SourceDocument) (domain.EnrichmentResult, error)
}

// RunReport summarizes one pipeline run for the notifier.
type RunReport struct {
	RunID      string
	Documents  int
	Stories    int
	Singles    int
	Failures   int
	DurationMS int64
}

// Notifier publishes run summaries to an external channel.
type Notifier interface {
	PublishRunReport(ctx context.Context, report RunReport) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
