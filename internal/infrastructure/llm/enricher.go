package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prcodex/codexsage/internal/domain"
	"github.com/prcodex/codexsage/internal/keywords"
	"github.com/prcodex/codexsage/internal/ports"
)

const (
	digestMaxTokens = 4096
	singleMaxTokens = 1024

	// Content cap sent to the model with either prompt.
	contentSampleLen = 10000

	// Rough chars-per-token used only for cost bookkeeping.
	charsPerToken = 4
)

// Enricher turns source documents into enrichment results via one model call.
type Enricher struct {
	model   ports.ModelClient
	modelID string
	logger  *slog.Logger
}

var _ ports.Enricher = (*Enricher)(nil)

// NewEnricher wires the selected model client.
func NewEnricher(model ports.ModelClient, modelID string, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{model: model, modelID: modelID, logger: logger}
}

// EnrichDigest runs the multi-story digest prompt. One call per digest; the
// splitter fans the result out without further model calls for the bodies.
func (e *Enricher) EnrichDigest(ctx context.Context, doc domain.SourceDocument) (domain.EnrichmentResult, error) {
	return e.enrich(ctx, doc, true)
}

// EnrichSingle runs the ordinary one-record enrichment prompt.
func (e *Enricher) EnrichSingle(ctx context.Context, doc domain.SourceDocument) (domain.EnrichmentResult, error) {
	return e.enrich(ctx, doc, false)
}

func (e *Enricher) enrich(ctx context.Context, doc domain.SourceDocument, digest bool) (domain.EnrichmentResult, error) {
	content := doc.ContentText
	if content == "" {
		content = doc.ContentHTML
	}
	if len(content) > contentSampleLen {
		content = content[:contentSampleLen]
	}

	portuguese := keywords.IsPortuguese(content)

	var prompt string
	maxTokens := singleMaxTokens
	if digest {
		prompt = BuildDigestPrompt(content, portuguese)
		maxTokens = digestMaxTokens
	} else {
		prompt = BuildSinglePrompt(doc.Title, content, portuguese)
	}

	raw, err := e.model.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return domain.EnrichmentResult{}, fmt.Errorf("enrich document %s: %w", doc.ID, err)
	}

	result := domain.EnrichmentResult{
		RawText:      raw,
		ModelID:      e.modelID,
		CostEstimate: float64(len(prompt)+len(raw)) / charsPerToken,
	}

	e.logger.Debug("enrichment produced",
		"document", doc.ID, "model", e.modelID,
		"digest", digest, "tokens_est", int(result.CostEstimate))

	return result, nil
}
