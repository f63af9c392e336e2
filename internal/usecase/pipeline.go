package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prcodex/codexsage/internal/config"
	"github.com/prcodex/codexsage/internal/digest"
	"github.com/prcodex/codexsage/internal/domain"
	"github.com/prcodex/codexsage/internal/keywords"
	"github.com/prcodex/codexsage/internal/ports"
	"github.com/prcodex/codexsage/internal/router"
)

// Relevance assigned to documents enriched in place, slightly below the
// digest-split scale.
const singleStoryScore = 7.5

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.DocumentSource
	Documents ports.DocumentRepository
	Enricher  ports.Enricher
	Keywords  digest.KeywordExtractor
	Splitter  *digest.Splitter
	Router    *router.Router
	Notifier  ports.Notifier
	Config    config.Config
	Logger    *slog.Logger
}

// Pipeline implements the ingest-then-enrich workflow.
type Pipeline struct {
	source    ports.DocumentSource
	documents ports.DocumentRepository
	enricher  ports.Enricher
	keywords  digest.KeywordExtractor
	splitter  *digest.Splitter
	router    *router.Router
	notifier  ports.Notifier
	cfg       config.Config
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:    deps.Source,
		documents: deps.Documents,
		enricher:  deps.Enricher,
		keywords:  deps.Keywords,
		splitter:  deps.Splitter,
		router:    deps.Router,
		notifier:  deps.Notifier,
		cfg:       deps.Config,
		logger:    logger,
	}
}

// Run executes one full pipeline pass: ingest new mail, then enrich the
// pending batch.
func (p *Pipeline) Run(ctx context.Context, trigger time.Time) error {
	if _, err := p.Ingest(ctx); err != nil {
		return err
	}
	_, err := p.EnrichBatch(ctx, trigger)
	return err
}

// Ingest fetches documents from the intake source and stores the ones not
// seen before. Returns how many were newly stored.
func (p *Pipeline) Ingest(ctx context.Context) (int, error) {
	if p.source == nil {
		return 0, nil
	}

	docs, err := p.source.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch intake: %w", err)
	}

	stored := 0
	for _, doc := range docs {
		fresh, err := p.Absorb(ctx, doc)
		if err != nil {
			return stored, err
		}
		if fresh {
			stored++
		}
	}

	p.logger.Info("ingest complete", "fetched", len(docs), "stored", stored)
	return stored, nil
}

// Absorb stores one document unless it is already known. Returns whether the
// document was fresh.
func (p *Pipeline) Absorb(ctx context.Context, doc domain.SourceDocument) (bool, error) {
	seen, err := p.documents.Exists(ctx, doc.ID)
	if err != nil {
		return false, fmt.Errorf("check document %s: %w", doc.ID, err)
	}
	if seen {
		return false, nil
	}
	if err := p.documents.Save(ctx, doc); err != nil {
		return false, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return true, nil
}

// EnrichBatch selects the pending batch and enriches each document according
// to its routing behavior. Documents run concurrently up to the configured
// worker bound; the fragments of one digest never do.
func (p *Pipeline) EnrichBatch(ctx context.Context, trigger time.Time) (ports.RunReport, error) {
	started := time.Now()
	report := ports.RunReport{RunID: uuid.NewString()}

	set, err := keywords.LoadExclusions(p.cfg.Keywords.ExclusionsPath)
	if err != nil {
		p.logger.Warn("exclusion list unavailable, using built-ins", "error", err)
	}

	since := trigger.Add(-time.Duration(p.cfg.Pipeline.RecencyHours) * time.Hour)
	docs, err := p.documents.Unenriched(ctx, p.cfg.Pipeline.BatchSize, p.cfg.Pipeline.RetryFailed, since)
	if err != nil {
		return report, fmt.Errorf("load batch: %w", err)
	}
	report.Documents = len(docs)

	var stories, singles, failures atomic.Int64

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers())
	for _, doc := range docs {
		doc := doc
		group.Go(func() error {
			count, err := p.processDocument(gctx, doc, set)
			switch {
			case err != nil:
				failures.Add(1)
				p.logger.Error("document failed", "id", doc.ID, "tag", doc.RoutingTag, "error", err)
				// Per-document failures are recorded, not propagated, so
				// one bad document never cancels siblings.
				if gctx.Err() != nil {
					return gctx.Err()
				}
			case count > 0:
				stories.Add(int64(count))
			case count == 0:
				singles.Add(1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return report, err
	}

	report.Stories = int(stories.Load())
	report.Singles = int(singles.Load())
	report.Failures = int(failures.Load())
	report.DurationMS = time.Since(started).Milliseconds()

	p.logger.Info("enrichment run complete",
		"run_id", report.RunID,
		"documents", report.Documents,
		"stories", report.Stories,
		"singles", report.Singles,
		"failures", report.Failures,
		"duration_ms", report.DurationMS)

	if p.notifier != nil && report.Documents > 0 {
		if err := p.notifier.PublishRunReport(ctx, report); err != nil {
			p.logger.Warn("cannot publish run report", "error", err)
		}
	}

	return report, nil
}

// EnrichOne forces a single document through the pipeline regardless of its
// current state. Used by the CLI for targeted reprocessing.
func (p *Pipeline) EnrichOne(ctx context.Context, id string) error {
	set, err := keywords.LoadExclusions(p.cfg.Keywords.ExclusionsPath)
	if err != nil {
		p.logger.Warn("exclusion list unavailable, using built-ins", "error", err)
	}

	doc, err := p.documents.Get(ctx, id)
	if err != nil {
		return err
	}

	_, err = p.processDocument(ctx, doc, set)
	return err
}

// processDocument runs one document through its routed behavior. Returns the
// number of split stories, or 0 for the single path.
func (p *Pipeline) processDocument(ctx context.Context, doc domain.SourceDocument, set keywords.ExclusionSet) (int, error) {
	switch p.router.Resolve(doc.RoutingTag) {
	case router.BehaviorSkip:
		p.logger.Debug("skipping already-split document", "id", doc.ID, "tag", doc.RoutingTag)
		return 0, nil
	case router.BehaviorDigest:
		return p.processDigest(ctx, doc, set)
	default:
		return 0, p.processSingle(ctx, doc, set)
	}
}

func (p *Pipeline) processDigest(ctx context.Context, doc domain.SourceDocument, set keywords.ExclusionSet) (int, error) {
	if err := p.documents.SetState(ctx, doc.ID, domain.StateEnriching); err != nil {
		return 0, err
	}

	result, err := p.enricher.EnrichDigest(ctx, doc)
	if err != nil {
		p.markFailed(ctx, doc.ID)
		return 0, fmt.Errorf("enrich digest: %w", err)
	}

	if err := p.documents.SetState(ctx, doc.ID, domain.StateSplitPending); err != nil {
		return 0, err
	}

	records, err := p.splitter.Split(ctx, doc, result, set)
	if err != nil {
		return 0, fmt.Errorf("split digest: %w", err)
	}
	return len(records), nil
}

func (p *Pipeline) processSingle(ctx context.Context, doc domain.SourceDocument, set keywords.ExclusionSet) error {
	if err := p.documents.SetState(ctx, doc.ID, domain.StateEnriching); err != nil {
		return err
	}

	result, err := p.enricher.EnrichSingle(ctx, doc)
	if err != nil {
		p.markFailed(ctx, doc.ID)
		return fmt.Errorf("enrich single: %w", err)
	}

	kw, err := p.keywords.Extract(ctx, doc.Title, result.RawText, set)
	if err != nil {
		p.markFailed(ctx, doc.ID)
		return fmt.Errorf("extract keywords: %w", err)
	}

	if err := p.documents.SaveEnrichment(ctx, doc.ID, result.RawText, kw, singleStoryScore); err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, id string) {
	if err := p.documents.SetState(ctx, id, domain.StateFailed); err != nil {
		p.logger.Error("cannot mark document failed", "id", id, "error", err)
	}
}

func (p *Pipeline) workers() int {
	if p.cfg.Pipeline.Workers <= 0 {
		return 1
	}
	return p.cfg.Pipeline.Workers
}
