package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prcodex/codexsage/internal/config"
	"github.com/prcodex/codexsage/internal/digest"
	"github.com/prcodex/codexsage/internal/domain"
	"github.com/prcodex/codexsage/internal/infrastructure/anchors"
	"github.com/prcodex/codexsage/internal/infrastructure/llm"
	"github.com/prcodex/codexsage/internal/infrastructure/mailroom"
	"github.com/prcodex/codexsage/internal/infrastructure/scheduler"
	"github.com/prcodex/codexsage/internal/infrastructure/storage"
	"github.com/prcodex/codexsage/internal/infrastructure/telegram"
	"github.com/prcodex/codexsage/internal/keywords"
	"github.com/prcodex/codexsage/internal/logging"
	"github.com/prcodex/codexsage/internal/ports"
	"github.com/prcodex/codexsage/internal/router"
	"github.com/prcodex/codexsage/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	intake    *mailroom.DirSource
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	documents := storage.NewDocumentStore(db)
	stories := storage.NewStoryStore(db)

	model, modelID, err := buildModel(cfg.LLM)
	if err != nil {
		db.Close()
		return nil, err
	}

	enricher := llm.NewEnricher(model, modelID, baseLogger.With("component", "enricher"))
	extractor := keywords.NewExtractor(model, baseLogger.With("component", "keywords"))
	splitter := digest.NewSplitter(stories, documents, extractor, anchors.NewExtractor(),
		baseLogger.With("component", "splitter"))

	tagger := mailroom.NewTagger(cfg.Mailroom)
	source := mailroom.NewDirSource(cfg.Mailroom.IntakeDir, tagger, baseLogger.With("component", "mailroom"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Documents: documents,
		Enricher:  enricher,
		Keywords:  extractor,
		Splitter:  splitter,
		Router:    router.New(cfg.Routes.DigestTags),
		Notifier:  notifier,
		Config:    cfg,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Logging.Level == "debug")

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		intake:    source,
		pipeline:  pipeline,
		scheduler: usecase.NewScheduler(driver, pipeline),
	}, nil
}

func buildModel(cfg config.LLMConfig) (ports.ModelClient, string, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return llm.NewAnthropicClient(cfg.Anthropic, cfg.Timeout()), cfg.Anthropic.Model, nil
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAI, cfg.Timeout()), cfg.OpenAI.Model, nil
	default:
		return nil, "", fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Pipeline exposes the orchestration use case to the CLI layer.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Run performs a single full pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// Watch ingests mail continuously as it lands in the intake directory,
// blocking until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	return a.intake.Watch(ctx, func(doc domain.SourceDocument) {
		fresh, err := a.pipeline.Absorb(ctx, doc)
		if err != nil {
			a.logger.Error("cannot store arriving document", "id", doc.ID, "error", err)
			return
		}
		if fresh {
			a.logger.Info("document arrived", "id", doc.ID, "tag", doc.RoutingTag)
		}
	})
}

// Schedule starts recurring runs and blocks until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
