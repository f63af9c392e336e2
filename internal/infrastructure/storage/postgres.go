package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/prcodex/codexsage/internal/domain"
	"github.com/prcodex/codexsage/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and ensures the schema exists.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		routing_tag TEXT NOT NULL,
		title TEXT NOT NULL,
		sender TEXT NOT NULL,
		content_html TEXT NOT NULL DEFAULT '',
		content_text TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		state TEXT NOT NULL DEFAULT 'empty',
		enriched_body TEXT NOT NULL DEFAULT '',
		keywords TEXT[] NOT NULL DEFAULT '{}',
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		split_count INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		routing_tag TEXT NOT NULL,
		title TEXT NOT NULL,
		enriched_body TEXT NOT NULL,
		keywords TEXT[] NOT NULL DEFAULT '{}',
		source_link TEXT NOT NULL DEFAULT '',
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		original_html_ref TEXT NOT NULL REFERENCES documents(id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS documents_state_idx ON documents (state, created_at);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// DocumentStore persists source documents and their enrichment lifecycle.
type DocumentStore struct {
	db *sql.DB
}

var _ ports.DocumentRepository = (*DocumentStore)(nil)

// NewDocumentStore wires a sql.DB implementation.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save inserts a freshly ingested document. Raw content is immutable, so a
// conflicting id is left untouched.
func (s *DocumentStore) Save(ctx context.Context, doc domain.SourceDocument) error {
	query, args, err := psql.Insert("documents").
		Columns("id", "routing_tag", "title", "sender", "content_html", "content_text", "created_at", "state").
		Values(doc.ID, doc.RoutingTag, doc.Title, doc.Sender, doc.ContentHTML, doc.ContentText, doc.CreatedAt, string(domain.StateEmpty)).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

// Exists reports whether the document id is already stored.
func (s *DocumentStore) Exists(ctx context.Context, id string) (bool, error) {
	query, args, err := psql.Select("1").From("documents").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists %s: %w", id, err)
	}
	return true, nil
}

// Unenriched selects the batch for one pipeline run, oldest first.
func (s *DocumentStore) Unenriched(ctx context.Context, limit int, includeFailed bool, since time.Time) ([]domain.SourceDocument, error) {
	states := []string{string(domain.StateEmpty)}
	if includeFailed {
		states = append(states, string(domain.StateFailed))
	}

	builder := psql.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"state": states}).
		OrderBy("created_at ASC").
		Limit(uint64(limit))
	if !since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unenriched: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unenriched: %w", err)
	}
	defer rows.Close()

	var docs []domain.SourceDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return docs, nil
}

// Get loads one document by id.
func (s *DocumentStore) Get(ctx context.Context, id string) (domain.SourceDocument, error) {
	query, args, err := psql.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("build get: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	doc, err := scanDocument(row)
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// SetState records a lifecycle transition.
func (s *DocumentStore) SetState(ctx context.Context, id string, state domain.EnrichmentState) error {
	query, args, err := psql.Update("documents").
		Set("state", string(state)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set state: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set state %s=%s: %w", id, state, err)
	}
	return nil
}

// SaveEnrichment stores the single-path result and finishes the document.
func (s *DocumentStore) SaveEnrichment(ctx context.Context, id, enrichedBody string, kw []string, score float64) error {
	query, args, err := psql.Update("documents").
		Set("enriched_body", enrichedBody).
		Set("keywords", pq.StringArray(kw)).
		Set("score", score).
		Set("state", string(domain.StateEnrichedSingle)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save enrichment: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save enrichment %s: %w", id, err)
	}
	return nil
}

// MarkSplit stamps the fragment count so the unenriched query never
// re-selects this digest.
func (s *DocumentStore) MarkSplit(ctx context.Context, id string, count int) error {
	query, args, err := psql.Update("documents").
		Set("split_count", count).
		Set("state", string(domain.StateSplitDone)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark split: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark split %s: %w", id, err)
	}
	return nil
}

var documentColumns = []string{
	"id", "routing_tag", "title", "sender", "content_html", "content_text",
	"created_at", "state", "enriched_body", "keywords", "score", "split_count",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.SourceDocument, error) {
	var (
		doc   domain.SourceDocument
		state string
		kw    pq.StringArray
	)
	err := row.Scan(
		&doc.ID, &doc.RoutingTag, &doc.Title, &doc.Sender,
		&doc.ContentHTML, &doc.ContentText, &doc.CreatedAt,
		&state, &doc.EnrichedBody, &kw, &doc.Score, &doc.SplitCount,
	)
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("scan document: %w", err)
	}
	doc.State = domain.EnrichmentState(state)
	doc.Keywords = kw
	return doc, nil
}

// StoryStore upserts split story records.
type StoryStore struct {
	db *sql.DB
}

var _ ports.StoryRepository = (*StoryStore)(nil)

// NewStoryStore wires a sql.DB implementation.
func NewStoryStore(db *sql.DB) *StoryStore {
	return &StoryStore{db: db}
}

// Upsert inserts or fully overwrites the story keyed by its deterministic id,
// so re-splitting a digest converges instead of duplicating.
func (s *StoryStore) Upsert(ctx context.Context, record domain.StoryRecord) error {
	query, args, err := psql.Insert("stories").
		Columns("id", "routing_tag", "title", "enriched_body", "keywords", "source_link", "score", "original_html_ref", "created_at").
		Values(record.ID, record.RoutingTagSuffixed, record.Title, record.EnrichedBody,
			pq.StringArray(record.Keywords), record.SourceLink, record.Score,
			record.OriginalHTMLRef, record.CreatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE
			SET routing_tag = EXCLUDED.routing_tag,
			    title = EXCLUDED.title,
			    enriched_body = EXCLUDED.enriched_body,
			    keywords = EXCLUDED.keywords,
			    source_link = EXCLUDED.source_link,
			    score = EXCLUDED.score,
			    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert story %s: %w", record.ID, err)
	}
	return nil
}
