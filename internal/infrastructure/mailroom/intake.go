package mailroom

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/prcodex/codexsage/internal/domain"
	"github.com/prcodex/codexsage/internal/ports"
)

// DirSource reads already-delivered .eml files from the intake directory.
type DirSource struct {
	dir    string
	tagger *Tagger
	logger *slog.Logger
}

var _ ports.DocumentSource = (*DirSource)(nil)

// NewDirSource wires the intake directory and routing policy.
func NewDirSource(dir string, tagger *Tagger, logger *slog.Logger) *DirSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSource{dir: dir, tagger: tagger, logger: logger}
}

// Fetch scans the intake directory and returns every allow-listed message as
// a source document. Unparseable files and unknown senders are logged and
// skipped, never fatal.
func (s *DirSource) Fetch(ctx context.Context) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read intake dir %s: %w", s.dir, err)
	}

	var docs []domain.SourceDocument
	for _, entry := range entries {
		if ctx.Err() != nil {
			return docs, ctx.Err()
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".eml") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		doc, ok := s.load(path)
		if !ok {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *DirSource) load(path string) (domain.SourceDocument, bool) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("cannot open intake file", "path", path, "error", err)
		return domain.SourceDocument{}, false
	}
	defer f.Close()

	msg, err := ParseMessage(f)
	if err != nil {
		s.logger.Warn("cannot parse intake file", "path", path, "error", err)
		return domain.SourceDocument{}, false
	}

	tag := s.tagger.Resolve(msg)
	if tag == "" {
		s.logger.Debug("sender not allow-listed, skipping", "path", path, "sender", msg.Sender)
		return domain.SourceDocument{}, false
	}

	return domain.SourceDocument{
		ID:          domain.DocumentID(msg.Subject, msg.Sender, msg.ReceivedAt),
		RoutingTag:  tag,
		Title:       msg.Subject,
		Sender:      msg.Sender,
		ContentHTML: msg.HTML,
		ContentText: msg.Text,
		CreatedAt:   msg.ReceivedAt,
		State:       domain.StateEmpty,
	}, true
}

// Watch blocks until ctx is done, invoking onArrival whenever a new .eml file
// lands in the intake directory.
func (s *DirSource) Watch(ctx context.Context, onArrival func(domain.SourceDocument)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".eml") {
				continue
			}
			if doc, ok := s.load(event.Name); ok {
				onArrival(doc)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
