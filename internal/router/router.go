// Package router maps a document's routing tag to its enrichment behavior.
// The mapping is closed and resolved once per document at this boundary; the
// splitter itself never branches on tag strings.
package router

import (
	"strings"

	"github.com/prcodex/codexsage/internal/domain"
)

// Behavior is the handler class selected for a document.
type Behavior int

const (
	// BehaviorSingle enriches the document in place as one record.
	BehaviorSingle Behavior = iota
	// BehaviorDigest enriches once, then splits into story records.
	BehaviorDigest
	// BehaviorSkip marks documents that must never be enriched again,
	// i.e. story records re-ingested as if they were fresh mail.
	BehaviorSkip
)

// Router resolves routing tags against a static tag -> behavior mapping.
type Router struct {
	digestTags map[string]struct{}
}

// New builds the router from the configured digest tag list.
func New(digestTags []string) *Router {
	tags := make(map[string]struct{}, len(digestTags))
	for _, t := range digestTags {
		tags[t] = struct{}{}
	}
	return &Router{digestTags: tags}
}

// Resolve picks the behavior for a routing tag. Tags carrying the digest
// suffix are already-split output and are never re-enriched; unknown tags fall
// back to ordinary single-record enrichment.
func (r *Router) Resolve(routingTag string) Behavior {
	if strings.HasSuffix(routingTag, domain.DigestTagSuffix) {
		return BehaviorSkip
	}
	if _, ok := r.digestTags[routingTag]; ok {
		return BehaviorDigest
	}
	return BehaviorSingle
}
