package mailroom

import (
	"strings"

	"github.com/prcodex/codexsage/internal/config"
)

// Tagger resolves the routing tag for an inbound message: the sender
// allow-list picks the initial tag, then subject/body rules can refine it.
type Tagger struct {
	senders []config.SenderConfig
	rules   []config.TagRuleConfig
}

// NewTagger builds a tagger from the mailroom sender policy.
func NewTagger(cfg config.MailroomConfig) *Tagger {
	return &Tagger{senders: cfg.Senders, rules: cfg.TagRules}
}

// Resolve returns the routing tag for the message, or "" when the sender is
// not allow-listed and the message should be dropped.
func (t *Tagger) Resolve(msg Message) string {
	tag := t.senderTag(msg.Sender)
	if tag == "" {
		return ""
	}
	return t.refine(tag, msg)
}

func (t *Tagger) senderTag(sender string) string {
	lower := strings.ToLower(sender)
	for _, s := range t.senders {
		if !s.IsActive() {
			continue
		}
		for _, pattern := range s.EmailPatterns {
			if strings.Contains(lower, strings.ToLower(pattern)) {
				return s.SenderTag
			}
		}
	}
	return ""
}

// refine applies the first matching tag rule. A rule with a Sender constraint
// only applies to that sender tag; SubjectContains and BodyContains combine
// with AND by default, OR when requested.
func (t *Tagger) refine(tag string, msg Message) string {
	subject := strings.ToLower(msg.Subject)
	body := strings.ToLower(msg.Text)
	if body == "" {
		body = strings.ToLower(msg.HTML)
	}

	for _, rule := range t.rules {
		if rule.Sender != "" && !strings.EqualFold(rule.Sender, tag) {
			continue
		}

		subjectHit := rule.SubjectContains != "" && strings.Contains(subject, strings.ToLower(rule.SubjectContains))
		bodyHit := rule.BodyContains != "" && strings.Contains(body, strings.ToLower(rule.BodyContains))

		var matched bool
		switch {
		case rule.SubjectContains != "" && rule.BodyContains != "":
			if strings.EqualFold(rule.Logic, "OR") {
				matched = subjectHit || bodyHit
			} else {
				matched = subjectHit && bodyHit
			}
		case rule.SubjectContains != "":
			matched = subjectHit
		case rule.BodyContains != "":
			matched = bodyHit
		}

		if matched {
			return rule.Tag
		}
	}
	return tag
}
