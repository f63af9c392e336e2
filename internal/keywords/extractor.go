package keywords

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/prcodex/codexsage/internal/ports"
)

const (
	maxKeywords      = 6
	bodySampleLen    = 2000
	delimiter        = "•"
	extractMaxTokens = 150

	fallbackEnglish    = "Financial News"
	fallbackPortuguese = "Notícias Financeiras"
)

// Boilerplate phrase patterns stripped before the text reaches the model, so
// the model is less likely to echo them back as keywords.
var precleanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(breaking|latest|top|key)\s+(news|updates?|headlines?)\b`),
	regexp.MustCompile(`(?i)\bmarket\s+(updates?|news|highlights?|roundup)\b`),
	regexp.MustCompile(`(?i)\b(daily|weekly|monthly)\s+(brief|report|summary)\b`),
	regexp.MustCompile(`(?i)\b(today'?s?|this\s+week'?s?)\s+\w+\b`),
}

// Small fixed lexicon; presence of any of these marks the text as Portuguese.
var portugueseMarkers = []string{"notícias", "hoje", "brasil", "semana", "economia", "mercado"}

// Extractor produces a bounded set of specific keywords for one piece of text
// via a regex pre-clean, a model call, and an exclusion post-filter.
type Extractor struct {
	model  ports.ModelClient
	logger *slog.Logger
}

// NewExtractor wires the model client used for the extraction call.
func NewExtractor(model ports.ModelClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{model: model, logger: logger}
}

// Extract returns 1..6 keywords for the given title and body. Model failures
// degrade to the language-appropriate fallback sentinel; only a cancelled or
// expired context surfaces as an error.
func (e *Extractor) Extract(ctx context.Context, title, body string, set ExclusionSet) ([]string, error) {
	portuguese := IsPortuguese(body)

	cleanTitle := Preclean(title)
	cleanBody := Preclean(truncate(body, bodySampleLen))

	prompt := buildExtractionPrompt(cleanTitle, cleanBody, portuguese)

	answer, err := e.model.Generate(ctx, prompt, extractMaxTokens)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("keyword extraction: %w", ctx.Err())
		}
		e.logger.Warn("keyword extraction failed, using fallback", "error", err)
		return []string{fallback(portuguese)}, nil
	}

	candidates := splitCandidates(answer)
	kept := Filter(candidates, set)
	if len(kept) > maxKeywords {
		kept = kept[:maxKeywords]
	}

	if len(kept) == 0 {
		return []string{fallback(portuguese)}, nil
	}
	return kept, nil
}

// Preclean strips boilerplate phrase patterns from text.
func Preclean(text string) string {
	cleaned := text
	for _, p := range precleanPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

// IsPortuguese does a fixed lexicon match; good enough to pick the prompt and
// fallback language.
func IsPortuguese(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range portugueseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func fallback(portuguese bool) string {
	if portuguese {
		return fallbackPortuguese
	}
	return fallbackEnglish
}

func splitCandidates(answer string) []string {
	answer = strings.ReplaceAll(answer, "\n", " "+delimiter+" ")
	parts := strings.Split(answer, delimiter)

	candidates := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

func buildExtractionPrompt(title, body string, portuguese bool) string {
	var b strings.Builder

	b.WriteString("Extract 4-6 SPECIFIC KEYWORDS from this financial story.\n\n")
	b.WriteString("GOOD KEYWORDS (concrete and specific):\n")
	b.WriteString("- Company names: \"Apple\", \"Tesla\", \"Petrobras\"\n")
	b.WriteString("- Specific topics: \"AI Chips\", \"Trade War\", \"Interest Rate Cut\"\n")
	b.WriteString("- People: \"Jerome Powell\", \"Elon Musk\", specific CEOs\n")
	b.WriteString("- Places: \"China\", \"Brazil\", \"Federal Reserve\"\n")
	b.WriteString("- Specific concepts: \"Rare Earth Metals\", \"Tariffs\", \"Inflation Target\"\n\n")
	b.WriteString("BAD KEYWORDS (too generic, avoid):\n")
	b.WriteString("- \"Breaking News\", \"Market Updates\", \"Analysis\", \"Report\"\n")
	b.WriteString("- \"Notícias\", \"Análise\", \"Mercado\", \"Resumo\"\n")
	b.WriteString("- \"Markets\", \"Trading\", \"Investors\", \"Today\"\n\n")
	b.WriteString("FOCUS ON what the story is ABOUT (specific entities, events, concepts),\n")
	b.WriteString("NOT how it is presented (news, update, report).\n\n")

	if portuguese {
		b.WriteString("This is Portuguese content. Extract keywords in Portuguese.\n\n")
	}

	b.WriteString("Return ONLY the keywords separated by \" • \" (bullet with spaces).\n")
	b.WriteString("Maximum 6 keywords. Be specific and concrete.\n\n")
	fmt.Fprintf(&b, "Story:\nTitle: %s\n\nContent: %s\n\nKeywords:", title, body)

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
