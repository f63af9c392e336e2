package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prcodex/codexsage/internal/ports"
)

// Notifier posts per-run summaries to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishRunReport posts a Markdown summary of one pipeline run.
func (n *Notifier) PublishRunReport(ctx context.Context, report ports.RunReport) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	return n.send(ctx, formatReport(report))
}

func formatReport(report ports.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Enrichment run* `%s`\n", report.RunID)
	fmt.Fprintf(&b, "Documents: %d\n", report.Documents)
	fmt.Fprintf(&b, "Digest stories: %d\n", report.Stories)
	fmt.Fprintf(&b, "Singles: %d\n", report.Singles)
	if report.Failures > 0 {
		fmt.Fprintf(&b, "Failures: %d\n", report.Failures)
	}
	fmt.Fprintf(&b, "Took %dms", report.DurationMS)
	return b.String()
}

func (n *Notifier) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
