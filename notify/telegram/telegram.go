// Package telegram delivers digests to a Telegram chat through the Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/digest"
	"github.com/poiesic/newswire/notify"
)

const (
	// DefaultAPIURL is the Telegram Bot API root.
	DefaultAPIURL = "https://api.telegram.org"
	// maxMessageLen is Telegram's limit for a single message.
	maxMessageLen = 4096
)

// ErrMisconfigured is returned when the bot token or chat ID is missing.
var ErrMisconfigured = errors.New("telegram notifier misconfigured")

// Notifier sends digests to a Telegram chat.
type Notifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

var _ notify.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) (*Notifier, error) {
	if botToken == "" || chatID == "" {
		return nil, ErrMisconfigured
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   DefaultAPIURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// WithAPIURL points the notifier at a different Bot API root.
func (n *Notifier) WithAPIURL(apiURL string) *Notifier {
	n.apiURL = strings.TrimSuffix(apiURL, "/")
	return n
}

// Notify posts the Markdown digest as plain text, split to fit Telegram's message limit.
func (n *Notifier) Notify(ctx context.Context, d *core.Digest) error {
	for _, chunk := range split(digest.RenderMarkdown(d), maxMessageLen) {
		if err := n.send(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

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

// split breaks text into chunks of at most limit bytes, preferring line boundaries.
func split(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8Start(text[cut]) {
				cut--
			}
			if cut == 0 {
				// No rune boundary in range: invalid UTF-8, cut at the byte limit.
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
