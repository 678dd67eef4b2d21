// Package notify delivers finished digests.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/digest"
)

// Notifier receives a finished digest and delivers it.
// AllUnique is already priority sorted.
type Notifier interface {
	Notify(ctx context.Context, d *core.Digest) error
}

// Format selects how a WriterNotifier renders the digest.
type Format int

const (
	FormatMarkdown Format = iota
	FormatHTML
)

// ParseFormat maps "markdown"/"md" and "html" to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return 0, fmt.Errorf("unknown digest format %q", s)
	}
}

// WriterNotifier writes the rendered digest to an io.Writer.
type WriterNotifier struct {
	w      io.Writer
	format Format
}

// NewWriterNotifier creates a notifier writing to w in format.
func NewWriterNotifier(w io.Writer, format Format) *WriterNotifier {
	return &WriterNotifier{w: w, format: format}
}

func (n *WriterNotifier) Notify(_ context.Context, d *core.Digest) error {
	var body string
	switch n.format {
	case FormatHTML:
		html, err := digest.RenderHTML(d)
		if err != nil {
			return err
		}
		body = html
	default:
		body = digest.RenderMarkdown(d)
	}
	_, err := io.WriteString(n.w, body)
	return err
}

// LogNotifier logs a one-line summary of the digest.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Notify(_ context.Context, d *core.Digest) error {
	n.logger.Info("digest ready",
		"generated_at", d.GeneratedAt,
		"articles", len(d.AllUnique),
		"high_priority", len(d.HighPriority),
		"no_updates", d.NoUpdates,
		"failed_entities", len(d.FailedEntities()))
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, d *core.Digest) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
