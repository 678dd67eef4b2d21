// Package email delivers digests as HTML mail over SMTP.
package email

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/digest"
	"github.com/poiesic/newswire/notify"
	"github.com/wneessen/go-mail"
)

const (
	// DefaultHost is Gmail's submission server.
	DefaultHost = "smtp.gmail.com"
	// DefaultPort is the SMTP submission port.
	DefaultPort = 587
	// subjectEntities is how many entities the subject line names.
	subjectEntities = 3
)

// ErrMisconfigured is returned when the server, sender or recipients are missing or invalid.
var ErrMisconfigured = errors.New("email notifier misconfigured")

// TLS selects how the connection is secured.
type TLS string

const (
	TLSMandatory     TLS = "mandatory"
	TLSOpportunistic TLS = "opportunistic"
	TLSNone          TLS = "none"
)

// Config holds the SMTP server and addressing for digest mail.
type Config struct {
	Host     string
	Port     int
	Username string // Empty disables SMTP authentication
	Password string
	From     string
	To       []string
	TLS      TLS // Empty means TLSMandatory
	Timeout  time.Duration
}

// Notifier mails each digest as an HTML message with a plain text alternative.
type Notifier struct {
	client *mail.Client
	from   string
	to     []string
}

var _ notify.Notifier = (*Notifier)(nil)

// NewNotifier validates cfg and prepares an SMTP client.
// No connection is made until Notify.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("%w: host, sender and at least one recipient are required", ErrMisconfigured)
	}

	check := mail.NewMsg()
	if err := check.From(cfg.From); err != nil {
		return nil, fmt.Errorf("%w: sender: %w", ErrMisconfigured, err)
	}
	if err := check.To(cfg.To...); err != nil {
		return nil, fmt.Errorf("%w: recipients: %w", ErrMisconfigured, err)
	}

	policy, err := tlsPolicy(cfg.TLS)
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []mail.Option{
		mail.WithTLSPortPolicy(policy),
		mail.WithPort(port),
		mail.WithTimeout(timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMisconfigured, err)
	}

	return &Notifier{
		client: client,
		from:   cfg.From,
		to:     slices.Clone(cfg.To),
	}, nil
}

func tlsPolicy(t TLS) (mail.TLSPolicy, error) {
	switch t {
	case "", TLSMandatory:
		return mail.TLSMandatory, nil
	case TLSOpportunistic:
		return mail.TLSOpportunistic, nil
	case TLSNone:
		return mail.NoTLS, nil
	default:
		return mail.TLSMandatory, fmt.Errorf("%w: unknown tls mode %q", ErrMisconfigured, t)
	}
}

// Notify renders d and sends it in a single SMTP session.
func (n *Notifier) Notify(ctx context.Context, d *core.Digest) error {
	html, err := digest.RenderHTML(d)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("%w: sender: %w", ErrMisconfigured, err)
	}
	if err := msg.To(n.to...); err != nil {
		return fmt.Errorf("%w: recipients: %w", ErrMisconfigured, err)
	}
	msg.Subject(Subject(d))
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, html)
	msg.AddAlternativeString(mail.TypeTextPlain, digest.RenderMarkdown(d))

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send digest mail: %w", err)
	}
	return nil
}

// Subject summarizes d for the mail subject line, naming the entities
// with the most articles:
//
//	🔥 7 High-Priority News Updates - Acme, Globex and 2 others
//	📰 3 News Updates - Initech
func Subject(d *core.Digest) string {
	total := len(d.AllUnique)
	if total == 0 {
		return "📰 No News Updates"
	}

	var b strings.Builder
	if len(d.HighPriority) > 0 {
		fmt.Fprintf(&b, "🔥 %d High-Priority News Updates", total)
	} else {
		fmt.Fprintf(&b, "📰 %d News Updates", total)
	}

	names, others := topEntities(d.AllUnique, subjectEntities)
	b.WriteString(" - ")
	b.WriteString(strings.Join(names, ", "))
	if others > 0 {
		fmt.Fprintf(&b, " and %d others", others)
	}
	return b.String()
}

// topEntities returns up to n entities by article count, ties in digest
// order, and how many entities were left out.
func topEntities(articles []core.Article, n int) ([]string, int) {
	type entityCount struct {
		name  string
		count int
	}
	var counts []entityCount
	pos := make(map[string]int)
	for _, a := range articles {
		i, ok := pos[a.Entity]
		if !ok {
			i = len(counts)
			pos[a.Entity] = i
			counts = append(counts, entityCount{name: a.Entity})
		}
		counts[i].count++
	}

	slices.SortStableFunc(counts, func(a, b entityCount) int {
		return cmp.Compare(b.count, a.count)
	})

	shown := min(n, len(counts))
	names := make([]string, shown)
	for i := range shown {
		names[i] = counts[i].name
	}
	return names, len(counts) - shown
}
