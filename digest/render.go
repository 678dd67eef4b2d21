package digest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/poiesic/newswire/core"
	"github.com/yuin/goldmark"
)

// NoUpdatesText is the body of a digest without articles.
const NoUpdatesText = "No new updates for the tracked companies."

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
	"<", `&lt;`,
	">", `&gt;`,
	"#", `\#`,
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// RenderMarkdown renders d as Markdown: a summary, the articles grouped by
// entity in digest order, and a list of entities that failed.
func RenderMarkdown(d *core.Digest) string {
	var b strings.Builder

	b.WriteString("# Daily News Summary\n\n")
	fmt.Fprintf(&b, "_Generated on %s_\n\n", d.GeneratedAt.Format("January 2, 2006 at 15:04 MST"))

	if d.NoUpdates {
		b.WriteString(NoUpdatesText + "\n")
	} else {
		fmt.Fprintf(&b, "**Summary:** %d articles across %d companies, %d high priority.\n",
			len(d.AllUnique), countWithArticles(d), len(d.HighPriority))

		for _, run := range d.Entities {
			articles := d.ArticlesFor(run.Entity)
			if len(articles) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n## %s\n\n", escape(run.Entity))
			for _, a := range articles {
				writeArticle(&b, a, a.PriorityScore >= DefaultHighPriorityCutoff)
			}
		}
	}

	if failed := d.FailedEntities(); len(failed) > 0 {
		b.WriteString("\n## Failed companies\n\n")
		for _, run := range failed {
			fmt.Fprintf(&b, "- %s: %s\n", escape(run.Entity), escape(run.StageError.Error()))
		}
	}

	return b.String()
}

func writeArticle(b *strings.Builder, a core.Article, high bool) {
	fmt.Fprintf(b, "- **[%s](%s)**", escape(a.Title), a.URL)
	if high {
		b.WriteString(" (high priority)")
	}
	b.WriteString("\n")

	meta := []string{}
	if a.Source != "" {
		meta = append(meta, escape(a.Source))
	}
	if a.HasPublishedAt() {
		meta = append(meta, a.PublishedAt.Format("Jan 2, 2006 15:04"))
	}
	meta = append(meta, fmt.Sprintf("relevance %.1f", a.RelevanceScore))
	fmt.Fprintf(b, "  %s\n", strings.Join(meta, " · "))

	if a.Snippet != "" {
		fmt.Fprintf(b, "  %s\n", escape(truncate(a.Snippet, 300)))
	}
}

func countWithArticles(d *core.Digest) int {
	n := 0
	for _, run := range d.Entities {
		if len(run.Unique) > 0 {
			n++
		}
	}
	return n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

// RenderHTML renders the Markdown digest to sanitized HTML.
func RenderHTML(d *core.Digest) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(RenderMarkdown(d)), &buf); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return string(bluemonday.UGCPolicy().SanitizeBytes(buf.Bytes())), nil
}
