package report

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter formats the history as Markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the history as Markdown to w, published notes first.
func (f *MarkdownFormatter) Format(w io.Writer, in Input) error {
	published, dryRuns := Counts(in.Notes)

	fmt.Fprintf(w, "# markovbot history\n\n")
	fmt.Fprintf(w, "%d published, %d dry runs, %s\n\n", published, dryRuns, formatSince(in.Since))

	if len(in.Notes) == 0 {
		fmt.Fprintln(w, "No notes recorded.")
		return nil
	}

	if published > 0 {
		fmt.Fprintf(w, "## Published (%d)\n\n", published)
		for _, n := range in.Notes {
			if n.DryRun {
				continue
			}
			fmt.Fprintf(w, "### %s\n\n", n.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))
			if n.CW != nil {
				fmt.Fprintf(w, "CW: `%s`\n\n", *n.CW)
			}
			fmt.Fprintf(w, "> %s\n\n", quote(n.Text))
			if n.URL != "" {
				fmt.Fprintf(w, "[Link](%s)\n\n", n.URL)
			}
		}
	}

	if dryRuns > 0 {
		fmt.Fprintf(w, "## Dry runs (%d)\n\n", dryRuns)
		for _, n := range in.Notes {
			if !n.DryRun {
				continue
			}
			fmt.Fprintf(w, "- **%s** %s\n", n.CreatedAt.UTC().Format("2006-01-02 15:04"), preview(n.Text))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// quote keeps multi-line text inside one blockquote.
func quote(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n> ")
}
