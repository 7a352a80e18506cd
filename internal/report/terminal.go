package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/markovbot/internal/store"
)

const previewRunes = 80

// TerminalFormatter writes a compact, optionally coloured listing.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

func (f *TerminalFormatter) Format(w io.Writer, in Input) error {
	published, dryRuns := Counts(in.Notes)
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	header := fmt.Sprintf("markovbot: %d published, %d dry runs, %s", published, dryRuns, formatSince(in.Since))
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	if len(in.Notes) == 0 {
		fmt.Fprintln(w, "No notes recorded.")
		return nil
	}

	for _, n := range in.Notes {
		f.writeNote(w, n, now)
	}
	return nil
}

func (f *TerminalFormatter) writeNote(w io.Writer, n store.Note, now time.Time) {
	tag := f.green("[posted]")
	if n.DryRun {
		tag = f.yellow("[dry-run]")
	}
	when := humanize.RelTime(n.CreatedAt, now, "ago", "from now")

	fmt.Fprintf(w, "  %s %s %s\n", tag, f.dim(when), preview(n.Text))
	if n.CW != nil {
		fmt.Fprintf(w, "      %s\n", f.dim("cw: "+*n.CW))
	}
	if n.URL != "" {
		fmt.Fprintf(w, "      %s\n", f.dim(n.URL))
	}
	fmt.Fprintf(w, "      %s\n", f.dim(fmt.Sprintf("%s, trained on %s posts", n.Visibility, humanize.Comma(int64(n.SourcePosts)))))
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	count := 0
	for i := range text {
		if count == previewRunes {
			return text[:i] + "..."
		}
		count++
	}
	return text
}

func formatSince(d time.Duration) string {
	if d <= 0 {
		return "all time"
	}
	hours := int(d.Hours())
	if hours >= 24 && hours%24 == 0 {
		return fmt.Sprintf("since %dd", hours/24)
	}
	return fmt.Sprintf("since %dh", hours)
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) paint(code, s string) string {
	if !f.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (f *TerminalFormatter) bold(s string) string   { return f.paint("1", s) }
func (f *TerminalFormatter) green(s string) string  { return f.paint("32", s) }
func (f *TerminalFormatter) yellow(s string) string { return f.paint("33", s) }
func (f *TerminalFormatter) dim(s string) string    { return f.paint("2", s) }
