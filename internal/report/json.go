package report

import (
	"io"
	"time"

	json "github.com/goccy/go-json"
)

type jsonHistory struct {
	Meta  jsonMeta   `json:"meta"`
	Notes []jsonNote `json:"notes"`
}

type jsonMeta struct {
	Published int    `json:"published"`
	DryRuns   int    `json:"dry_runs"`
	Since     string `json:"since"`
}

type jsonNote struct {
	NoteID      string  `json:"note_id,omitempty"`
	URL         string  `json:"url,omitempty"`
	Text        string  `json:"text"`
	CW          *string `json:"cw,omitempty"`
	Visibility  string  `json:"visibility"`
	DryRun      bool    `json:"dry_run"`
	SourcePosts int     `json:"source_posts"`
	CreatedAt   string  `json:"created_at"`
}

// JSONFormatter formats the history as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, in Input) error {
	published, dryRuns := Counts(in.Notes)
	out := jsonHistory{
		Meta: jsonMeta{
			Published: published,
			DryRuns:   dryRuns,
			Since:     formatSince(in.Since),
		},
		Notes: make([]jsonNote, 0, len(in.Notes)),
	}
	for _, n := range in.Notes {
		out.Notes = append(out.Notes, jsonNote{
			NoteID:      n.NoteID,
			URL:         n.URL,
			Text:        n.Text,
			CW:          n.CW,
			Visibility:  n.Visibility,
			DryRun:      n.DryRun,
			SourcePosts: n.SourcePosts,
			CreatedAt:   n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
