// Package report renders the note history for the terminal or as JSON.
package report

import (
	"io"
	"time"

	"github.com/ppiankov/markovbot/internal/store"
)

// Input is everything a formatter needs.
type Input struct {
	Notes []store.Note
	Since time.Duration // zero means all time
	Now   time.Time
}

// Formatter writes a formatted history to w.
type Formatter interface {
	Format(w io.Writer, in Input) error
}

// Counts splits notes into published and dry-run totals.
func Counts(notes []store.Note) (published, dryRuns int) {
	for _, n := range notes {
		if n.DryRun {
			dryRuns++
		} else {
			published++
		}
	}
	return published, dryRuns
}
