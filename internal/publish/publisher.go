// Package publish posts generated text back to the instance.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/markovbot/internal/misskey"
	"github.com/ppiankov/markovbot/internal/privacy"
)

// NoteCreator creates a note.
type NoteCreator interface {
	CreateNote(ctx context.Context, token string, req misskey.CreateNoteRequest) (misskey.Note, error)
	NoteURL(id string) string
}

// Options carries everything the publisher reads from configuration.
type Options struct {
	Token      string
	Visibility string
	// CW is attached to the note when non-nil.
	CW       *string
	Disabled bool
	Redactor *privacy.Redactor
	Out      io.Writer
	Logger   zerolog.Logger
}

// Result describes what was (or would have been) posted.
type Result struct {
	NoteID     string
	URL        string
	Text       string
	CW         *string
	Visibility string
	DryRun     bool
}

// Publisher sanitizes text and posts it, or reports it on a dry run.
type Publisher struct {
	creator NoteCreator
	opts    Options
}

// New returns a publisher. creator may be nil when posting is disabled.
func New(creator NoteCreator, opts Options) *Publisher {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Visibility == "" {
		opts.Visibility = misskey.VisibilityPublic
	}
	return &Publisher{creator: creator, opts: opts}
}

// Sanitize applies redaction and neutralizes mentions.
func (p *Publisher) Sanitize(text string) string {
	return privacy.SanitizeMentions(p.opts.Redactor.Apply(text))
}

// Publish sanitizes text and creates the note. With posting disabled it
// prints what would have been posted and makes no request.
func (p *Publisher) Publish(ctx context.Context, text string) (Result, error) {
	sanitized := p.Sanitize(text)
	res := Result{
		Text:       sanitized,
		CW:         p.opts.CW,
		Visibility: p.opts.Visibility,
	}

	if p.opts.Disabled {
		res.DryRun = true
		fmt.Fprintf(p.opts.Out, "The following post would have been created:\n%s\n", sanitized)
		if p.opts.CW != nil {
			fmt.Fprintf(p.opts.Out, "The following CW would have been set:\n%s\n", *p.opts.CW)
		} else {
			fmt.Fprintln(p.opts.Out, "No CW would have been set")
		}
		p.opts.Logger.Debug().Msg("posting disabled, note not created")
		return res, nil
	}

	if p.creator == nil {
		return Result{}, errors.New("publish: no API client configured")
	}

	note, err := p.creator.CreateNote(ctx, strings.TrimSpace(p.opts.Token), misskey.CreateNoteRequest{
		Text:       sanitized,
		Visibility: p.opts.Visibility,
		CW:         p.opts.CW,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create note: %w", err)
	}

	res.NoteID = note.ID
	res.URL = p.creator.NoteURL(note.ID)
	fmt.Fprintln(p.opts.Out, res.URL)
	p.opts.Logger.Info().Str("note", note.ID).Str("visibility", res.Visibility).Msg("note created")
	return res, nil
}
