// Package posts decides between the on-disk snapshot and the API when
// collecting an account's notes.
package posts

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ppiankov/markovbot/internal/config"
	"github.com/ppiankov/markovbot/internal/misskey"
)

// Snapshot is the cache contract the retriever relies on.
type Snapshot interface {
	Load() ([]misskey.Note, bool, error)
	Save([]misskey.Note) error
}

// SnapshotFunc returns the snapshot that belongs to an account.
type SnapshotFunc func(accountID string) Snapshot

// Retriever returns an account's notes, from its snapshot when one is
// fresh and from the API otherwise.
type Retriever struct {
	lister    misskey.NoteLister
	snapshots SnapshotFunc
	log       zerolog.Logger
}

// NewRetriever wires a retriever.
func NewRetriever(lister misskey.NoteLister, snapshots SnapshotFunc, logger zerolog.Logger) *Retriever {
	return &Retriever{
		lister:    lister,
		snapshots: snapshots,
		log:       logger,
	}
}

// GetPosts returns every note of the account, newest first. A fresh
// snapshot is returned as is, without asking the API for newer notes.
// Otherwise the full history is fetched and written back to the snapshot.
func (r *Retriever) GetPosts(ctx context.Context, account config.Account) ([]misskey.Note, error) {
	log := r.log.With().Str("account", account.ID).Logger()
	log.Info().Msg("getting posts")

	snap := r.snapshots(account.ID)
	cached, ok, err := snap.Load()
	if err != nil {
		return nil, fmt.Errorf("load cached posts of %s: %w", account.ID, err)
	}
	if ok {
		log.Info().Int("posts", len(cached)).Msg("using cached posts")
		return cached, nil
	}

	notes, err := r.lister.UserNotes(ctx, account.Token, misskey.NotesQuery{
		UserID: account.ID,
		Limit:  misskey.PageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch notes of %s: %w", account.ID, err)
	}

	if len(notes) > 0 {
		last := notes[len(notes)-1].ID
		log.Debug().Str("until_id", last).Msg("getting posts until last id")
		older, err := misskey.FetchAll(ctx, r.lister, account.Token, account.ID, last)
		if err != nil {
			return nil, err
		}
		notes = append(notes, older...)
	}
	if notes == nil {
		notes = []misskey.Note{}
	}

	if err := snap.Save(notes); err != nil {
		return nil, fmt.Errorf("save posts of %s: %w", account.ID, err)
	}

	log.Info().Int("posts", len(notes)).Msg("fetched posts")
	return notes, nil
}

// GetAll collects the notes of every account in order. The first failing
// account aborts the whole collection.
func (r *Retriever) GetAll(ctx context.Context, accounts []config.Account) ([]misskey.Note, error) {
	var all []misskey.Note
	for _, acct := range accounts {
		notes, err := r.GetPosts(ctx, acct)
		if err != nil {
			return nil, err
		}
		all = append(all, notes...)
	}
	return all, nil
}
