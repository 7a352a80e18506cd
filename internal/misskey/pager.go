package misskey

import (
	"context"
	"fmt"
)

// NoteLister returns one page of a user's notes.
type NoteLister interface {
	UserNotes(ctx context.Context, token string, q NotesQuery) ([]Note, error)
}

// FetchAll walks a user's notes backwards from untilID (or from the newest
// note when untilID is empty) until the server returns an empty page.
// Pages are concatenated in fetch order, so the result stays newest first.
// Any failed page aborts the walk and nothing is returned.
func FetchAll(ctx context.Context, lister NoteLister, token, userID, untilID string) ([]Note, error) {
	var all []Note
	cursor := untilID
	for {
		page, err := lister.UserNotes(ctx, token, NotesQuery{
			UserID:  userID,
			Limit:   PageLimit,
			UntilID: cursor,
		})
		if err != nil {
			if cursor == "" {
				return nil, fmt.Errorf("fetch notes of %s: %w", userID, err)
			}
			return nil, fmt.Errorf("fetch notes of %s until %s: %w", userID, cursor, err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		next := page[len(page)-1].ID
		if next == cursor {
			return nil, fmt.Errorf("fetch notes of %s: cursor %s did not advance", userID, cursor)
		}
		cursor = next
	}
}
