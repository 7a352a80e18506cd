// Package misskey talks to the notes API of a Misskey-compatible instance.
package misskey

// User is the author copy embedded in every note.
type User struct {
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Host     *string `json:"host"`
}

// Note is a single post as returned by the API. Ids are opaque but
// ordered by recency on the server.
type Note struct {
	ID   string  `json:"id"`
	Text *string `json:"text"`
	CW   *string `json:"cw"`
	User User    `json:"user"`
}

// HasText reports whether the note carries non-nil text.
func (n Note) HasText() bool {
	return n.Text != nil
}

// Visibility values accepted by notes/create.
const (
	VisibilityPublic    = "public"
	VisibilityHome      = "home"
	VisibilityFollowers = "followers"
	VisibilitySpecified = "specified"
)

// NotesQuery selects a page of a user's notes.
type NotesQuery struct {
	UserID  string
	Limit   int
	UntilID string
}

// CreateNoteRequest is the body of notes/create.
type CreateNoteRequest struct {
	Text       string  `json:"text"`
	Visibility string  `json:"visibility"`
	CW         *string `json:"cw,omitempty"`
}

type userNotesRequest struct {
	UserID      string `json:"userId"`
	Limit       int    `json:"limit"`
	UntilID     string `json:"untilId,omitempty"`
	WithRenotes bool   `json:"withRenotes"`
	WithBots    bool   `json:"withBots"`
}

type createNoteResponse struct {
	CreatedNote Note `json:"createdNote"`
}
