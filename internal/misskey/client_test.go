package misskey

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func clientWithTransport(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	c, err := NewClient("social.example.dev", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNewClient_EmptyInstance(t *testing.T) {
	_, err := NewClient("  ")
	assert.Error(t, err)
}

func TestClient_NoteURL(t *testing.T) {
	c, err := NewClient("social.example.dev")
	require.NoError(t, err)
	assert.Equal(t, "https://social.example.dev/notes/9xyz", c.NoteURL("9xyz"))
	assert.Equal(t, "social.example.dev", c.Instance())
}

func TestUserNotes_Request(t *testing.T) {
	c := clientWithTransport(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "https://social.example.dev/api/users/notes", r.URL.String())
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body := decodeBody(t, r)
		assert.Equal(t, "u1", body["userId"])
		assert.Equal(t, float64(100), body["limit"])
		assert.Equal(t, false, body["withRenotes"])
		assert.Equal(t, false, body["withBots"])
		_, hasUntil := body["untilId"]
		assert.False(t, hasUntil, "untilId must be omitted without a cursor")

		return response(http.StatusOK, `[
			{"id":"b","text":"second","cw":null,"user":{"name":"Mara","username":"mara","host":null}},
			{"id":"a","text":null,"cw":"spoiler","user":{"name":"Mara","username":"mara","host":"other.example"}}
		]`), nil
	})

	notes, err := c.UserNotes(context.Background(), "tok", NotesQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, "b", notes[0].ID)
	require.NotNil(t, notes[0].Text)
	assert.Equal(t, "second", *notes[0].Text)
	assert.Nil(t, notes[0].CW)
	assert.Nil(t, notes[0].User.Host)

	assert.False(t, notes[1].HasText())
	require.NotNil(t, notes[1].CW)
	assert.Equal(t, "spoiler", *notes[1].CW)
	require.NotNil(t, notes[1].User.Host)
	assert.Equal(t, "other.example", *notes[1].User.Host)
}

func TestUserNotes_UntilID(t *testing.T) {
	c := clientWithTransport(t, func(r *http.Request) (*http.Response, error) {
		body := decodeBody(t, r)
		assert.Equal(t, "cursor1", body["untilId"])
		return response(http.StatusOK, `[]`), nil
	})

	notes, err := c.UserNotes(context.Background(), "tok", NotesQuery{UserID: "u1", UntilID: "cursor1"})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestUserNotes_LimitClamped(t *testing.T) {
	c := clientWithTransport(t, func(r *http.Request) (*http.Response, error) {
		body := decodeBody(t, r)
		assert.Equal(t, float64(PageLimit), body["limit"])
		return response(http.StatusOK, `[]`), nil
	})

	_, err := c.UserNotes(context.Background(), "tok", NotesQuery{UserID: "u1", Limit: 500})
	require.NoError(t, err)
}

func TestUserNotes_MissingUserID(t *testing.T) {
	c := clientWithTransport(t, func(_ *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := c.UserNotes(context.Background(), "tok", NotesQuery{})
	assert.Error(t, err)
}

func TestUserNotes_APIError(t *testing.T) {
	c := clientWithTransport(t, func(_ *http.Request) (*http.Response, error) {
		return response(http.StatusUnauthorized, `{"error":{"code":"CREDENTIAL_REQUIRED","message":"Credential required."}}`), nil
	})

	_, err := c.UserNotes(context.Background(), "bad", NotesQuery{UserID: "u1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "CREDENTIAL_REQUIRED", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Credential required.")
	assert.False(t, apiErr.IsThrottled())
}

func TestUserNotes_APIErrorWithoutBody(t *testing.T) {
	c := clientWithTransport(t, func(_ *http.Request) (*http.Response, error) {
		return response(http.StatusTooManyRequests, ``), nil
	})

	_, err := c.UserNotes(context.Background(), "tok", NotesQuery{UserID: "u1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsThrottled())
	assert.Equal(t, "misskey: status 429", apiErr.Error())
}

func TestUserNotes_MalformedJSON(t *testing.T) {
	c := clientWithTransport(t, func(_ *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{{{not json`), nil
	})

	_, err := c.UserNotes(context.Background(), "tok", NotesQuery{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode users/notes response")
}

func TestUserNotes_ShapeMismatch(t *testing.T) {
	c := clientWithTransport(t, func(_ *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"id":"not-an-array"}`), nil
	})

	_, err := c.UserNotes(context.Background(), "tok", NotesQuery{UserID: "u1"})
	assert.Error(t, err)
}

func TestUserNotes_TransportError(t *testing.T) {
	c := clientWithTransport(t, func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.UserNotes(context.Background(), "tok", NotesQuery{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCreateNote(t *testing.T) {
	cw := "generated"
	c := clientWithTransport(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://social.example.dev/api/notes/create", r.URL.String())
		assert.Equal(t, "Bearer post-token", r.Header.Get("Authorization"))

		body := decodeBody(t, r)
		assert.Equal(t, "hello world", body["text"])
		assert.Equal(t, "home", body["visibility"])
		assert.Equal(t, "generated", body["cw"])

		return response(http.StatusOK, `{"createdNote":{"id":"new1","text":"hello world","cw":"generated","user":{"name":"Bot","username":"bot","host":null}}}`), nil
	})

	note, err := c.CreateNote(context.Background(), "post-token", CreateNoteRequest{
		Text:       "hello world",
		Visibility: VisibilityHome,
		CW:         &cw,
	})
	require.NoError(t, err)
	assert.Equal(t, "new1", note.ID)
}

func TestCreateNote_OmitsCW(t *testing.T) {
	c := clientWithTransport(t, func(r *http.Request) (*http.Response, error) {
		body := decodeBody(t, r)
		_, hasCW := body["cw"]
		assert.False(t, hasCW)
		return response(http.StatusOK, `{"createdNote":{"id":"n2","user":{"name":"","username":"bot"}}}`), nil
	})

	_, err := c.CreateNote(context.Background(), "t", CreateNoteRequest{Text: "x", Visibility: VisibilityPublic})
	require.NoError(t, err)
}

func TestCreateNote_MissingCreatedNote(t *testing.T) {
	c := clientWithTransport(t, func(_ *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{}`), nil
	})

	_, err := c.CreateNote(context.Background(), "t", CreateNoteRequest{Text: "x", Visibility: VisibilityPublic})
	assert.Error(t, err)
}
