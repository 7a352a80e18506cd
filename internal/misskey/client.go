package misskey

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	// PageLimit is the largest page users/notes hands out.
	PageLimit = 100

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "markovbot/1.0"
	maxErrorBody     = 64 << 10
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("misskey: status %d", e.StatusCode)
	}
	return fmt.Sprintf("misskey: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsThrottled reports whether the instance rate limited the request.
func (e *APIError) IsThrottled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a minimal notes API client. Tokens are passed per call so one
// client serves every configured account.
type Client struct {
	instance  string
	baseURL   string
	userAgent string
	client    *http.Client
	log       zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithBaseURL points the client somewhere other than https://<instance>.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for instance, a bare hostname.
func NewClient(instance string, opts ...Option) (*Client, error) {
	instance = strings.TrimSpace(instance)
	if instance == "" {
		return nil, errors.New("misskey: instance is required")
	}
	c := &Client{
		instance:  instance,
		baseURL:   "https://" + instance,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: defaultTimeout},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Instance returns the configured hostname.
func (c *Client) Instance() string {
	return c.instance
}

// NoteURL is the canonical web URL of a note.
func (c *Client) NoteURL(id string) string {
	return fmt.Sprintf("https://%s/notes/%s", c.instance, id)
}

// UserNotes returns one page of a user's notes, newest first. Renotes and
// notes by bots are excluded.
func (c *Client) UserNotes(ctx context.Context, token string, q NotesQuery) ([]Note, error) {
	if q.UserID == "" {
		return nil, errors.New("misskey: user id is required")
	}
	limit := q.Limit
	if limit <= 0 || limit > PageLimit {
		limit = PageLimit
	}

	var notes []Note
	err := c.call(ctx, "users/notes", token, userNotesRequest{
		UserID:      q.UserID,
		Limit:       limit,
		UntilID:     q.UntilID,
		WithRenotes: false,
		WithBots:    false,
	}, &notes)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote publishes a note and returns it as created by the server.
func (c *Client) CreateNote(ctx context.Context, token string, req CreateNoteRequest) (Note, error) {
	var out createNoteResponse
	if err := c.call(ctx, "notes/create", token, req, &out); err != nil {
		return Note{}, err
	}
	if out.CreatedNote.ID == "" {
		return Note{}, errors.New("misskey: notes/create: response has no createdNote id")
	}
	return out.CreatedNote, nil
}

func (c *Client) call(ctx context.Context, endpoint, token string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	url := c.baseURL + "/api/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}
