// Package store records every note the bot generated in a local SQLite
// database so published and dry-run output can be audited later.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Note is one generated note as recorded.
type Note struct {
	ID          int64
	NoteID      string // empty for dry runs
	URL         string
	Text        string
	TextHash    string
	CW          *string
	Visibility  string
	DryRun      bool
	SourcePosts int
	CreatedAt   time.Time
}

type NoteInput struct {
	NoteID      string
	URL         string
	Text        string
	CW          *string
	Visibility  string
	DryRun      bool
	SourcePosts int
	CreatedAt   time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordNote stores a generated note. CreatedAt defaults to now.
func (s *Store) RecordNote(ctx context.Context, in NoteInput) (Note, error) {
	if s == nil || s.db == nil {
		return Note{}, errors.New("store is not initialized")
	}
	if strings.TrimSpace(in.Text) == "" {
		return Note{}, errors.New("text is required")
	}
	if in.Visibility == "" {
		return Note{}, errors.New("visibility is required")
	}
	if !in.DryRun && in.NoteID == "" {
		return Note{}, errors.New("note_id is required for published notes")
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (note_id, url, text, text_hash, cw, visibility, dry_run, source_posts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullString(in.NoteID),
		nullString(in.URL),
		in.Text,
		textHash(in.Text),
		nullStringPtr(in.CW),
		in.Visibility,
		in.DryRun,
		in.SourcePosts,
		formatTime(in.CreatedAt),
	)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Note{}, fmt.Errorf("read note id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, selectNotes+" WHERE id = ?", id)
	return scanNote(row)
}

// ListNotes returns notes created at or after since, newest first.
// limit <= 0 means no limit.
func (s *Store) ListNotes(ctx context.Context, since time.Time, limit int) ([]Note, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}

	query := selectNotes + " WHERE created_at >= ? ORDER BY created_at DESC, id DESC"
	args := []any{formatTime(since)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

// CountPublished returns how many notes with the same text were actually
// posted before.
func (s *Store) CountPublished(ctx context.Context, text string) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store is not initialized")
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notes WHERE text_hash = ? AND dry_run = 0", textHash(text),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}

// PruneOld deletes notes older than retainDays and returns how many went.
func (s *Store) PruneOld(ctx context.Context, retainDays int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store is not initialized")
	}
	if retainDays <= 0 {
		return 0, nil
	}

	cutoff := formatTime(s.now().AddDate(0, 0, -retainDays))
	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune old notes: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

const selectNotes = `
	SELECT id, note_id, url, text, text_hash, cw, visibility, dry_run, source_posts, created_at
	FROM notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(scanner rowScanner) (Note, error) {
	var (
		n               Note
		noteID, url, cw sql.NullString
		createdAt       string
	)

	if err := scanner.Scan(
		&n.ID,
		&noteID,
		&url,
		&n.Text,
		&n.TextHash,
		&cw,
		&n.Visibility,
		&n.DryRun,
		&n.SourcePosts,
		&createdAt,
	); err != nil {
		return Note{}, fmt.Errorf("scan note: %w", err)
	}

	n.NoteID = noteID.String
	n.URL = url.String
	if cw.Valid {
		v := cw.String
		n.CW = &v
	}

	var err error
	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return Note{}, fmt.Errorf("parse created_at: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// timeLayout is fixed width so stored timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if ts, err := time.Parse(timeLayout, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
