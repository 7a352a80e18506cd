// Package cache keeps a per-account snapshot of fetched notes on disk.
// The file modification time is the only staleness signal.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ppiankov/markovbot/internal/misskey"
)

// DefaultMaxAge is how long a snapshot may be reused.
const DefaultMaxAge = 7 * 24 * time.Hour

// Store reads and writes one snapshot file.
type Store struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAge overrides DefaultMaxAge. Non-positive values are ignored.
func WithMaxAge(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store for the snapshot at path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		maxAge: DefaultMaxAge,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PathFor derives the snapshot path of one account from the configured
// base path: posts.json becomes posts.<accountID>.json.
func PathFor(base, accountID string) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".json"
	}
	return stem + "." + accountID + ext
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// MaxAge returns the reuse window.
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// Load returns the stored notes. ok is false when there is nothing usable:
// no file, a path that is not a regular file, or a snapshot older than the
// max age. The last two are removed. A snapshot that cannot be decoded is
// an error.
func (s *Store) Load() (notes []misskey.Note, ok bool, err error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat cache: %w", err)
	}

	if !info.Mode().IsRegular() {
		s.log.Warn().Str("path", s.path).Msg("cache path is not a regular file, deleting")
		if err := os.RemoveAll(s.path); err != nil {
			return nil, false, fmt.Errorf("remove cache: %w", err)
		}
		return nil, false, nil
	}

	if age := s.now().Sub(info.ModTime()); age > s.maxAge {
		s.log.Info().Str("path", s.path).Dur("age", age).Msg("cache is older than max age, deleting")
		if err := os.Remove(s.path); err != nil {
			return nil, false, fmt.Errorf("remove cache: %w", err)
		}
		return nil, false, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, false, fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(&notes); err != nil {
		return nil, false, fmt.Errorf("decode cache %s: %w", s.path, err)
	}
	if notes == nil {
		notes = []misskey.Note{}
	}
	return notes, true, nil
}

// Save replaces the snapshot with notes as an indented JSON array.
func (s *Store) Save(notes []misskey.Note) error {
	if notes == nil {
		notes = []misskey.Note{}
	}
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	tmp := s.tmpPath()
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync cache: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// Remove deletes the snapshot and any temporary file an interrupted Save
// left behind.
func (s *Store) Remove() error {
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove cache: %w", err)
	}
	if err := os.RemoveAll(s.tmpPath()); err != nil {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

func (s *Store) tmpPath() string {
	return s.path + ".tmp"
}

// Age reports how old the snapshot is. ok is false when there is none.
func (s *Store) Age() (age time.Duration, ok bool, err error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stat cache: %w", err)
	}
	return s.now().Sub(info.ModTime()), true, nil
}
