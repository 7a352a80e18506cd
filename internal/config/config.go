package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/markovbot/internal/cache"
	"github.com/ppiankov/markovbot/internal/misskey"
)

const (
	DefaultConfigFile  = "config.yml"
	DefaultVisibility  = misskey.VisibilityPublic
	DefaultMultiplier  = 1
	DefaultOrder       = 1
	DefaultCachePath   = "posts.json"
	DefaultCacheMaxAge = cache.DefaultMaxAge
	DefaultHTTPTimeout = 30 * time.Second
	DefaultStoragePath = ".markovbot/history.db"
	DefaultRetainDays  = 90
	DefaultLogLevel    = "info"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

type Config struct {
	Instance        string        `yaml:"instance" validate:"required"`
	PostingToken    string        `yaml:"posting_token"`
	PostingTokenEnv string        `yaml:"posting_token_env"`
	Accounts        []Account     `yaml:"accounts"`
	Visibility      string        `yaml:"visibility" validate:"required|in:public,home,followers,specified"`
	CW              CWConfig      `yaml:"cw"`
	DisablePost     bool          `yaml:"disable_post"`
	Multiplier      int           `yaml:"multiplier" validate:"required|min:1"`
	Markov          MarkovConfig  `yaml:"markov"`
	Cache           CacheConfig   `yaml:"cache"`
	HTTP            HTTPConfig    `yaml:"http"`
	Storage         StorageConfig `yaml:"storage"`
	Privacy         PrivacyConfig `yaml:"privacy"`
	Log             LogConfig     `yaml:"log"`
}

// Account is one source account whose notes feed the chain.
type Account struct {
	ID       string `yaml:"id" validate:"required"`
	Token    string `yaml:"token"`
	TokenEnv string `yaml:"token_env"`
}

// CWConfig controls the content warning put on published notes.
type CWConfig struct {
	Enable bool   `yaml:"enable"`
	CW     string `yaml:"cw"`
}

type MarkovConfig struct {
	Order int `yaml:"order" validate:"required|min:1"`
}

type CacheConfig struct {
	Path   string   `yaml:"path" validate:"required"`
	MaxAge Duration `yaml:"max_age"`
}

type HTTPConfig struct {
	Timeout Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Path       string `yaml:"path" validate:"required"`
	RetainDays int    `yaml:"retain_days"`
}

type PrivacyConfig struct {
	Redact RedactConfig `yaml:"redact"`
}

type RedactConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Patterns []string `yaml:"patterns"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads config.yml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse is Load without the file system.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// CWText returns the content warning to attach, or nil when disabled.
func (c *Config) CWText() *string {
	if !c.CW.Enable {
		return nil
	}
	cw := c.CW.CW
	return &cw
}

func applyDefaults(cfg *Config) {
	cfg.Instance = strings.TrimSpace(cfg.Instance)
	if cfg.Visibility == "" {
		cfg.Visibility = DefaultVisibility
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.Markov.Order == 0 {
		cfg.Markov.Order = DefaultOrder
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath
	}
	if cfg.Cache.MaxAge.Duration == 0 {
		cfg.Cache.MaxAge.Duration = DefaultCacheMaxAge
	}
	if cfg.HTTP.Timeout.Duration == 0 {
		cfg.HTTP.Timeout.Duration = DefaultHTTPTimeout
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.RetainDays == 0 {
		cfg.Storage.RetainDays = DefaultRetainDays
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func resolveEnv(cfg *Config) {
	if cfg.PostingTokenEnv != "" {
		cfg.PostingToken = os.Getenv(cfg.PostingTokenEnv)
	}
	for i := range cfg.Accounts {
		if cfg.Accounts[i].TokenEnv != "" {
			cfg.Accounts[i].Token = os.Getenv(cfg.Accounts[i].TokenEnv)
		}
	}
}

// Validate checks struct rules and the cross-field constraints.
func (c *Config) Validate() error {
	if err := check(c, ""); err != nil {
		return err
	}
	if err := check(&c.Markov, "markov."); err != nil {
		return err
	}
	if err := check(&c.Cache, "cache."); err != nil {
		return err
	}
	if err := check(&c.Storage, "storage."); err != nil {
		return err
	}

	if len(c.Accounts) == 0 {
		return errors.New("accounts: at least one account must be configured")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for i := range c.Accounts {
		acct := &c.Accounts[i]
		if err := check(acct, fmt.Sprintf("accounts[%d].", i)); err != nil {
			return err
		}
		if strings.TrimSpace(acct.Token) == "" {
			return fmt.Errorf("accounts[%d]: token is required for %s", i, acct.ID)
		}
		if seen[acct.ID] {
			return fmt.Errorf("accounts[%d]: duplicate account id %s", i, acct.ID)
		}
		seen[acct.ID] = true
	}

	if !c.DisablePost && strings.TrimSpace(c.PostingToken) == "" {
		return errors.New("posting_token: required unless disable_post is set")
	}
	if c.CW.Enable && strings.TrimSpace(c.CW.CW) == "" {
		return errors.New("cw.cw: text is required when cw.enable is set")
	}
	if c.Cache.MaxAge.Duration < 0 {
		return errors.New("cache.max_age: must not be negative")
	}
	if c.HTTP.Timeout.Duration < 0 {
		return errors.New("http.timeout: must not be negative")
	}
	if c.Storage.RetainDays < 0 {
		return errors.New("storage.retain_days: must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func check(v any, prefix string) error {
	val := validate.Struct(v)
	if val.Validate() {
		return nil
	}
	return fmt.Errorf("%s%s", prefix, val.Errors.One())
}
