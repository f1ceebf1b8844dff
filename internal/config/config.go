package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete patrology configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	FullText  FullTextConfig  `yaml:"fulltext" json:"fulltext"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Fuzzy     FuzzyConfig     `yaml:"fuzzy" json:"fuzzy"`
	Ingest    IngestConfig    `yaml:"ingest" json:"ingest"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// PathsConfig locates the corpus on disk.
type PathsConfig struct {
	// DataDir holds the corpus database, the bleve index and the writer lock.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Database is the SQLite file name inside DataDir.
	Database string `yaml:"database" json:"database"`
}

// StoreConfig tunes the SQLite corpus store.
type StoreConfig struct {
	MaxOpenConns  int `yaml:"max_open_conns" json:"max_open_conns"`
	BusyTimeoutMS int `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`
	CacheSizeMB   int `yaml:"cache_size_mb" json:"cache_size_mb"`
}

// FullTextConfig selects the full-text posting backend.
type FullTextConfig struct {
	// Backend is "sqlite" (FTS5, default) or "bleve".
	Backend string `yaml:"backend" json:"backend"`
}

// SearchConfig configures the query strategies.
// Values are configurable via:
//  1. User config (~/.config/patrology/config.yaml) - personal defaults
//  2. Project config (.patrology.yaml) - per-corpus tuning
//  3. Env vars (PATROLOGY_*) - highest priority
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit"`

	// ProximityDistance is the default maximum number of words between terms.
	ProximityDistance int `yaml:"proximity_distance" json:"proximity_distance"`

	// ProximityOverfetch multiplies limit to size the full-text candidate set.
	ProximityOverfetch int `yaml:"proximity_overfetch" json:"proximity_overfetch"`

	// FuzzyThreshold is the minimum similarity ratio (0-1) for fuzzy hits.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`

	// FuzzyCandidateFactor multiplies limit to cap scanned phrase candidates.
	FuzzyCandidateFactor int `yaml:"fuzzy_candidate_factor" json:"fuzzy_candidate_factor"`

	// ContextWords is the number of words kept on each side of a match.
	ContextWords int `yaml:"context_words" json:"context_words"`

	// TokenCacheSize is the number of tokenized chapters kept in memory.
	TokenCacheSize int `yaml:"token_cache_size" json:"token_cache_size"`

	// DefaultStrategies are run by combined search when none are requested.
	DefaultStrategies []string `yaml:"default_strategies" json:"default_strategies"`
}

// FuzzyConfig controls the trigram prefilter in front of fuzzy search.
type FuzzyConfig struct {
	TrigramPrefilter  bool    `yaml:"trigram_prefilter" json:"trigram_prefilter"`
	PrefilterChapters int     `yaml:"prefilter_chapters" json:"prefilter_chapters"`
	MinTrigramOverlap float64 `yaml:"min_trigram_overlap" json:"min_trigram_overlap"`
}

// IngestConfig configures the index builder.
type IngestConfig struct {
	Workers       int    `yaml:"workers" json:"workers"`
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// TelemetryConfig configures local query telemetry.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	FlushInterval string `yaml:"flush_interval" json:"flush_interval"`
}

// ServerConfig configures the presentation servers.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	HTTPAddr  string `yaml:"http_addr" json:"http_addr"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}

	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir:  defaultDataDir(),
			Database: "patrology.db",
		},
		Store: StoreConfig{
			MaxOpenConns:  4,
			BusyTimeoutMS: 5000,
			CacheSizeMB:   64,
		},
		FullText: FullTextConfig{
			Backend: "sqlite",
		},
		Search: SearchConfig{
			DefaultLimit:         20,
			MaxLimit:             500,
			ProximityDistance:    5,
			ProximityOverfetch:   3,
			FuzzyThreshold:       0.8,
			FuzzyCandidateFactor: 100,
			ContextWords:         20,
			TokenCacheSize:       256,
			DefaultStrategies:    []string{"exact", "proximity", "fuzzy"},
		},
		Fuzzy: FuzzyConfig{
			TrigramPrefilter:  true,
			PrefilterChapters: 200,
			MinTrigramOverlap: 0.5,
		},
		Ingest: IngestConfig{
			Workers:       workers,
			WatchDebounce: "500ms",
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			FlushInterval: "60s",
		},
		Server: ServerConfig{
			Transport: "stdio",
			HTTPAddr:  "127.0.0.1:8080",
			LogLevel:  "info",
		},
	}
}

// defaultDataDir returns ~/.patrology/data, falling back to the temp dir.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".patrology", "data")
	}
	return filepath.Join(home, ".patrology", "data")
}

// DatabasePath returns the absolute path of the corpus database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, c.Paths.Database)
}

// BleveDir returns the directory used by the bleve full-text backend.
func (c *Config) BleveDir() string {
	return filepath.Join(c.Paths.DataDir, "fulltext.bleve")
}

// WatchDebounceDuration parses Ingest.WatchDebounce.
func (c *Config) WatchDebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Ingest.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// FlushIntervalDuration parses Telemetry.FlushInterval. Zero disables auto-flush.
func (c *Config) FlushIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.Telemetry.FlushInterval)
	if err != nil || d < 0 {
		return time.Minute
	}
	return d
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/patrology/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/patrology/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "patrology", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "patrology", "config.yaml")
	}
	return filepath.Join(home, ".config", "patrology", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/patrology/config.yaml)
//  3. Project config (.patrology.yaml in dir)
//  4. Environment variables (PATROLOGY_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .patrology.yaml or .patrology.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".patrology.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".patrology.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML decodes a YAML file on top of the current values.
// Keys absent from the file keep their current value, so explicit
// false and zero settings survive the merge. Unknown keys are rejected.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies PATROLOGY_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PATROLOGY_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("PATROLOGY_FULLTEXT_BACKEND"); v != "" {
		c.FullText.Backend = v
	}
	if v := os.Getenv("PATROLOGY_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.DefaultLimit = n
		}
	}
	if v := os.Getenv("PATROLOGY_FUZZY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= 0 && f <= 1 {
			c.Search.FuzzyThreshold = f
		}
	}
	if v := os.Getenv("PATROLOGY_PROXIMITY_DISTANCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.ProximityDistance = n
		}
	}
	if v := os.Getenv("PATROLOGY_TRIGRAM_PREFILTER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Fuzzy.TrigramPrefilter = b
		}
	}
	if v := os.Getenv("PATROLOGY_INGEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ingest.Workers = n
		}
	}
	if v := os.Getenv("PATROLOGY_TELEMETRY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = b
		}
	}
	if v := os.Getenv("PATROLOGY_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("PATROLOGY_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddr = v
	}
	if v := os.Getenv("PATROLOGY_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Paths.Database == "" {
		return fmt.Errorf("paths.database must not be empty")
	}

	validBackends := map[string]bool{"sqlite": true, "bleve": true}
	if !validBackends[strings.ToLower(c.FullText.Backend)] {
		return fmt.Errorf("fulltext.backend must be 'sqlite' or 'bleve', got %s", c.FullText.Backend)
	}

	if c.Store.MaxOpenConns < 1 {
		return fmt.Errorf("store.max_open_conns must be at least 1, got %d", c.Store.MaxOpenConns)
	}
	if c.Store.BusyTimeoutMS < 0 {
		return fmt.Errorf("store.busy_timeout_ms must be non-negative, got %d", c.Store.BusyTimeoutMS)
	}

	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) must be >= search.default_limit (%d)", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.ProximityDistance < 0 {
		return fmt.Errorf("search.proximity_distance must be non-negative, got %d", c.Search.ProximityDistance)
	}
	if c.Search.ProximityOverfetch < 1 || c.Search.FuzzyCandidateFactor < 1 {
		return fmt.Errorf("search.proximity_overfetch and search.fuzzy_candidate_factor must be positive")
	}
	if c.Search.FuzzyThreshold < 0 || c.Search.FuzzyThreshold > 1 {
		return fmt.Errorf("search.fuzzy_threshold must be between 0 and 1, got %f", c.Search.FuzzyThreshold)
	}
	if c.Search.ContextWords < 0 {
		return fmt.Errorf("search.context_words must be non-negative, got %d", c.Search.ContextWords)
	}
	validStrategies := map[string]bool{"exact": true, "proximity": true, "fuzzy": true, "boolean": true}
	for _, s := range c.Search.DefaultStrategies {
		if !validStrategies[strings.ToLower(s)] {
			return fmt.Errorf("search.default_strategies: unknown strategy %q", s)
		}
	}

	if c.Fuzzy.MinTrigramOverlap < 0 || c.Fuzzy.MinTrigramOverlap > 1 {
		return fmt.Errorf("fuzzy.min_trigram_overlap must be between 0 and 1, got %f", c.Fuzzy.MinTrigramOverlap)
	}
	if c.Fuzzy.PrefilterChapters < 1 {
		return fmt.Errorf("fuzzy.prefilter_chapters must be positive, got %d", c.Fuzzy.PrefilterChapters)
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest.workers must be positive, got %d", c.Ingest.Workers)
	}

	validTransports := map[string]bool{"stdio": true, "http": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'http', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
