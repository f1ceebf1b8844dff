package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeUserConfig(t *testing.T, xdg, content string) {
	t.Helper()
	dir := filepath.Join(xdg, "patrology")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "patrology.db", cfg.Paths.Database)
	assert.Contains(t, cfg.Paths.DataDir, ".patrology")
	assert.Equal(t, "sqlite", cfg.FullText.Backend)

	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 5, cfg.Search.ProximityDistance)
	assert.Equal(t, 3, cfg.Search.ProximityOverfetch)
	assert.Equal(t, 0.8, cfg.Search.FuzzyThreshold)
	assert.Equal(t, 100, cfg.Search.FuzzyCandidateFactor)
	assert.Equal(t, 20, cfg.Search.ContextWords)
	assert.Equal(t, []string{"exact", "proximity", "fuzzy"}, cfg.Search.DefaultStrategies)

	assert.True(t, cfg.Fuzzy.TrigramPrefilter)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_DerivedPaths(t *testing.T) {
	cfg := NewConfig()
	cfg.Paths.DataDir = "/var/lib/patrology"

	assert.Equal(t, "/var/lib/patrology/patrology.db", cfg.DatabasePath())
	assert.Equal(t, "/var/lib/patrology/fulltext.bleve", cfg.BleveDir())
}

func TestConfig_Durations(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounceDuration())
	assert.Equal(t, time.Minute, cfg.FlushIntervalDuration())

	cfg.Ingest.WatchDebounce = "garbage"
	cfg.Telemetry.FlushInterval = "0s"
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounceDuration())
	assert.Equal(t, time.Duration(0), cfg.FlushIntervalDuration())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory with no .patrology.yaml
	isolate(t)
	tmpDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: defaults are returned without error
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a directory with .patrology.yaml
	isolate(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
fulltext:
  backend: bleve
search:
  default_limit: 50
  fuzzy_threshold: 0.7
fuzzy:
  trigram_prefilter: false
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yaml"), []byte(configContent), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: overrides are applied and untouched keys keep defaults
	require.NoError(t, err)
	assert.Equal(t, "bleve", cfg.FullText.Backend)
	assert.Equal(t, 50, cfg.Search.DefaultLimit)
	assert.Equal(t, 0.7, cfg.Search.FuzzyThreshold)
	assert.False(t, cfg.Fuzzy.TrigramPrefilter, "explicit false must survive the merge")
	assert.Equal(t, 5, cfg.Search.ProximityDistance)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	// Given: both .yaml and .yml exist
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yaml"), []byte("fulltext:\n  backend: bleve\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yml"), []byte("fulltext:\n  backend: sqlite\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: .yaml takes precedence
	require.NoError(t, err)
	assert.Equal(t, "bleve", cfg.FullText.Backend)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yml"), []byte("ingest:\n  workers: 2\n"), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Ingest.Workers)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	// Given: invalid YAML syntax
	isolate(t)
	tmpDir := t.TempDir()
	invalidContent := "search:\n  default_limit: [invalid yaml syntax\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yaml"), []byte(invalidContent), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: error is returned with clear message
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_UnknownKey_ReturnsError(t *testing.T) {
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yaml"), []byte("search:\n  bm25_weight: 0.5\n"), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptyFile_KeepsDefaults(t *testing.T) {
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yaml"), nil, 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown backend", "fulltext:\n  backend: lucene\n", "fulltext.backend"},
		{"threshold out of range", "search:\n  fuzzy_threshold: 1.5\n", "fuzzy_threshold"},
		{"zero workers", "ingest:\n  workers: 0\n", "ingest.workers"},
		{"bad strategy", "search:\n  default_strategies: [exact, semantic]\n", "semantic"},
		{"bad transport", "server:\n  transport: sse\n", "server.transport"},
		{"max below default", "search:\n  default_limit: 50\n  max_limit: 10\n", "max_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			tmpDir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".patrology.yaml"), []byte(tt.content), 0o644))

			_, err := Load(tmpDir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	// Given: environment overrides
	isolate(t)
	t.Setenv("PATROLOGY_DATA_DIR", "/tmp/corpus")
	t.Setenv("PATROLOGY_FULLTEXT_BACKEND", "bleve")
	t.Setenv("PATROLOGY_FUZZY_THRESHOLD", "0.65")
	t.Setenv("PATROLOGY_TRIGRAM_PREFILTER", "false")
	t.Setenv("PATROLOGY_LOG_LEVEL", "debug")

	// When: loading configuration
	cfg, err := Load(t.TempDir())

	// Then: env wins
	require.NoError(t, err)
	assert.Equal(t, "/tmp/corpus", cfg.Paths.DataDir)
	assert.Equal(t, "bleve", cfg.FullText.Backend)
	assert.Equal(t, 0.65, cfg.Search.FuzzyThreshold)
	assert.False(t, cfg.Fuzzy.TrigramPrefilter)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
}

func TestLoad_EnvVarInvalidValue_Ignored(t *testing.T) {
	isolate(t)
	t.Setenv("PATROLOGY_FUZZY_THRESHOLD", "2.0")
	t.Setenv("PATROLOGY_DEFAULT_LIMIT", "-3")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Search.FuzzyThreshold)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	customConfig := isolate(t)

	assert.Equal(t, filepath.Join(customConfig, "patrology", "config.yaml"), GetUserConfigPath())
	assert.Equal(t, filepath.Join(customConfig, "patrology"), GetUserConfigDir())
}

func TestUserConfigExists(t *testing.T) {
	xdg := isolate(t)
	assert.False(t, UserConfigExists())

	writeUserConfig(t, xdg, "version: 1\n")
	assert.True(t, UserConfigExists())
}

func TestLoad_PrecedenceUserProjectEnv(t *testing.T) {
	// Given: the same key set at every layer
	xdg := isolate(t)
	projectDir := t.TempDir()
	writeUserConfig(t, xdg, "search:\n  default_limit: 30\n  context_words: 12\n")
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".patrology.yaml"), []byte("search:\n  default_limit: 40\n"), 0o644))
	t.Setenv("PATROLOGY_DEFAULT_LIMIT", "45")

	// When: loading
	cfg, err := Load(projectDir)

	// Then: env > project > user > defaults
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Search.DefaultLimit)
	assert.Equal(t, 12, cfg.Search.ContextWords)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	xdg := isolate(t)
	writeUserConfig(t, xdg, "search: [broken\n")

	_, err := Load(t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user config")
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	// Given: a customised config written to disk
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.FullText.Backend = "bleve"
	cfg.Fuzzy.TrigramPrefilter = false
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".patrology.yaml")))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: the values survive
	require.NoError(t, err)
	assert.Equal(t, "bleve", loaded.FullText.Backend)
	assert.False(t, loaded.Fuzzy.TrigramPrefilter)
}
