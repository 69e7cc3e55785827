// Package pipeline orchestrates the localization stages for a series: split,
// glossary, translate, QA. Stage state is persisted so interrupted runs
// resume where they stopped.
package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/HanbitLabs/novlate"
)

//go:embed sample_config.toml
var sampleConfig string

// Series identifies the work being localized and its language pair(s).
type Series struct {
	Name            string   `toml:"name"`
	SourceLanguage  string   `toml:"source_language"`
	TargetLanguages []string `toml:"target_languages"`
}

// Paths contains workspace directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
}

// BackendConfig contains AI backend connection settings.
type BackendConfig struct {
	APIKey              string  `toml:"api_key"`
	Model               string  `toml:"model"`
	BaseURL             string  `toml:"base_url"`
	Temperature         float64 `toml:"temperature"`
	RateIntervalSeconds float64 `toml:"rate_interval_seconds"`
	MaxRetries          int     `toml:"max_retries"`
}

// CacheConfig contains translation cache settings. With no Redis URL the
// pipeline uses an in-memory cache persisted to a snapshot file between runs.
type CacheConfig struct {
	Enabled      bool   `toml:"enabled"`
	RedisURL     string `toml:"redis_url"`
	TTLSeconds   int    `toml:"ttl_seconds"`
	SnapshotFile string `toml:"snapshot_file"`
}

// QAConfig contains validation settings.
type QAConfig struct {
	MaxFixRetries int `toml:"max_fix_retries"`
}

// SplitConfig contains episode splitting settings.
type SplitConfig struct {
	SampleLines int `toml:"sample_lines"`
}

// Config encapsulates all configuration for a localization pipeline.
type Config struct {
	Series  Series        `toml:"series"`
	Paths   Paths         `toml:"paths"`
	Backend BackendConfig `toml:"backend"`
	Cache   CacheConfig   `toml:"cache"`
	QA      QAConfig      `toml:"qa"`
	Split   SplitConfig   `toml:"split"`
}

// Default returns a configuration with all defaults applied. Series fields
// have no defaults and must come from the config file.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: "~/novlate",
		},
		Backend: BackendConfig{
			Model:               "gpt-4o-mini",
			Temperature:         0.3,
			RateIntervalSeconds: 1,
			MaxRetries:          3,
		},
		Cache: CacheConfig{
			Enabled:      true,
			SnapshotFile: "cache.json",
		},
		QA: QAConfig{
			MaxFixRetries: 5,
		},
		Split: SplitConfig{
			SampleLines: 500,
		},
	}
}

// Load parses and validates a configuration file. Path fields in the returned
// config are expanded and absolute.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	expanded, err := expandPath(c.Paths.WorkspaceDir)
	if err != nil {
		return err
	}
	c.Paths.WorkspaceDir = expanded

	if c.Backend.APIKey == "" {
		c.Backend.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	c.Series.SourceLanguage = novlate.NormalizeLanguage(c.Series.SourceLanguage)
	for i, lang := range c.Series.TargetLanguages {
		c.Series.TargetLanguages[i] = novlate.NormalizeLanguage(lang)
	}
	return nil
}

// Validate checks the configuration for required fields and coherent values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Series.Name) == "" {
		return errors.New("config: series.name is required")
	}
	if c.Series.SourceLanguage == "" {
		return errors.New("config: series.source_language is required")
	}
	if len(c.Series.TargetLanguages) == 0 {
		return errors.New("config: series.target_languages must name at least one language")
	}
	for _, lang := range c.Series.TargetLanguages {
		if novlate.SameLanguage(lang, c.Series.SourceLanguage) {
			return fmt.Errorf("config: target language %q equals the source language", lang)
		}
	}
	if strings.TrimSpace(c.Backend.Model) == "" {
		return errors.New("config: backend.model is required")
	}
	if c.Backend.MaxRetries < 0 {
		return errors.New("config: backend.max_retries must not be negative")
	}
	if c.QA.MaxFixRetries < 0 {
		return errors.New("config: qa.max_fix_retries must not be negative")
	}
	return nil
}

// EnsureDirectories creates the workspace layout.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.EpisodesDir(),
		c.GlossariesDir(),
		c.ReportsDir(),
	}
	for _, lang := range c.Series.TargetLanguages {
		dirs = append(dirs, c.TranslationsDir(lang))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EpisodesDir returns the directory holding split source episodes.
func (c *Config) EpisodesDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, "episodes")
}

// GlossariesDir returns the directory holding per-language glossaries.
func (c *Config) GlossariesDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, "glossaries")
}

// TranslationsDir returns the directory holding translated episodes for a
// target language.
func (c *Config) TranslationsDir(lang string) string {
	return filepath.Join(c.Paths.WorkspaceDir, "translations", novlate.NormalizeLanguage(lang))
}

// ReportsDir returns the directory holding stage and QA reports.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, "reports")
}

// DBPath returns the pipeline state database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.Paths.WorkspaceDir, "novlate.db")
}

// SnapshotPath returns the cache snapshot file location.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Paths.WorkspaceDir, c.Cache.SnapshotFile)
}

// GlossaryPath returns the glossary JSON location for a target language.
func (c *Config) GlossaryPath(lang string) string {
	return filepath.Join(c.GlossariesDir(), novlate.NormalizeLanguage(lang)+".json")
}

// GlossaryCSVPath returns the review CSV location for a target language.
func (c *Config) GlossaryCSVPath(lang string) string {
	return filepath.Join(c.GlossariesDir(), novlate.NormalizeLanguage(lang)+".csv")
}

// CorrectionsPath returns the consistency correction log location for a
// target language.
func (c *Config) CorrectionsPath(lang string) string {
	return filepath.Join(c.GlossariesDir(), novlate.NormalizeLanguage(lang)+"_corrections.json")
}

// CreateSample writes a sample configuration file.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
