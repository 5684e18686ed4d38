// Package config loads the village-memory YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/village-memory/internal/llm"
	"github.com/rcliao/village-memory/internal/model"
	"github.com/rcliao/village-memory/internal/roster"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Memory  MemoryConfig  `yaml:"memory"`
	LLM     llm.Config    `yaml:"llm"`
	NPCs    []model.NPC   `yaml:"npcs"`
}

// StorageConfig locates the database. ":memory:" keeps everything in
// process memory.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MemoryConfig tunes extraction and retrieval.
type MemoryConfig struct {
	MaxFactsPerEntry int     `yaml:"max_facts_per_entry"`
	MinSalience      float64 `yaml:"min_salience"`
	TopK             int     `yaml:"top_k"`
	LinkedLimit      int     `yaml:"linked_limit"`
	InsightLimit     int     `yaml:"insight_limit"`
	RecentLimit      int     `yaml:"recent_limit"`
}

// Dir returns ~/.village-memory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".village-memory")
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{Path: filepath.Join(Dir(), "memory.db")},
		Log:     LogConfig{Level: "info", Format: "text"},
		Memory: MemoryConfig{
			MaxFactsPerEntry: 4,
			MinSalience:      0.4,
			TopK:             4,
			LinkedLimit:      3,
			InsightLimit:     3,
			RecentLimit:      4,
		},
		LLM:  llm.DefaultConfig(),
		NPCs: append([]model.NPC(nil), roster.Default...),
	}
}

// Load reads path over the defaults, applies env overrides and validates.
// A missing file is not an error.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	default:
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	cfg.applyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates it.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("VILLAGE_MEMORY_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := getenv("VILLAGE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	c.LLM = llm.EnvOverrides(getenv).Apply(c.LLM)
}

// Validate returns every problem found, joined and wrapped in ErrInvalid.
func (c Config) Validate() error {
	var errs []error

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: text, json, logfmt", c.Log.Format))
	}

	m := c.Memory
	if m.MinSalience < 0 || m.MinSalience > 1 {
		errs = append(errs, fmt.Errorf("memory.min_salience %.2f is out of range [0, 1]", m.MinSalience))
	}
	for name, v := range map[string]int{
		"max_facts_per_entry": m.MaxFactsPerEntry,
		"top_k":               m.TopK,
		"linked_limit":        m.LinkedLimit,
		"insight_limit":       m.InsightLimit,
		"recent_limit":        m.RecentLimit,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("memory.%s must be positive, got %d", name, v))
		}
	}

	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	}
	if c.LLM.Timeout < 0 || c.LLM.Timeout > 10*time.Minute {
		errs = append(errs, fmt.Errorf("llm.timeout %s is out of range [0, 10m]", c.LLM.Timeout))
	}

	if len(c.NPCs) == 0 {
		errs = append(errs, errors.New("npcs must list at least one villager"))
	}
	seen := make(map[string]int, len(c.NPCs))
	for i, npc := range c.NPCs {
		prefix := fmt.Sprintf("npcs[%d]", i)
		if npc.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		} else if prev, ok := seen[npc.ID]; ok {
			errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of npcs[%d]", prefix, npc.ID, prev))
		} else {
			seen[npc.ID] = i
		}
		if npc.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
