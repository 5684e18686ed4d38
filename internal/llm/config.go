package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// OverridesKey is the settings key for stored config overrides.
const OverridesKey = "llm-config-overrides"

// Providers.
const (
	ProviderCerebras         = "cerebras"
	ProviderOpenAICompatible = "openai-compatible"
)

// Config is a resolved adapter configuration.
type Config struct {
	Provider            string        `yaml:"provider" json:"provider"`
	BaseURL             string        `yaml:"base_url" json:"baseUrl"`
	Model               string        `yaml:"model" json:"model"`
	APIKeyEnv           string        `yaml:"api_key_env" json:"apiKeyEnv"`
	Temperature         float64       `yaml:"temperature" json:"temperature"`
	MaxCompletionTokens int           `yaml:"max_completion_tokens" json:"maxCompletionTokens"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig targets Cerebras.
func DefaultConfig() Config {
	return Config{
		Provider:            ProviderCerebras,
		BaseURL:             "https://api.cerebras.ai/v1",
		Model:               "gpt-oss-120b",
		APIKeyEnv:           "CEREBRAS_API_KEY",
		Temperature:         0.7,
		MaxCompletionTokens: 240,
		Timeout:             30 * time.Second,
	}
}

// Validate returns every problem with c joined together.
func (c Config) Validate() error {
	var errs []error
	if c.Provider != ProviderCerebras && c.Provider != ProviderOpenAICompatible {
		errs = append(errs, fmt.Errorf("provider %q is not one of %s, %s", c.Provider, ProviderCerebras, ProviderOpenAICompatible))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.APIKeyEnv == "" {
		errs = append(errs, errors.New("api_key_env is required"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %.2f is outside [0, 2]", c.Temperature))
	}
	if c.MaxCompletionTokens < 1 || c.MaxCompletionTokens > 8192 {
		errs = append(errs, fmt.Errorf("max_completion_tokens %d is outside [1, 8192]", c.MaxCompletionTokens))
	}
	return errors.Join(errs...)
}

// Overrides are partial config changes stored in settings or read from the
// environment. Nil fields leave the base value alone.
type Overrides struct {
	Provider            *string  `json:"provider,omitempty"`
	BaseURL             *string  `json:"baseUrl,omitempty"`
	Model               *string  `json:"model,omitempty"`
	APIKeyEnv           *string  `json:"apiKeyEnv,omitempty"`
	APIKeyOverride      *string  `json:"apiKeyOverride,omitempty"`
	Temperature         *float64 `json:"temperature,omitempty"`
	MaxCompletionTokens *int     `json:"maxCompletionTokens,omitempty"`
}

// Apply returns c with o layered on top.
func (o Overrides) Apply(c Config) Config {
	if o.Provider != nil {
		c.Provider = *o.Provider
	}
	if o.BaseURL != nil {
		c.BaseURL = *o.BaseURL
	}
	if o.Model != nil {
		c.Model = *o.Model
	}
	if o.APIKeyEnv != nil {
		c.APIKeyEnv = *o.APIKeyEnv
	}
	if o.Temperature != nil {
		c.Temperature = *o.Temperature
	}
	if o.MaxCompletionTokens != nil {
		c.MaxCompletionTokens = *o.MaxCompletionTokens
	}
	return c
}

// EnvOverrides reads VILLAGE_LLM_* variables. Unparseable numbers are
// ignored.
func EnvOverrides(getenv func(string) string) Overrides {
	var o Overrides
	str := func(name string) *string {
		if v := getenv(name); v != "" {
			return &v
		}
		return nil
	}
	o.Provider = str("VILLAGE_LLM_PROVIDER")
	o.BaseURL = str("VILLAGE_LLM_BASE_URL")
	o.Model = str("VILLAGE_LLM_MODEL")
	o.APIKeyEnv = str("VILLAGE_LLM_API_KEY_ENV")
	if v, err := strconv.ParseFloat(getenv("VILLAGE_LLM_TEMPERATURE"), 64); err == nil {
		o.Temperature = &v
	}
	if v, err := strconv.Atoi(getenv("VILLAGE_LLM_MAX_TOKENS")); err == nil {
		o.MaxCompletionTokens = &v
	}
	return o
}

// Resolve layers env overrides then stored overrides over base, validates
// the result and finds the API key.
func Resolve(base Config, stored Overrides, getenv func(string) string) (Config, string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := stored.Apply(EnvOverrides(getenv).Apply(base))
	if err := cfg.Validate(); err != nil {
		return cfg, "", fmt.Errorf("invalid llm config: %w", err)
	}
	if stored.APIKeyOverride != nil && *stored.APIKeyOverride != "" {
		return cfg, *stored.APIKeyOverride, nil
	}
	if key := getenv(cfg.APIKeyEnv); key != "" {
		return cfg, key, nil
	}
	return cfg, "", fmt.Errorf("%w (env %s)", ErrMissingAPIKey, cfg.APIKeyEnv)
}

// Settings is the persistence capability for stored overrides.
type Settings interface {
	LoadSetting(ctx context.Context, key string, v any) (bool, error)
	SaveSetting(ctx context.Context, key string, v any) error
	DeleteSetting(ctx context.Context, key string) error
}

// OverrideStore keeps runtime config overrides in settings.
type OverrideStore struct {
	settings Settings
}

// NewOverrideStore creates an override store.
func NewOverrideStore(settings Settings) *OverrideStore {
	return &OverrideStore{settings: settings}
}

// Load returns stored overrides, or none.
func (s *OverrideStore) Load(ctx context.Context) (Overrides, error) {
	var o Overrides
	if _, err := s.settings.LoadSetting(ctx, OverridesKey, &o); err != nil {
		return Overrides{}, err
	}
	return o, nil
}

// Save validates o against the defaults and stores it.
func (s *OverrideStore) Save(ctx context.Context, o Overrides) error {
	if err := o.Apply(DefaultConfig()).Validate(); err != nil {
		return fmt.Errorf("invalid llm overrides: %w", err)
	}
	return s.settings.SaveSetting(ctx, OverridesKey, o)
}

// Clear removes stored overrides.
func (s *OverrideStore) Clear(ctx context.Context) error {
	return s.settings.DeleteSetting(ctx, OverridesKey)
}
