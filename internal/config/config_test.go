package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Len(t, cfg.NPCs, 4)
	assert.Equal(t, "gpt-oss-120b", cfg.LLM.Model)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
storage:
  path: /tmp/village.db
log:
  level: debug
memory:
  top_k: 6
llm:
  model: llama-3.3-70b
  timeout: 10s
npcs:
  - id: mira
    name: Mira
    role: Hall Host
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	env := map[string]string{"VILLAGE_MEMORY_DB": ":memory:", "VILLAGE_LLM_MODEL": "qwen"}
	cfg, err := Load(path, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Memory.TopK)
	assert.Equal(t, 3, cfg.Memory.LinkedLimit, "unset fields keep defaults")
	assert.Equal(t, "qwen", cfg.LLM.Model)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	require.Len(t, cfg.NPCs, 1)
	assert.Equal(t, "Mira", cfg.NPCs[0].Name)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("storage:\n  dsn: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

func TestLoadEmptyReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Memory.MinSalience = 1.5
	cfg.Memory.TopK = 0
	cfg.LLM.Temperature = 5
	cfg.NPCs = append(cfg.NPCs, cfg.NPCs[0])

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	for _, want := range []string{"log.level", "min_salience", "top_k", "temperature", "duplicate"} {
		assert.Contains(t, err.Error(), want)
	}
}
