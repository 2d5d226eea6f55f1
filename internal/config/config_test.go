package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadChecklistDefault(t *testing.T) {
	checklist, err := LoadChecklist("")
	require.NoError(t, err)
	assert.NotEmpty(t, checklist.Categories)
}

func TestLoadChecklistFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: exterior
    items:
      - id: tires
        question: Tires inflated
        required: true
      - id: paint
        question: Paint intact
  - name: cabin
    items:
      - id: seatbelt
        question: Seatbelt works
        required: true
`), 0o644))

	checklist, err := LoadChecklist(path)
	require.NoError(t, err)

	require.Len(t, checklist.Categories, 2)
	assert.Equal(t, "exterior", checklist.Categories[0].Name)
	assert.Equal(t, []string{"tires", "seatbelt"}, checklist.RequiredItemIDs())

	item, category, ok := checklist.Item("paint")
	require.True(t, ok)
	assert.Equal(t, "exterior", category)
	assert.False(t, item.Required)
}

func TestLoadChecklistRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: a
    items:
      - id: tires
  - name: b
    items:
      - id: tires
`), 0o644))

	_, err := LoadChecklist(path)
	assert.Error(t, err)
}

func TestLoadChecklistMissingFile(t *testing.T) {
	_, err := LoadChecklist(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FD_INT", "42")
	t.Setenv("FD_BAD_INT", "x")
	t.Setenv("FD_BOOL", "true")
	t.Setenv("FD_DURATION", "3s")
	t.Setenv("FD_SLICE", "a, b,,c")

	assert.Equal(t, 42, getEnvAsInt("FD_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("FD_BAD_INT", 1))
	assert.True(t, getEnvAsBool("FD_BOOL", false))
	assert.Equal(t, 3*time.Second, getEnvAsDuration("FD_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, getEnvAsSlice("FD_SLICE", nil))
	assert.Equal(t, "fallback", getEnv("FD_UNSET", "fallback"))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_PROVIDER", "")
	t.Setenv("SAFETY_CHECKLIST_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Provider)
	assert.NotNil(t, cfg.Safety.Checklist)
	assert.Contains(t, cfg.Messaging.Templates, "route_assigned")
}
