package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewStepSettingsDefaults(t *testing.T) {
	s := NewStepSettings()

	require.NotNil(t, s.Chat.Engine)
	require.Equal(t, DefaultEngine, *s.Chat.Engine)
	require.Equal(t, DefaultMaxQuestions, s.Planner.MaxQuestions)
	require.Equal(t, DefaultMaxInputLength, s.Planner.MaxInputLength)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewStepSettings()
	s.API.APIKeys["openai-api-key"] = "secret"

	c := s.Clone()
	c.API.APIKeys["openai-api-key"] = "other"
	engine := "gpt-4"
	c.Chat.Engine = &engine

	require.Equal(t, "secret", s.API.APIKeys["openai-api-key"])
	require.Equal(t, DefaultEngine, *s.Chat.Engine)
}

func TestLoadFromYAML(t *testing.T) {
	content := `
api:
  api_keys:
    openai-api-key: test-key
client:
  timeout: 30
chat:
  engine: gpt-4
  max_response_tokens: 512
planner:
  max_questions: 3
`
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := NewStepSettingsFromYAML(path)
	require.NoError(t, err)

	require.Equal(t, "test-key", s.API.APIKeys["openai-api-key"])
	require.NotNil(t, s.Client.Timeout)
	require.Equal(t, 30*time.Second, *s.Client.Timeout)
	require.Equal(t, "gpt-4", *s.Chat.Engine)
	require.Equal(t, 512, *s.Chat.MaxResponseTokens)
	require.Equal(t, 3, s.Planner.MaxQuestions)
	// unset sections keep their defaults
	require.Equal(t, DefaultMaxInputLength, s.Planner.MaxInputLength)
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	_, err := NewStepSettingsFromYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
