package factory

import (
	"github.com/go-go-golems/mastro/pkg/engine"
	"github.com/go-go-golems/mastro/pkg/engine/openai"
	"github.com/go-go-golems/mastro/pkg/settings"
)

// NewEngineFromSettings builds the engine matching the configured provider.
// Only OpenAI-compatible endpoints are supported right now, which covers the
// usual proxies and local deployments that speak the same wire format.
func NewEngineFromSettings(stepSettings *settings.StepSettings) (engine.Engine, error) {
	return openai.NewOpenAIEngine(stepSettings)
}
