package openai

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/mastro/pkg/conversation"
	"github.com/go-go-golems/mastro/pkg/engine"
	"github.com/go-go-golems/mastro/pkg/settings"
)

// OpenAIEngine implements the Engine interface for OpenAI-compatible chat
// completion APIs.
type OpenAIEngine struct {
	settings *settings.StepSettings
}

var _ engine.Engine = (*OpenAIEngine)(nil)

func NewOpenAIEngine(stepSettings *settings.StepSettings) (*OpenAIEngine, error) {
	if stepSettings == nil {
		return nil, errors.New("no settings")
	}
	return &OpenAIEngine{
		settings: stepSettings,
	}, nil
}

func (e *OpenAIEngine) RunInference(
	ctx context.Context,
	messages conversation.Conversation,
) (*conversation.Message, error) {
	log.Debug().Int("num_messages", len(messages)).Msg("OpenAI RunInference started")

	client, err := MakeClient(e.settings.API, e.settings.Client)
	if err != nil {
		return nil, err
	}

	req, err := MakeCompletionRequest(e.settings, messages)
	if err != nil {
		return nil, err
	}

	resp, err := client.CreateChatCompletion(ctx, *req)
	if err != nil {
		return nil, errors.Wrap(err, "chat completion request failed")
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	log.Debug().
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("OpenAI RunInference finished")

	return conversation.NewChatMessage(
		conversation.RoleAssistant,
		resp.Choices[0].Message.Content,
		conversation.WithMetadata(map[string]interface{}{
			"model":             resp.Model,
			"finish_reason":     string(resp.Choices[0].FinishReason),
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
		}),
	), nil
}
