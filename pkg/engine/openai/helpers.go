package openai

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/mastro/pkg/conversation"
	"github.com/go-go-golems/mastro/pkg/settings"
)

const apiType = "openai"

func MakeClient(apiSettings *settings.APISettings, clientSettings *settings.ClientSettings) (*go_openai.Client, error) {
	if apiSettings == nil {
		return nil, errors.New("no api settings")
	}
	apiKey, ok := apiSettings.APIKeys[apiType+"-api-key"]
	if !ok || apiKey == "" {
		return nil, errors.Errorf("no API key for %s", apiType)
	}

	config := go_openai.DefaultConfig(apiKey)
	if baseURL, ok := apiSettings.BaseUrls[apiType+"-base-url"]; ok && baseURL != "" {
		config.BaseURL = baseURL
	}
	if clientSettings != nil {
		if clientSettings.Organization != nil {
			config.OrgID = *clientSettings.Organization
		}
		if clientSettings.HTTPClient != nil {
			config.HTTPClient = clientSettings.HTTPClient
		} else if clientSettings.Timeout != nil {
			config.HTTPClient.Timeout = *clientSettings.Timeout
		}
	}

	return go_openai.NewClientWithConfig(config), nil
}

// MakeCompletionRequest builds an OpenAI ChatCompletionRequest from a conversation.
func MakeCompletionRequest(
	stepSettings *settings.StepSettings,
	messages conversation.Conversation,
) (*go_openai.ChatCompletionRequest, error) {
	if stepSettings.Chat == nil {
		return nil, errors.New("no chat settings")
	}

	chatSettings := stepSettings.Chat
	engine := ""
	if chatSettings.Engine != nil {
		engine = *chatSettings.Engine
	} else {
		return nil, errors.New("no engine specified")
	}

	msgs_ := make([]go_openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role, err := roleToOpenAIRole(msg.Role)
		if err != nil {
			return nil, err
		}
		msgs_ = append(msgs_, go_openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Text,
		})
	}

	temperature := 0.0
	if chatSettings.Temperature != nil {
		temperature = *chatSettings.Temperature
	}
	topP := 0.0
	if chatSettings.TopP != nil {
		topP = *chatSettings.TopP
	}
	maxTokens := 0
	if chatSettings.MaxResponseTokens != nil {
		maxTokens = *chatSettings.MaxResponseTokens
	}

	log.Debug().
		Str("engine", engine).
		Int("num_messages", len(msgs_)).
		Int("max_tokens", maxTokens).
		Float64("temperature", temperature).
		Msg("building openai completion request")

	req := go_openai.ChatCompletionRequest{
		Model:       engine,
		Messages:    msgs_,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
		TopP:        float32(topP),
		Stop:        chatSettings.Stop,
	}

	return &req, nil
}

func roleToOpenAIRole(role conversation.Role) (string, error) {
	switch role {
	case conversation.RoleSystem:
		return go_openai.ChatMessageRoleSystem, nil
	case conversation.RoleUser:
		return go_openai.ChatMessageRoleUser, nil
	case conversation.RoleAssistant:
		return go_openai.ChatMessageRoleAssistant, nil
	default:
		return "", errors.Errorf("unknown role %s", role)
	}
}
