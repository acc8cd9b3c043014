package engine

import (
	"context"

	"github.com/go-go-golems/mastro/pkg/conversation"
)

// Engine represents an AI inference engine that can process conversations and
// return AI-generated responses. Engines handle provider-specific logic; the
// caller hands over the full message list on every call since the remote
// service keeps no state between requests.
type Engine interface {
	// RunInference sends the messages to the remote endpoint and returns the
	// assistant reply. The input conversation is never mutated.
	RunInference(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error)
}
