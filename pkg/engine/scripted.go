package engine

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/go-go-golems/mastro/pkg/conversation"
)

// ScriptedEngine replies with a fixed list of canned responses, round-robin.
// It is used in tests and for dry runs where no endpoint is available.
type ScriptedEngine struct {
	replies []string
	mu      sync.Mutex
	index   int
}

var _ Engine = (*ScriptedEngine)(nil)

func NewScriptedEngine(replies ...string) *ScriptedEngine {
	return &ScriptedEngine{
		replies: replies,
	}
}

func (s *ScriptedEngine) RunInference(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.replies) == 0 {
		return nil, errors.New("scripted engine has no replies")
	}

	reply := s.replies[s.index]
	s.index = (s.index + 1) % len(s.replies)

	return conversation.NewChatMessage(conversation.RoleAssistant, reply), nil
}
