package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is a single role-tagged entry in a conversation. Messages are
// immutable once appended to a transcript.
type Message struct {
	ID   uuid.UUID `json:"id" yaml:"id"`
	Time time.Time `json:"time" yaml:"time"`

	Role Role   `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`

	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type MessageOption func(*Message)

func WithMetadata(metadata map[string]interface{}) MessageOption {
	return func(message *Message) {
		message.Metadata = metadata
	}
}

func WithTime(time_ time.Time) MessageOption {
	return func(message *Message) {
		message.Time = time_
	}
}

func WithID(id uuid.UUID) MessageOption {
	return func(message *Message) {
		message.ID = id
	}
}

func NewChatMessage(role Role, text string, options ...MessageOption) *Message {
	ret := &Message{
		ID:   uuid.New(),
		Time: time.Now(),
		Role: role,
		Text: text,
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

func (m *Message) View() string {
	// If we are markdown, add a newline so that it becomes valid markdown to parse.
	text := m.Text
	if strings.HasPrefix(text, "```") {
		text = "\n" + text
	}
	return fmt.Sprintf("[%s]: %s", m.Role, strings.TrimRight(text, "\n"))
}
