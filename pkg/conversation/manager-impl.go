package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ManagerImpl struct {
	ConversationID uuid.UUID

	messages Conversation

	autosaveEnabled bool
	autosaveFormat  string
	autosaveDir     string
	startTime       time.Time
}

var _ Manager = (*ManagerImpl)(nil)

type ManagerOption func(*ManagerImpl)

func WithMessages(messages ...*Message) ManagerOption {
	return func(m *ManagerImpl) {
		m.AppendMessages(messages...)
	}
}

func WithManagerConversationID(conversationID uuid.UUID) ManagerOption {
	return func(m *ManagerImpl) {
		m.ConversationID = conversationID
	}
}

func WithAutosave(enabled string, format string, dir string) ManagerOption {
	return func(m *ManagerImpl) {
		m.autosaveEnabled = strings.ToLower(enabled) == "yes"

		if dir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				// fallback to current directory if home dir cannot be determined
				homeDir = "."
			}
			m.autosaveDir = filepath.Join(homeDir, ".mastro", "history")
		} else {
			m.autosaveDir = dir
		}

		if format == "" {
			m.autosaveFormat = "{{.Year}}/{{.Month}}/{{.Day}}/{{.Time.Format \"150405\"}}-{{.ConversationID}}.json"
		} else {
			m.autosaveFormat = format
		}
	}
}

func NewManager(options ...ManagerOption) *ManagerImpl {
	ret := &ManagerImpl{
		ConversationID: uuid.Nil,
		messages:       Conversation{},
		startTime:      time.Now(),
	}
	for _, option := range options {
		option(ret)
	}

	if ret.ConversationID == uuid.Nil {
		ret.ConversationID = uuid.New()
	}

	return ret
}

func (c *ManagerImpl) GetConversation() Conversation {
	// Callers get a copy of the slice header so that later appends don't
	// show up in conversations already handed out.
	ret := make(Conversation, len(c.messages))
	copy(ret, c.messages)
	return ret
}

func (c *ManagerImpl) GetMessage(id string) (*Message, bool) {
	for _, msg := range c.messages {
		if msg.ID.String() == id {
			return msg, true
		}
	}
	return nil, false
}

func (c *ManagerImpl) AppendMessages(messages ...*Message) {
	log.Trace().
		Str("conversation_id", c.ConversationID.String()).
		Int("message_count", len(messages)).
		Int("conversation_length", len(c.messages)).
		Msg("appending messages")

	c.messages = append(c.messages, messages...)

	if c.autosaveEnabled {
		if err := c.autoSave(); err != nil {
			log.Warn().Err(err).Msg("failed to autosave conversation")
		}
	}
}

// SaveToFile persists the current conversation state to a JSON file, enabling
// conversation continuity across sessions.
func (c *ManagerImpl) SaveToFile(s string) error {
	msgs := c.GetConversation()
	f, err := os.Create(s)
	if err != nil {
		return err
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(msgs)
	if err != nil {
		return err
	}

	return nil
}

func (c *ManagerImpl) autoSave() error {
	data := map[string]interface{}{
		"Year":           c.startTime.Format("2006"),
		"Month":          c.startTime.Format("01"),
		"Day":            c.startTime.Format("02"),
		"ConversationID": c.ConversationID.String(),
		"Time":           c.startTime,
	}

	tmpl, err := template.New("autosave").Funcs(sprig.TxtFuncMap()).Parse(c.autosaveFormat)
	if err != nil {
		return err
	}

	var filePathBuffer strings.Builder
	err = tmpl.Execute(&filePathBuffer, data)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(c.autosaveDir, filePathBuffer.String())

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return c.SaveToFile(fullPath)
}
