package events

import "time"

type EventType string

const (
	EventTypeSessionStart EventType = "session-start"
	EventTypeQuestions    EventType = "questions"
	EventTypeReady        EventType = "ready"
	EventTypePlan         EventType = "plan"
	EventTypeError        EventType = "error"
)

// Event is the envelope published for every session lifecycle transition.
// Payload depends on the type: questions carry the question texts, plan
// carries the plan title, errors carry the error string.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Time      time.Time `json:"time"`

	Questions []string `json:"questions,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	PlanTitle string   `json:"plan_title,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func NewEvent(type_ EventType, sessionID string) Event {
	return Event{
		Type:      type_,
		SessionID: sessionID,
		Time:      time.Now(),
	}
}
