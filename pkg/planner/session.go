// Package planner drives a bounded clarifying-question dialogue with a chat
// completion endpoint until it can emit one validated task plan.
//
// The endpoint is stateless and amnesiac between requests; the session is the
// sole holder of conversational memory and forwards the full transcript on
// every call. The instruction preamble is regenerated per request and sent
// out-of-band from the transcript, so the transcript stays pure dialogue.
package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/mastro/pkg/conversation"
	"github.com/go-go-golems/mastro/pkg/engine"
	"github.com/go-go-golems/mastro/pkg/events"
	"github.com/go-go-golems/mastro/pkg/settings"
)

// StepOutcome is what Start and Answer hand back: either the next batch of
// clarifying questions, or the ready acknowledgement (plus the plan itself
// when the session runs with auto-generation).
type StepOutcome struct {
	Questions []ClarifyingQuestion
	Ready     bool
	Summary   string
	Plan      *Plan
}

// Session owns an ordered transcript of turns and walks the state machine
// documented on SessionState. All configuration is injected through the
// constructor; the session never reads ambient state.
//
// A session is single-flight: at most one operation may be in progress, and
// overlapping calls fail fast with ConcurrentUseError. Independent sessions
// are fully isolated and safe to use from separate goroutines.
type Session struct {
	ID uuid.UUID

	settings *settings.StepSettings
	engine   engine.Engine
	manager  conversation.Manager

	publisher    *events.PublisherManager
	autoGenerate bool

	mu             sync.Mutex
	busy           bool
	state          SessionState
	questionsAsked int
	plan           *Plan
}

type SessionOption func(*Session)

func WithSessionID(id uuid.UUID) SessionOption {
	return func(s *Session) {
		s.ID = id
	}
}

// WithPublisherManager attaches an event publisher; the session reports
// lifecycle transitions on it, best-effort.
func WithPublisherManager(pm *events.PublisherManager) SessionOption {
	return func(s *Session) {
		s.publisher = pm
	}
}

// WithAutoGenerate makes Start and Answer produce the plan in the same call
// when the endpoint signals readiness, instead of stopping in the Ready state
// and waiting for an explicit GenerateResult.
func WithAutoGenerate() SessionOption {
	return func(s *Session) {
		s.autoGenerate = true
	}
}

// WithConversationManager swaps the transcript store, e.g. to enable
// autosaving through conversation.WithAutosave.
func WithConversationManager(m conversation.Manager) SessionOption {
	return func(s *Session) {
		s.manager = m
	}
}

func NewSession(stepSettings *settings.StepSettings, eng engine.Engine, options ...SessionOption) (*Session, error) {
	if stepSettings == nil {
		return nil, errors.New("no settings")
	}
	if eng == nil {
		return nil, errors.New("no engine")
	}

	stepSettings = stepSettings.Clone()
	if stepSettings.Planner == nil {
		stepSettings.Planner = &settings.PlannerSettings{}
	}
	if stepSettings.Planner.MaxQuestions <= 0 {
		stepSettings.Planner.MaxQuestions = settings.DefaultMaxQuestions
	}
	if stepSettings.Planner.MaxInputLength <= 0 {
		stepSettings.Planner.MaxInputLength = settings.DefaultMaxInputLength
	}

	ret := &Session{
		ID:       uuid.New(),
		settings: stepSettings,
		engine:   eng,
		manager:  conversation.NewManager(),
		state:    StateAwaitingInput,
	}
	for _, option := range options {
		option(ret)
	}

	return ret, nil
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) QuestionsAsked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionsAsked
}

// Conversation returns a snapshot of the transcript accumulated so far.
func (s *Session) Conversation() conversation.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.GetConversation()
}

// Plan returns the structured result once the session is Complete.
func (s *Session) Plan() *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// Start opens the dialogue with the initial task description and issues the
// first request. It is only valid on a fresh session.
func (s *Session) Start(ctx context.Context, initialTask string) (*StepOutcome, error) {
	if err := s.validateInput(initialTask); err != nil {
		return nil, err
	}
	if err := s.begin("Start", StateAwaitingInput); err != nil {
		return nil, err
	}
	defer s.end()

	return s.advance(ctx, initialTask, true)
}

// Answer feeds the user's reply to the previous batch of questions back into
// the dialogue. It is only valid while the session is Questioning.
func (s *Session) Answer(ctx context.Context, userResponse string) (*StepOutcome, error) {
	if err := s.validateInput(userResponse); err != nil {
		return nil, err
	}
	if err := s.begin("Answer", StateQuestioning); err != nil {
		return nil, err
	}
	defer s.end()

	return s.advance(ctx, userResponse, false)
}

// GenerateResult issues the final request instructing the endpoint to emit
// the terminal plan payload. It is only valid while the session is Ready, and
// transitions it to Complete on success.
func (s *Session) GenerateResult(ctx context.Context) (*Plan, error) {
	if err := s.begin("GenerateResult", StateReady); err != nil {
		return nil, err
	}
	defer s.end()

	plan, err := s.generate(ctx, s.manager.GetConversation())
	if err != nil {
		s.publishError(err)
		return nil, err
	}

	s.commit(func() {
		s.state = StateComplete
		s.plan = plan
	})

	s.publishPlan(plan)
	return plan, nil
}

func (s *Session) validateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return &InvalidInputError{Reason: "text is empty"}
	}
	if maxLen := s.settings.Planner.MaxInputLength; len(text) > maxLen {
		return &InvalidInputError{Reason: fmt.Sprintf("text exceeds maximum length of %d characters", maxLen)}
	}
	return nil
}

// begin acquires the single-flight slot and checks the state machine. end
// must be called once the operation is over.
func (s *Session) begin(op string, expected SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return &ConcurrentUseError{Op: op}
	}
	if s.state != expected {
		return &InvalidStateError{Op: op, State: s.state}
	}
	s.busy = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// commit applies transcript and state mutations atomically with respect to
// the accessors. Nothing before commit is visible to other goroutines, which
// is what makes transport and parse failures safely retryable.
func (s *Session) commit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// advance runs one request/reply cycle of the clarifying dialogue. The
// candidate user message is only appended to the transcript once a valid
// reply came back; any failure before that leaves the session untouched.
func (s *Session) advance(ctx context.Context, userText string, isStart bool) (*StepOutcome, error) {
	userMsg := conversation.NewChatMessage(conversation.RoleUser, userText)

	maxQuestions := s.settings.Planner.MaxQuestions
	remaining := maxQuestions - s.questionsAsked

	preamble, err := renderClarifyPrompt(clarifyPromptParams{
		MaxQuestions:       maxQuestions,
		QuestionsAsked:     s.questionsAsked,
		RemainingQuestions: remaining,
	})
	if err != nil {
		return nil, err
	}

	transcript := s.manager.GetConversation()
	reply, err := s.runInference(ctx, preamble, append(transcript, userMsg))
	if err != nil {
		s.publishError(err)
		return nil, err
	}

	env, err := parseEnvelope(reply.Text)
	if err != nil {
		s.publishError(err)
		return nil, err
	}

	if env.Status == statusQuestioning && remaining > 0 {
		questions := env.Questions
		if len(questions) > remaining {
			log.Debug().
				Int("returned", len(env.Questions)).
				Int("remaining", remaining).
				Msg("truncating questions to remaining budget")
			questions = questions[:remaining]
		}

		s.commit(func() {
			s.manager.AppendMessages(userMsg, reply)
			s.questionsAsked += len(questions)
			s.state = StateQuestioning
		})

		if isStart {
			s.publishStart()
		}
		s.publishQuestions(questions)
		return &StepOutcome{Questions: questions}, nil
	}

	// The endpoint signalled readiness, or the question budget is exhausted.
	// The budget cap overrides whatever the endpoint wanted to do.
	summary := env.Summary
	if env.Status != statusReady {
		summary = "question budget exhausted"
	}

	if !s.autoGenerate {
		s.commit(func() {
			s.manager.AppendMessages(userMsg, reply)
			s.state = StateReady
		})

		if isStart {
			s.publishStart()
		}
		s.publishReady(summary)
		return &StepOutcome{Ready: true, Summary: summary}, nil
	}

	// Auto-generation: produce the plan within the same call. The ready
	// acknowledgement is a protocol signal, not dialogue, so it never enters
	// the transcript; and nothing at all is committed if the final request
	// fails, keeping the retry property intact.
	plan, err := s.generate(ctx, append(transcript, userMsg))
	if err != nil {
		s.publishError(err)
		return nil, err
	}

	s.commit(func() {
		s.manager.AppendMessages(userMsg)
		s.state = StateComplete
		s.plan = plan
	})

	if isStart {
		s.publishStart()
	}
	s.publishPlan(plan)
	return &StepOutcome{Ready: true, Summary: summary, Plan: plan}, nil
}

// generate performs the terminal request and parses the plan payload. It
// never mutates the session.
func (s *Session) generate(ctx context.Context, transcript conversation.Conversation) (*Plan, error) {
	preamble, err := renderFinalPrompt(PlanSchema())
	if err != nil {
		return nil, err
	}

	reply, err := s.runInference(ctx, preamble, transcript)
	if err != nil {
		return nil, err
	}

	return parsePlan(reply.Text)
}

func (s *Session) runInference(ctx context.Context, preamble string, transcript conversation.Conversation) (*conversation.Message, error) {
	request := make(conversation.Conversation, 0, len(transcript)+1)
	request = append(request, conversation.NewChatMessage(conversation.RoleSystem, preamble))
	request = append(request, transcript...)

	engineName := ""
	if s.settings.Chat != nil && s.settings.Chat.Engine != nil {
		engineName = *s.settings.Chat.Engine
	}
	if tokens, err := conversation.CountTokens(request, engineName); err == nil {
		log.Debug().
			Str("session_id", s.ID.String()).
			Int("num_messages", len(request)).
			Int("tokens", tokens).
			Msg("sending request")
	}

	reply, err := s.engine.RunInference(ctx, request)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	return reply, nil
}

func (s *Session) publish(evt events.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishBlind(evt)
}

func (s *Session) publishStart() {
	s.publish(events.NewEvent(events.EventTypeSessionStart, s.ID.String()))
}

func (s *Session) publishQuestions(questions []ClarifyingQuestion) {
	evt := events.NewEvent(events.EventTypeQuestions, s.ID.String())
	for _, q := range questions {
		evt.Questions = append(evt.Questions, q.Question)
	}
	s.publish(evt)
}

func (s *Session) publishReady(summary string) {
	evt := events.NewEvent(events.EventTypeReady, s.ID.String())
	evt.Summary = summary
	s.publish(evt)
}

func (s *Session) publishPlan(plan *Plan) {
	evt := events.NewEvent(events.EventTypePlan, s.ID.String())
	evt.PlanTitle = plan.Title
	s.publish(evt)
}

func (s *Session) publishError(err error) {
	evt := events.NewEvent(events.EventTypeError, s.ID.String())
	evt.Error = err.Error()
	s.publish(evt)
}
