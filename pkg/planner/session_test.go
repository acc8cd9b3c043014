package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/mastro/pkg/conversation"
	"github.com/go-go-golems/mastro/pkg/engine"
	"github.com/go-go-golems/mastro/pkg/settings"
)

type fakeEngine struct {
	run func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error)
}

func (f fakeEngine) RunInference(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
	return f.run(ctx, messages)
}

func assistantReply(text string) *conversation.Message {
	return conversation.NewChatMessage(conversation.RoleAssistant, text)
}

const (
	questioningReply = `{"status": "questioning", "questions": [{"question": "When is the party?", "context": "scheduling drives everything else"}]}`
	readyReply       = `{"status": "ready", "summary": "enough information to plan the party"}`
	planReply        = `{
		"title": "Birthday Party Plan",
		"summary": "A small garden party for ten guests.",
		"items": [
			{"label": "Pick a date", "description": "Agree on a weekend date with the family. Check the weather forecast.", "priority": "high"},
			{"label": "Send invitations", "description": "Write and send invitations to all ten guests.", "priority": "medium", "effort_hours": 1.5},
			{"label": "Order the cake", "description": "Order a chocolate cake from the local bakery two days ahead."}
		],
		"assumptions": ["The party happens at home", "Budget is not a constraint"]
	}`
)

func newTestSettings() *settings.StepSettings {
	s := settings.NewStepSettings()
	s.Planner.MaxQuestions = 3
	return s
}

func TestStartReturnsQuestions(t *testing.T) {
	s, err := NewSession(newTestSettings(), engine.NewScriptedEngine(questioningReply))
	require.NoError(t, err)
	require.Equal(t, StateAwaitingInput, s.State())

	outcome, err := s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	require.False(t, outcome.Ready)
	require.Len(t, outcome.Questions, 1)
	require.Equal(t, "When is the party?", outcome.Questions[0].Question)

	require.Equal(t, StateQuestioning, s.State())
	require.Equal(t, 1, s.QuestionsAsked())

	transcript := s.Conversation()
	require.Len(t, transcript, 2)
	require.Equal(t, conversation.RoleUser, transcript[0].Role)
	require.Equal(t, "Plan a birthday party", transcript[0].Text)
	require.Equal(t, conversation.RoleAssistant, transcript[1].Role)
}

func TestStartRejectsEmptyInput(t *testing.T) {
	s, err := NewSession(newTestSettings(), engine.NewScriptedEngine(questioningReply))
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "   ")
	var invalidInput *InvalidInputError
	require.ErrorAs(t, err, &invalidInput)

	require.Equal(t, StateAwaitingInput, s.State())
	require.Empty(t, s.Conversation())
}

func TestStartRejectsOverlongInput(t *testing.T) {
	stepSettings := newTestSettings()
	stepSettings.Planner.MaxInputLength = 10

	s, err := NewSession(stepSettings, engine.NewScriptedEngine(questioningReply))
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "this is longer than ten characters")
	var invalidInput *InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	require.Empty(t, s.Conversation())
}

func TestAnswerInvalidStates(t *testing.T) {
	s, err := NewSession(newTestSettings(), engine.NewScriptedEngine(readyReply, planReply))
	require.NoError(t, err)

	// AwaitingInput
	_, err = s.Answer(context.Background(), "it should be outdoors")
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	require.Empty(t, s.Conversation())

	// Ready
	_, err = s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	require.Equal(t, StateReady, s.State())

	_, err = s.Answer(context.Background(), "it should be outdoors")
	require.ErrorAs(t, err, &invalidState)
	require.Len(t, s.Conversation(), 2)

	// Complete
	_, err = s.GenerateResult(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateComplete, s.State())

	_, err = s.Answer(context.Background(), "it should be outdoors")
	require.ErrorAs(t, err, &invalidState)
	require.Len(t, s.Conversation(), 2)
}

func TestGenerateResultInvalidWhileQuestioning(t *testing.T) {
	s, err := NewSession(newTestSettings(), engine.NewScriptedEngine(questioningReply))
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	require.Equal(t, StateQuestioning, s.State())

	_, err = s.GenerateResult(context.Background())
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)

	require.Equal(t, StateQuestioning, s.State())
	require.Len(t, s.Conversation(), 2)
}

func TestReadySignalThenGenerateResult(t *testing.T) {
	s, err := NewSession(newTestSettings(), engine.NewScriptedEngine(readyReply, planReply))
	require.NoError(t, err)

	outcome, err := s.Start(context.Background(), "Plan a birthday party for ten guests next Saturday at home")
	require.NoError(t, err)
	require.True(t, outcome.Ready)
	require.Equal(t, "enough information to plan the party", outcome.Summary)
	require.Nil(t, outcome.Plan)
	require.Equal(t, StateReady, s.State())

	plan, err := s.GenerateResult(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Birthday Party Plan", plan.Title)
	require.Len(t, plan.Items, 3)
	require.Equal(t, StateComplete, s.State())
	require.Equal(t, plan, s.Plan())

	// Complete is terminal, a session produces at most one plan.
	_, err = s.GenerateResult(context.Background())
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)

	// GenerateResult does not grow the transcript.
	require.Len(t, s.Conversation(), 2)
}

func TestMalformedReplyLeavesSessionUntouched(t *testing.T) {
	replies := []string{"I will certainly help you plan!", questioningReply}
	i := 0
	eng := fakeEngine{run: func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
		reply := replies[i]
		i++
		return assistantReply(reply), nil
	}}

	s, err := NewSession(newTestSettings(), eng)
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "Plan a birthday party")
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "I will certainly help you plan!", malformed.Raw)

	require.Equal(t, StateAwaitingInput, s.State())
	require.Empty(t, s.Conversation())
	require.Equal(t, 0, s.QuestionsAsked())

	// The failed call is retryable as-is and resumes where it left off.
	outcome, err := s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	require.Len(t, outcome.Questions, 1)
	require.Len(t, s.Conversation(), 2)
}

func TestTransportErrorLeavesSessionUntouched(t *testing.T) {
	failures := 0
	eng := fakeEngine{run: func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
		if failures == 0 {
			failures++
			return nil, context.DeadlineExceeded
		}
		return assistantReply(questioningReply), nil
	}}

	s, err := NewSession(newTestSettings(), eng)
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "Plan a birthday party")
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Equal(t, StateAwaitingInput, s.State())
	require.Empty(t, s.Conversation())

	_, err = s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	require.Equal(t, StateQuestioning, s.State())
}

func TestCancellationPropagatesAndLeavesSessionUntouched(t *testing.T) {
	eng := fakeEngine{run: func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	s, err := NewSession(newTestSettings(), eng)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Start(ctx, "Plan a birthday party")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateAwaitingInput, s.State())
	require.Empty(t, s.Conversation())
}

func TestQuestionBudgetForcesReady(t *testing.T) {
	// The endpoint never volunteers readiness; the cap has to end the dialogue.
	s, err := NewSession(newTestSettings(), engine.NewScriptedEngine(questioningReply))
	require.NoError(t, err)

	outcome, err := s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	require.Len(t, outcome.Questions, 1)

	for i := 0; i < 2; i++ {
		outcome, err = s.Answer(context.Background(), "whatever works")
		require.NoError(t, err)
		require.Len(t, outcome.Questions, 1)
	}
	require.Equal(t, 3, s.QuestionsAsked())
	require.Equal(t, StateQuestioning, s.State())

	// Third Answer: budget exhausted, the questioning reply is overridden.
	outcome, err = s.Answer(context.Background(), "whatever works")
	require.NoError(t, err)
	require.True(t, outcome.Ready)
	require.Empty(t, outcome.Questions)
	require.Equal(t, StateReady, s.State())
	require.Equal(t, 3, s.QuestionsAsked())
}

func TestQuestionsTruncatedToBudget(t *testing.T) {
	threeQuestions := `{"status": "questioning", "questions": [
		{"question": "When?"}, {"question": "Where?"}, {"question": "How many guests?"}
	]}`

	stepSettings := newTestSettings()
	stepSettings.Planner.MaxQuestions = 2

	s, err := NewSession(stepSettings, engine.NewScriptedEngine(threeQuestions))
	require.NoError(t, err)

	outcome, err := s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	require.Len(t, outcome.Questions, 2)
	require.Equal(t, "When?", outcome.Questions[0].Question)
	require.Equal(t, "Where?", outcome.Questions[1].Question)
	require.Equal(t, 2, s.QuestionsAsked())
}

func TestTranscriptAccounting(t *testing.T) {
	s, err := NewSession(newTestSettings(), engine.NewScriptedEngine(questioningReply))
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)

	_, err = s.Answer(context.Background(), "next Saturday")
	require.NoError(t, err)

	// Every accepted call appends exactly one user and one assistant turn.
	require.Len(t, s.Conversation(), 4)
}

func TestAutoGenerateProducesPlanInOneCall(t *testing.T) {
	s, err := NewSession(
		newTestSettings(),
		engine.NewScriptedEngine(readyReply, planReply),
		WithAutoGenerate(),
	)
	require.NoError(t, err)

	outcome, err := s.Start(context.Background(), "Plan a birthday party for ten guests next Saturday at home")
	require.NoError(t, err)
	require.True(t, outcome.Ready)
	require.NotNil(t, outcome.Plan)
	require.Equal(t, "Birthday Party Plan", outcome.Plan.Title)

	require.Equal(t, StateComplete, s.State())
	// The ready acknowledgement is a protocol signal, not dialogue: only the
	// user turn enters the transcript when a call returns the plan directly.
	require.Len(t, s.Conversation(), 1)
}

func TestAutoGenerateFinalFailureLeavesSessionUntouched(t *testing.T) {
	s, err := NewSession(
		newTestSettings(),
		engine.NewScriptedEngine(readyReply, "sorry, no JSON today", readyReply, planReply),
		WithAutoGenerate(),
	)
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "Plan a birthday party for ten guests")
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, StateAwaitingInput, s.State())
	require.Empty(t, s.Conversation())

	outcome, err := s.Start(context.Background(), "Plan a birthday party for ten guests")
	require.NoError(t, err)
	require.NotNil(t, outcome.Plan)
	require.Equal(t, StateComplete, s.State())
}

func TestConcurrentUseFailsFast(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	eng := fakeEngine{run: func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
		close(entered)
		<-release
		return assistantReply(questioningReply), nil
	}}

	s, err := NewSession(newTestSettings(), eng)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background(), "Plan a birthday party")
		done <- err
	}()

	<-entered
	_, err = s.Answer(context.Background(), "overlapping call")
	var concurrentUse *ConcurrentUseError
	require.ErrorAs(t, err, &concurrentUse)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, StateQuestioning, s.State())
}

func TestConversationSnapshotDuringInFlightCall(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	eng := fakeEngine{run: func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
		close(entered)
		<-release
		return assistantReply(questioningReply), nil
	}}

	s, err := NewSession(newTestSettings(), eng)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background(), "Plan a birthday party")
		done <- err
	}()

	// Polling the transcript mid-call must not block and must still show
	// the pre-call state, since nothing commits before the reply is valid.
	<-entered
	require.Empty(t, s.Conversation())

	close(release)
	require.NoError(t, <-done)
	require.Len(t, s.Conversation(), 2)
}

func TestPreambleStaysOutOfTranscript(t *testing.T) {
	var seen conversation.Conversation
	eng := fakeEngine{run: func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
		seen = messages
		return assistantReply(questioningReply), nil
	}}

	s, err := NewSession(newTestSettings(), eng)
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)

	// The request carries the system preamble plus the transcript, but only
	// the dialogue itself is retained by the session.
	require.Len(t, seen, 2)
	require.Equal(t, conversation.RoleSystem, seen[0].Role)
	require.Contains(t, seen[0].Text, "questioning")
	require.Equal(t, conversation.RoleUser, seen[1].Role)

	for _, msg := range s.Conversation() {
		require.NotEqual(t, conversation.RoleSystem, msg.Role)
	}
}

func TestFullTranscriptSentEveryCall(t *testing.T) {
	var lengths []int
	eng := fakeEngine{run: func(ctx context.Context, messages conversation.Conversation) (*conversation.Message, error) {
		lengths = append(lengths, len(messages))
		return assistantReply(questioningReply), nil
	}}

	s, err := NewSession(newTestSettings(), eng)
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "Plan a birthday party")
	require.NoError(t, err)
	_, err = s.Answer(context.Background(), "next Saturday")
	require.NoError(t, err)

	// preamble + user; then preamble + 3 prior turns + new user turn
	require.Equal(t, []int{2, 5}, lengths)
}
