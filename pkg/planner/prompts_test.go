package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderClarifyPrompt(t *testing.T) {
	prompt, err := renderClarifyPrompt(clarifyPromptParams{
		MaxQuestions:       5,
		QuestionsAsked:     2,
		RemainingQuestions: 3,
	})
	require.NoError(t, err)
	require.Contains(t, prompt, "asked 2 of at most 5 questions")
	require.Contains(t, prompt, "at most 3 more question(s)")
	require.NotContains(t, prompt, "budget is exhausted")
}

func TestRenderClarifyPromptExhaustedBudget(t *testing.T) {
	prompt, err := renderClarifyPrompt(clarifyPromptParams{
		MaxQuestions:       3,
		QuestionsAsked:     3,
		RemainingQuestions: 0,
	})
	require.NoError(t, err)
	require.Contains(t, prompt, "budget is exhausted")
	require.NotContains(t, prompt, "more question(s)")
}

func TestRenderFinalPromptEmbedsSchema(t *testing.T) {
	prompt, err := renderFinalPrompt(PlanSchema())
	require.NoError(t, err)
	require.Contains(t, prompt, `"properties"`)
	require.Contains(t, prompt, "effort_hours")
}
