package cmds

import (
	"github.com/go-go-golems/mastro/pkg/conversation"
	"github.com/go-go-golems/mastro/pkg/engine"
)

// newDryRunEngine returns a scripted engine that plays through a short
// canned dialogue, useful for exercising the interactive loop without
// hitting a real endpoint.
func newDryRunEngine() engine.Engine {
	return engine.NewScriptedEngine(
		`{"status": "questioning", "questions": [
			{"question": "What is the deadline for this task?",
			 "context": "Helps decide how aggressively to cut scope."},
			{"question": "Who is the primary audience?"}
		]}`,
		`{"status": "ready", "summary": "Enough context gathered to draft a plan."}`,
		`{"title": "Dry-run plan",
		  "summary": "A canned plan produced by the scripted engine.",
		  "items": [
			{"label": "Outline", "description": "Sketch the main sections.", "priority": "high", "effort_hours": 1},
			{"label": "Draft", "description": "Write the first full draft.", "priority": "medium", "effort_hours": 3},
			{"label": "Review", "description": "Get feedback and revise.", "priority": "low"}
		  ],
		  "assumptions": ["The deadline allows at least one review cycle."]}`,
	)
}

func conversationManagerWithAutosave(dir string) conversation.Manager {
	// empty format keeps the default per-conversation filename template
	return conversation.NewManager(
		conversation.WithAutosave("yes", "", dir),
	)
}
