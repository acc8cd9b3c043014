package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"

	"github.com/go-go-golems/mastro/pkg/planner"
)

// PlanToMarkdown renders a plan as plain markdown. Output is deterministic:
// items appear in plan order, assumptions at the end.
func PlanToMarkdown(plan *planner.Plan) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", plan.Title))
	sb.WriteString(plan.Summary)
	sb.WriteString("\n\n## Steps\n\n")

	for i, item := range plan.Items {
		sb.WriteString(fmt.Sprintf("%d. **%s**: %s", i+1, item.Label, item.Description))

		var notes []string
		if item.Priority != "" {
			notes = append(notes, fmt.Sprintf("priority: %s", item.Priority))
		}
		if item.EffortHours != nil {
			notes = append(notes, fmt.Sprintf("effort: %.1fh", *item.EffortHours))
		}
		if len(notes) > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(notes, ", ")))
		}
		sb.WriteString("\n")
	}

	if len(plan.Assumptions) > 0 {
		sb.WriteString("\n## Assumptions\n\n")
		for _, assumption := range plan.Assumptions {
			sb.WriteString(fmt.Sprintf("- %s\n", assumption))
		}
	}

	return sb.String()
}

// PlanToTerminal renders a plan as ANSI-styled text for interactive use.
func PlanToTerminal(plan *planner.Plan) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", errors.Wrap(err, "could not create terminal renderer")
	}

	out, err := renderer.Render(PlanToMarkdown(plan))
	if err != nil {
		return "", errors.Wrap(err, "could not render plan")
	}

	return out, nil
}
