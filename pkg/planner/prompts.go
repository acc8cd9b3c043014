package planner

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
)

//go:embed prompts/clarify.tmpl
var clarifyPromptTemplate string

//go:embed prompts/final.tmpl
var finalPromptTemplate string

// clarifyPromptParams feed the clarifying-phase preamble. The remaining
// question budget is interpolated on every request so the endpoint knows when
// it has to wrap up.
type clarifyPromptParams struct {
	MaxQuestions       int
	QuestionsAsked     int
	RemainingQuestions int
}

func renderClarifyPrompt(params clarifyPromptParams) (string, error) {
	return renderPrompt("clarify", clarifyPromptTemplate, params)
}

func renderFinalPrompt(schema []byte) (string, error) {
	return renderPrompt("final", finalPromptTemplate, map[string]interface{}{
		"Schema": string(schema),
	})
}

func renderPrompt(name string, text string, params interface{}) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", errors.Wrapf(err, "could not parse %s prompt template", name)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", errors.Wrapf(err, "could not render %s prompt template", name)
	}

	return buf.String(), nil
}
