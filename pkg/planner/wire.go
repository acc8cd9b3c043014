package planner

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/go-go-golems/mastro/pkg/parse"
)

// ClarifyingQuestion is one question the endpoint wants answered before it
// can commit to a plan. Context optionally explains why the question matters.
type ClarifyingQuestion struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

const (
	statusQuestioning = "questioning"
	statusReady       = "ready"
)

// envelope is the discriminated reply the endpoint sends while the dialogue
// is still going on.
type envelope struct {
	Status    string               `json:"status" jsonschema:"enum=questioning,enum=ready"`
	Questions []ClarifyingQuestion `json:"questions,omitempty"`
	Summary   string               `json:"summary,omitempty"`
}

var (
	envelopeSchemaOnce sync.Once
	envelopeSchema     *gojsonschema.Schema
	planGoSchemaOnce   sync.Once
	planGoSchema       *gojsonschema.Schema
)

// mustCompileSchema compiles a schema reflected from our own static wire
// types. Compilation cannot fail on valid input, so a failure here is a bug
// in the type definitions and stops the program.
func mustCompileSchema(schemaJSON []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(err)
	}
	return s
}

func getEnvelopeSchema() *gojsonschema.Schema {
	envelopeSchemaOnce.Do(func() {
		envelopeSchema = mustCompileSchema(reflectSchema(&envelope{}))
	})
	return envelopeSchema
}

func getPlanSchema() *gojsonschema.Schema {
	planGoSchemaOnce.Do(func() {
		planGoSchema = mustCompileSchema(PlanSchema())
	})
	return planGoSchema
}

// extractPayload pulls the JSON object out of a raw reply. The endpoint is
// told to reply with bare JSON but models routinely add prose or fences, so
// we accept the first embedded object that validates against the schema.
func extractPayload(raw string, schema *gojsonschema.Schema) (string, error) {
	candidates := parse.ExtractJSON(raw)
	if len(candidates) == 0 {
		return "", &MalformedResponseError{
			Reason: "no JSON object found in reply",
			Raw:    raw,
		}
	}

	var firstFailure string
	for _, candidate := range candidates {
		result, err := schema.Validate(gojsonschema.NewStringLoader(candidate))
		if err != nil {
			continue
		}
		if result.Valid() {
			return candidate, nil
		}
		if firstFailure == "" {
			var reasons []string
			for _, resultError := range result.Errors() {
				reasons = append(reasons, resultError.String())
			}
			firstFailure = strings.Join(reasons, "; ")
		}
	}

	reason := "reply does not match the expected shape"
	if firstFailure != "" {
		reason = reason + ": " + firstFailure
	}
	return "", &MalformedResponseError{
		Reason: reason,
		Raw:    raw,
	}
}

// parseEnvelope validates and decodes a clarifying-phase reply.
func parseEnvelope(raw string) (*envelope, error) {
	payload, err := extractPayload(raw, getEnvelopeSchema())
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, &MalformedResponseError{
			Reason: err.Error(),
			Raw:    raw,
		}
	}

	switch env.Status {
	case statusQuestioning:
		if len(env.Questions) == 0 {
			return nil, &MalformedResponseError{
				Reason: "questioning reply carries no questions",
				Raw:    raw,
			}
		}
		for _, q := range env.Questions {
			if strings.TrimSpace(q.Question) == "" {
				return nil, &MalformedResponseError{
					Reason: "questioning reply carries an empty question",
					Raw:    raw,
				}
			}
		}
	case statusReady:
		if strings.TrimSpace(env.Summary) == "" {
			return nil, &MalformedResponseError{
				Reason: "ready reply carries no summary",
				Raw:    raw,
			}
		}
	default:
		// the schema enum already rejects this, but don't rely on it
		return nil, &MalformedResponseError{
			Reason: "unrecognized status " + env.Status,
			Raw:    raw,
		}
	}

	return &env, nil
}

// parsePlan validates and decodes the terminal plan payload.
func parsePlan(raw string) (*Plan, error) {
	payload, err := extractPayload(raw, getPlanSchema())
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, &MalformedResponseError{
			Reason: err.Error(),
			Raw:    raw,
		}
	}

	if strings.TrimSpace(plan.Title) == "" || strings.TrimSpace(plan.Summary) == "" {
		return nil, &MalformedResponseError{
			Reason: "plan is missing title or summary",
			Raw:    raw,
		}
	}
	if len(plan.Items) == 0 {
		return nil, &MalformedResponseError{
			Reason: "plan carries no items",
			Raw:    raw,
		}
	}
	for _, item := range plan.Items {
		if strings.TrimSpace(item.Label) == "" || strings.TrimSpace(item.Description) == "" {
			return nil, &MalformedResponseError{
				Reason: "plan item is missing label or description",
				Raw:    raw,
			}
		}
		if item.Priority != "" && !item.Priority.IsValid() {
			return nil, &MalformedResponseError{
				Reason: "plan item has invalid priority " + string(item.Priority),
				Raw:    raw,
			}
		}
	}

	return &plan, nil
}
