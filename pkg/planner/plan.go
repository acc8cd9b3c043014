package planner

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// PlanItem is one actionable entry of a Plan. Item order is meaningful and is
// preserved through serialization.
type PlanItem struct {
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Priority    Priority `json:"priority,omitempty" yaml:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high,enum=critical"`
	EffortHours *float64 `json:"effort_hours,omitempty" yaml:"effort_hours,omitempty"`
}

// Plan is the structured result of a session. It is immutable once produced.
type Plan struct {
	Title       string     `json:"title" yaml:"title"`
	Summary     string     `json:"summary" yaml:"summary"`
	Items       []PlanItem `json:"items" yaml:"items"`
	Assumptions []string   `json:"assumptions,omitempty" yaml:"assumptions,omitempty"`
}

var (
	planSchemaOnce sync.Once
	planSchemaJSON []byte
)

// PlanSchema returns the JSON schema for the Plan wire payload. It is
// interpolated into the final prompt so the endpoint knows the exact shape,
// and used again to validate what comes back.
func PlanSchema() []byte {
	planSchemaOnce.Do(func() {
		planSchemaJSON = reflectSchema(&Plan{})
	})
	return planSchemaJSON
}

func reflectSchema(v interface{}) []byte {
	reflector := &jsonschema.Reflector{
		// Inline everything so the schema stays a single self-contained
		// object; both the prompt and the draft-07 validator want that.
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""

	b, err := json.Marshal(schema)
	if err != nil {
		// reflection over our own static types cannot fail at runtime
		panic(err)
	}
	return b
}
