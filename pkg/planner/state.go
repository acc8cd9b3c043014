package planner

// SessionState tracks where a session is in the clarify-then-plan dialogue.
//
// The machine is strictly forward:
//
//	AwaitingInput --Start()-->          Questioning | Ready
//	Questioning   --Answer()-->         Questioning | Ready
//	Ready         --GenerateResult()--> Complete
//
// Complete is terminal; a session produces at most one Plan.
type SessionState string

const (
	StateAwaitingInput SessionState = "awaiting-input"
	StateQuestioning   SessionState = "questioning"
	StateReady         SessionState = "ready"
	StateComplete      SessionState = "complete"
)

func (s SessionState) String() string {
	return string(s)
}
