package agent

// Role identifies who spoke a conversation turn.
type Role string

const (
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a conversation. History is supplied by the
// transport; the agent itself holds no cross-turn state beyond the office
// context snapshot.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one caller utterance plus its conversation so far.
type Request struct {
	ConversationID string
	OrgID          string
	Text           string
	History        []Turn
}

// Response is the rendered reply for a turn. Every turn produces one; gateway
// failures render an apology rather than propagating.
type Response struct {
	Text    string
	Intent  Intent
	Outcome string
}

// Turn outcomes recorded to the call log and metrics.
const (
	OutcomeAnswered    = "answered"
	OutcomeBooked      = "booked"
	OutcomeRescheduled = "rescheduled"
	OutcomeCancelled   = "cancelled"
	OutcomeConfirmed   = "confirmed"
	OutcomeConflict    = "conflict"
	OutcomeFailed      = "failed"
)
