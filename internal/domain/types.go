// Package domain holds the types shared across the chat orchestration
// pipeline and the canonical error kinds the orchestrator maps to replies.
package domain

// Mode selects the system prompt persona for a turn.
type Mode string

const (
	// ModeDefault is the minimal assistant persona. Any unknown or empty
	// mode value resolves to it.
	ModeDefault Mode = "default"

	// ModeCopilot is the business copilot persona that knows about the
	// send_email tool.
	ModeCopilot Mode = "copilot"
)

// ParseMode maps a raw mode string to a Mode, defaulting anything
// unrecognized (including empty) to ModeDefault.
func ParseMode(s string) Mode {
	if s == string(ModeCopilot) {
		return ModeCopilot
	}
	return ModeDefault
}

// ChatTurn is one inbound user message plus the caller identity needed to
// enrich it. It is created per request and discarded once the reply is
// produced.
type ChatTurn struct {
	Message    string
	Mode       Mode
	BusinessID string
	// Credential is the caller's bearer token, forwarded as-is to the
	// business registry. The orchestrator never inspects it.
	Credential string
}

// EmployeeRecord is one employee line of a business profile.
type EmployeeRecord struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

// BusinessProfile is the enrichment context fetched from the registry
// service. The pipeline holds a read-only, request-scoped copy; a nil
// profile means the fetch failed or was skipped.
type BusinessProfile struct {
	BusinessID   string           `json:"businessId"`
	BusinessName string           `json:"businessName"`
	Area         string           `json:"area"`
	OwnerName    string           `json:"ownerName"`
	Profit       string           `json:"profit"`
	Employees    []EmployeeRecord `json:"employees"`
}

// ToolCall is a tool invocation requested by the model, already verified to
// be actionable (type "function", a known tool name).
type ToolCall struct {
	ID            string
	Name          string
	ArgumentsJSON string
}

// Completion is the interpreted outcome of one model call: either a text
// reply or a single actionable tool call, never both and never neither.
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// EmailSendRequest carries a validated send_email invocation to the mail
// transport. It is only ever constructed from tool-call arguments that
// passed validation, never directly from user text.
type EmailSendRequest struct {
	To      string
	Subject string
	Body    string
	IsHTML  bool
}

// TurnRecord is the audit row persisted after a turn completes.
type TurnRecord struct {
	ID          string `db:"id"`
	BusinessID  string `db:"business_id"`
	Mode        string `db:"mode"`
	Message     string `db:"message"`
	Reply       string `db:"reply"`
	ToolInvoked bool   `db:"tool_invoked"`
	DurationMS  int64  `db:"duration_ms"`
	CreatedAt   int64  `db:"created_at"`
}
