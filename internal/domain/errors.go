package domain

import "fmt"

// ErrorKind categorizes a pipeline failure. The orchestrator maps kinds to
// user-facing reply strings; nothing above it sees raw errors.
type ErrorKind string

const (
	// ErrorKindProvider covers transport failures and non-2xx statuses
	// from the LLM provider.
	ErrorKindProvider ErrorKind = "provider"

	// ErrorKindEmptyResponse means the provider answered 200 but carried
	// no usable choice or message. Kept distinct from transport failure.
	ErrorKindEmptyResponse ErrorKind = "empty_response"

	// ErrorKindToolArguments means the model's tool-call arguments failed
	// validation (missing field, malformed JSON).
	ErrorKindToolArguments ErrorKind = "tool_arguments"

	// ErrorKindMailTransport means the mail transport refused the send.
	ErrorKindMailTransport ErrorKind = "mail_transport"
)

// PipelineError is a categorized failure raised inside the chat pipeline.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	// Detail is the underlying cause (provider response body, transport
	// error text). Appended to logs and, where the contract asks for it,
	// to the user-facing reply.
	Detail string
}

func (e *PipelineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewPipelineError creates a categorized pipeline error.
func NewPipelineError(kind ErrorKind, message, detail string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Detail: detail}
}

// ErrProvider wraps a provider transport or status failure.
func ErrProvider(detail string) *PipelineError {
	return NewPipelineError(ErrorKindProvider, "LLM API error", detail)
}

// ErrEmptyResponse reports a well-formed but contentless provider reply.
func ErrEmptyResponse() *PipelineError {
	return NewPipelineError(ErrorKindEmptyResponse, "model returned no usable choice", "")
}
