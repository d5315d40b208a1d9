// Package emailtool declares the send_email tool and executes validated
// calls against the mail transport.
package emailtool

import "github.com/bizcopilot/bizcopilot/internal/api/openai"

// Name is the only tool name this service ever declares or executes.
const Name = "send_email"

// parameterSchema is the statically-typed send_email parameter description.
// It serializes to the JSON Schema shape chat-completions providers expect.
type parameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]property `json:"properties"`
	Required   []string            `json:"required"`
}

type property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Declaration materializes the send_email tool declaration. Each call
// returns a fresh value; nothing here is shared mutable state.
func Declaration() *openai.Tool {
	return &openai.Tool{
		Type: "function",
		Function: openai.FunctionTool{
			Name: Name,
			Description: "Отправляет настоящее письмо на email. " +
				"Вызывай только если пользователь явно просит написать и отправить письмо.",
			Parameters: parameterSchema{
				Type: "object",
				Properties: map[string]property{
					"to":      {Type: "string", Description: "Email получателя"},
					"subject": {Type: "string", Description: "Тема письма"},
					"body":    {Type: "string", Description: "Текст письма"},
					"isHtml":  {Type: "boolean", Description: "true — если HTML"},
				},
				Required: []string{"to", "subject", "body"},
			},
		},
	}
}
