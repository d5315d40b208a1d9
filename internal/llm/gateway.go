// Package llm dispatches chat prompts to an OpenAI-compatible provider and
// interprets the reply as either text or a single actionable tool call.
package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/bizcopilot/bizcopilot/internal/api/openai"
	"github.com/bizcopilot/bizcopilot/internal/domain"
)

// FallbackReply is returned when the model answers with neither text nor an
// actionable tool call. The caller must never see an empty string.
const FallbackReply = "Готов помочь!"

// Prompt is one turn's input to the model. Tool is nil when the gating
// policy denied the email capability for this turn; the request then
// declares no tools and pins tool_choice to "none" so the two can never
// disagree.
type Prompt struct {
	System string
	User   string
	Tool   *openai.Tool
}

// Option configures the gateway.
type Option func(*Gateway)

// WithBaseURL sets a custom base URL for the provider API.
func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) {
		g.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = httpClient
	}
}

// WithTimeout bounds each completion call. Zero disables the per-call bound
// and leaves only whatever deadline the caller's context carries.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// Gateway is an immutable handle on the LLM provider, constructed once at
// startup and shared across turns.
type Gateway struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	baseURL     string
	httpClient  *http.Client
}

// New creates a gateway for the given provider credentials and model.
func New(apiKey, model string, temperature float32, opts ...Option) *Gateway {
	g := &Gateway{
		model:       model,
		temperature: temperature,
	}

	for _, opt := range opts {
		opt(g)
	}

	var clientOpts []openai.ClientOption
	if g.baseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(g.baseURL))
	}
	if g.httpClient != nil {
		clientOpts = append(clientOpts, openai.WithHTTPClient(g.httpClient))
	}

	g.client = openai.NewClient(apiKey, clientOpts...)
	return g
}

// Complete sends one prompt and interprets the first choice of the reply.
//
// Failure modes are kept distinct: transport errors and non-2xx statuses
// surface as a provider error carrying the response detail, while a 200 with
// no usable choice surfaces as an empty-model-response error.
func (g *Gateway) Complete(ctx context.Context, p Prompt) (*domain.Completion, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(p))
	if err != nil {
		return nil, domain.ErrProvider(err.Error())
	}

	if len(resp.Choices) == 0 {
		return nil, domain.ErrEmptyResponse()
	}

	// Only the first choice is consulted; additional choices are ignored
	// by the single-reply contract.
	msg := resp.Choices[0].Message
	if msg == nil {
		return nil, domain.ErrEmptyResponse()
	}

	if tc := g.actionableToolCall(p, msg.ToolCalls); tc != nil {
		return &domain.Completion{ToolCall: tc}, nil
	}

	if msg.Content == "" {
		return &domain.Completion{Text: FallbackReply}, nil
	}
	return &domain.Completion{Text: msg.Content}, nil
}

func (g *Gateway) buildRequest(p Prompt) *openai.ChatCompletionRequest {
	temp := g.temperature
	req := &openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: &temp,
	}

	if p.Tool != nil {
		req.Tools = []openai.Tool{*p.Tool}
		req.ToolChoice = "auto"
	} else {
		req.ToolChoice = "none"
	}

	return req
}

// actionableToolCall returns the first tool call iff it is a function call
// naming the tool this turn declared. Any other name falls through to text
// handling; calls can never be actionable on a turn that declared no tool.
func (g *Gateway) actionableToolCall(p Prompt, calls []openai.ToolCall) *domain.ToolCall {
	if p.Tool == nil || len(calls) == 0 {
		return nil
	}

	first := calls[0]
	if first.Type != "function" || first.Function.Name != p.Tool.Function.Name {
		return nil
	}

	return &domain.ToolCall{
		ID:            first.ID,
		Name:          first.Function.Name,
		ArgumentsJSON: first.Function.Arguments,
	}
}
