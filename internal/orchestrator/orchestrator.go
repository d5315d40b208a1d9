// Package orchestrator runs one chat turn end to end: context fetch, prompt
// composition, tool gating, model dispatch and the optional tool execution.
// Its one contract is that every turn ends with a non-empty reply string;
// no failure escapes past this boundary.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bizcopilot/bizcopilot/internal/api/openai"
	"github.com/bizcopilot/bizcopilot/internal/domain"
	"github.com/bizcopilot/bizcopilot/internal/emailtool"
	"github.com/bizcopilot/bizcopilot/internal/gating"
	"github.com/bizcopilot/bizcopilot/internal/llm"
	"github.com/bizcopilot/bizcopilot/internal/prompt"
	"github.com/bizcopilot/bizcopilot/internal/storage"
	"github.com/bizcopilot/bizcopilot/internal/tokens"
)

const (
	// replyEmptyModel is returned when the provider answered but carried
	// nothing usable.
	replyEmptyModel = "Не удалось получить ответ от модели."

	// replyErrorPrefix prefixes the user-facing rendering of a provider
	// failure; the underlying detail is appended.
	replyErrorPrefix = "Произошла ошибка при обработке запроса: "
)

// ContextProvider fetches the caller's business profile, or nil when the
// enrichment is unavailable.
type ContextProvider interface {
	Fetch(ctx context.Context, businessID, credential string) *domain.BusinessProfile
}

// CompletionGateway dispatches one prompt to the model.
type CompletionGateway interface {
	Complete(ctx context.Context, p llm.Prompt) (*domain.Completion, error)
}

// ToolExecutor runs a validated send_email call and returns the outcome
// string.
type ToolExecutor interface {
	Execute(ctx context.Context, argumentsJSON string) string
}

// Config wires the orchestrator's collaborators. All of them are immutable
// handles constructed at startup; turns share nothing mutable.
type Config struct {
	Contexts    ContextProvider
	Gateway     CompletionGateway
	Gating      *gating.Policy
	Email       ToolExecutor
	Turns       storage.TurnStore
	Estimator   *tokens.Estimator
	Model       string
	TurnTimeout time.Duration
	Logger      *slog.Logger
}

// Orchestrator coordinates one request/response cycle per call.
type Orchestrator struct {
	contexts  ContextProvider
	gateway   CompletionGateway
	policy    *gating.Policy
	email     ToolExecutor
	turns     storage.TurnStore
	estimator *tokens.Estimator
	model     string
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an orchestrator from cfg. A nil turn store disables audit
// recording; a nil logger falls back to the default.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	turns := cfg.Turns
	if turns == nil {
		turns = storage.NoopStore{}
	}
	return &Orchestrator{
		contexts:  cfg.Contexts,
		gateway:   cfg.Gateway,
		policy:    cfg.Gating,
		email:     cfg.Email,
		turns:     turns,
		estimator: cfg.Estimator,
		model:     cfg.Model,
		timeout:   cfg.TurnTimeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Chat processes one turn and always returns a non-empty reply.
func (o *Orchestrator) Chat(ctx context.Context, turn domain.ChatTurn) string {
	start := o.now()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	log := o.logger.With(
		slog.String("business_id", turn.BusinessID),
		slog.String("mode", string(turn.Mode)),
	)

	// Context fetch is best-effort; a nil profile only means the prompt
	// goes out without the business block.
	profile := o.contexts.Fetch(ctx, turn.BusinessID, turn.Credential)
	system := prompt.Compose(turn.Mode, profile)

	var tool *openai.Tool
	allowEmail := o.policy.ShouldExposeEmailTool(turn.Message)
	if allowEmail {
		tool = emailtool.Declaration()
	}

	o.logDispatch(ctx, log, system, turn.Message, tool, allowEmail, profile != nil)

	completion, err := o.gateway.Complete(ctx, llm.Prompt{
		System: system,
		User:   turn.Message,
		Tool:   tool,
	})

	var reply string
	var toolInvoked bool
	switch {
	case err != nil:
		reply = o.replyForError(ctx, log, err)
	case completion.ToolCall != nil:
		toolInvoked = true
		reply = o.email.Execute(ctx, completion.ToolCall.ArgumentsJSON)
	default:
		reply = completion.Text
	}

	if reply == "" {
		reply = llm.FallbackReply
	}

	o.recordTurn(ctx, log, turn, reply, toolInvoked, o.now().Sub(start))
	return reply
}

func (o *Orchestrator) logDispatch(ctx context.Context, log *slog.Logger, system, user string, tool *openai.Tool, allowEmail, hasProfile bool) {
	attrs := []any{
		slog.String("model", o.model),
		slog.Bool("allow_email_tool", allowEmail),
		slog.Bool("has_business_context", hasProfile),
	}

	if o.estimator != nil {
		messages := []openai.ChatCompletionMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		}
		var tools []openai.Tool
		if tool != nil {
			tools = []openai.Tool{*tool}
		}
		if estimate, err := o.estimator.EstimatePrompt(o.model, messages, tools); err == nil {
			attrs = append(attrs, slog.Int("prompt_tokens_estimate", estimate))
		}
	}

	log.InfoContext(ctx, "dispatching chat completion", attrs...)
}

// replyForError maps a pipeline failure to the user-facing reply. Empty
// model responses get the fixed fallback text; everything else fails closed
// with the underlying detail appended.
func (o *Orchestrator) replyForError(ctx context.Context, log *slog.Logger, err error) string {
	log.ErrorContext(ctx, "chat turn failed", slog.String("error", err.Error()))

	var perr *domain.PipelineError
	if errors.As(err, &perr) {
		if perr.Kind == domain.ErrorKindEmptyResponse {
			return replyEmptyModel
		}
		detail := perr.Message
		if perr.Detail != "" {
			detail += ": " + perr.Detail
		}
		return replyErrorPrefix + detail
	}
	return replyErrorPrefix + err.Error()
}

// recordTurn writes the audit row. Recording is best-effort and detached
// from the turn deadline; a storage failure never affects the reply.
func (o *Orchestrator) recordTurn(ctx context.Context, log *slog.Logger, turn domain.ChatTurn, reply string, toolInvoked bool, elapsed time.Duration) {
	rec := domain.TurnRecord{
		ID:          uuid.New().String(),
		BusinessID:  turn.BusinessID,
		Mode:        string(turn.Mode),
		Message:     turn.Message,
		Reply:       reply,
		ToolInvoked: toolInvoked,
		DurationMS:  elapsed.Milliseconds(),
		CreatedAt:   o.now().Unix(),
	}

	if err := o.turns.RecordTurn(context.WithoutCancel(ctx), rec); err != nil {
		log.WarnContext(ctx, "failed to record turn", slog.String("error", err.Error()))
		return
	}

	log.InfoContext(ctx, "chat turn completed",
		slog.String("turn_id", rec.ID),
		slog.Bool("tool_invoked", toolInvoked),
		slog.Int64("duration_ms", rec.DurationMS),
	)
}
