package emailtool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bizcopilot/bizcopilot/internal/domain"
	"github.com/bizcopilot/bizcopilot/internal/mail"
)

// Executor validates send_email arguments and performs the send. It does no
// tool-name dispatch; the orchestrator only hands it calls already verified
// to name this tool.
type Executor struct {
	mailer mail.Mailer
	logger *slog.Logger
}

// NewExecutor creates an executor over the given mail transport.
func NewExecutor(mailer mail.Mailer, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{mailer: mailer, logger: logger}
}

// arguments mirrors the send_email parameter schema. Required fields are
// pointers so an absent field is distinguishable from an empty one.
type arguments struct {
	To      *string `json:"to"`
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
	IsHTML  bool    `json:"isHtml"`
}

// Execute parses and validates the model-supplied arguments, delegates the
// send, and returns a human-readable outcome. Failures come back as
// user-facing strings; nothing escapes as an error.
func (e *Executor) Execute(ctx context.Context, argumentsJSON string) string {
	var args arguments
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		e.logger.ErrorContext(ctx, "malformed send_email arguments", slog.String("error", err.Error()))
		return "Ошибка: не удалось разобрать аргументы функции send_email."
	}

	for _, field := range []struct {
		name  string
		value *string
	}{
		{"to", args.To},
		{"subject", args.Subject},
		{"body", args.Body},
	} {
		if field.value == nil {
			e.logger.ErrorContext(ctx, "send_email arguments missing required field",
				slog.String("field", field.name))
			return fmt.Sprintf("Ошибка: в аргументах функции send_email отсутствует поле %q.", field.name)
		}
	}

	req := domain.EmailSendRequest{
		To:      *args.To,
		Subject: *args.Subject,
		Body:    *args.Body,
		IsHTML:  args.IsHTML,
	}

	if err := e.mailer.Send(ctx, req); err != nil {
		e.logger.ErrorContext(ctx, "email send failed",
			slog.String("to", req.To),
			slog.String("error", err.Error()),
		)
		return "Ошибка: " + err.Error()
	}

	e.logger.InfoContext(ctx, "email sent",
		slog.String("to", req.To),
		slog.Bool("is_html", req.IsHTML),
	)
	return fmt.Sprintf("Письмо успешно отправлено на %s!", req.To)
}
