package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/bizcopilot/bizcopilot/internal/domain"
	"github.com/bizcopilot/bizcopilot/internal/emailtool"
	"github.com/bizcopilot/bizcopilot/internal/gating"
	"github.com/bizcopilot/bizcopilot/internal/llm"
)

var triggerPhrases = []string{
	"напиши и отправь письмо",
	"напиши письмо и отправь",
	"напиши и отправь e-mail",
	"напиши и отправь email",
}

type fakeContexts struct {
	profile *domain.BusinessProfile
	gotID   string
	gotCred string
}

func (f *fakeContexts) Fetch(_ context.Context, businessID, credential string) *domain.BusinessProfile {
	f.gotID = businessID
	f.gotCred = credential
	return f.profile
}

type fakeGateway struct {
	lastPrompt llm.Prompt
	completion *domain.Completion
	err        error
}

func (f *fakeGateway) Complete(_ context.Context, p llm.Prompt) (*domain.Completion, error) {
	f.lastPrompt = p
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

type fakeExecutor struct {
	calls []string
	reply string
}

func (f *fakeExecutor) Execute(_ context.Context, argumentsJSON string) string {
	f.calls = append(f.calls, argumentsJSON)
	return f.reply
}

type fakeMailer struct {
	sent []domain.EmailSendRequest
}

func (f *fakeMailer) Send(_ context.Context, req domain.EmailSendRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

type recordingStore struct {
	recs []domain.TurnRecord
	err  error
}

func (r *recordingStore) RecordTurn(_ context.Context, rec domain.TurnRecord) error {
	if r.err != nil {
		return r.err
	}
	r.recs = append(r.recs, rec)
	return nil
}

func (r *recordingStore) ListTurns(context.Context, string, int) ([]domain.TurnRecord, error) {
	return r.recs, nil
}

func (r *recordingStore) Close() error { return nil }

func newOrchestrator(contexts ContextProvider, gw CompletionGateway, ex ToolExecutor, store *recordingStore) *Orchestrator {
	cfg := Config{
		Contexts: contexts,
		Gateway:  gw,
		Gating:   gating.NewPolicy(triggerPhrases),
		Email:    ex,
		Model:    "gpt-4o-mini",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if store != nil {
		cfg.Turns = store
	}
	return New(cfg)
}

func TestChat_PlainTextTurn(t *testing.T) {
	contexts := &fakeContexts{}
	gw := &fakeGateway{completion: &domain.Completion{Text: "Сегодня солнечно."}}
	ex := &fakeExecutor{}
	store := &recordingStore{}

	o := newOrchestrator(contexts, gw, ex, store)

	turn := domain.ChatTurn{
		Message:    "какая погода?",
		Mode:       domain.ModeDefault,
		BusinessID: "biz-1",
		Credential: "tok-1",
	}
	reply := o.Chat(context.Background(), turn)

	if reply != "Сегодня солнечно." {
		t.Errorf("reply = %q, want model text verbatim", reply)
	}
	if contexts.gotID != "biz-1" || contexts.gotCred != "tok-1" {
		t.Errorf("context fetch got (%q, %q)", contexts.gotID, contexts.gotCred)
	}
	if gw.lastPrompt.Tool != nil {
		t.Error("no tool may be declared without a trigger phrase")
	}
	if len(ex.calls) != 0 {
		t.Error("executor must not run on a text turn")
	}
	if len(store.recs) != 1 || store.recs[0].ToolInvoked {
		t.Errorf("turn record = %+v", store.recs)
	}
}

func TestChat_GatingExposesTool(t *testing.T) {
	gw := &fakeGateway{completion: &domain.Completion{Text: "ok"}}
	o := newOrchestrator(&fakeContexts{}, gw, &fakeExecutor{}, nil)

	o.Chat(context.Background(), domain.ChatTurn{
		Message: "напиши и отправь письмо клиенту о скидке",
		Mode:    domain.ModeCopilot,
	})

	if gw.lastPrompt.Tool == nil {
		t.Fatal("trigger phrase must declare the email tool")
	}
	if gw.lastPrompt.Tool.Function.Name != emailtool.Name {
		t.Errorf("declared tool = %q", gw.lastPrompt.Tool.Function.Name)
	}
}

func TestChat_ProfileEnrichesPrompt(t *testing.T) {
	contexts := &fakeContexts{profile: &domain.BusinessProfile{
		BusinessID:   "biz-1",
		BusinessName: "Цветы у дома",
		Employees:    []domain.EmployeeRecord{{Name: "Иван", Email: "ivan@flowers.ru", Position: "курьер"}},
	}}
	gw := &fakeGateway{completion: &domain.Completion{Text: "ok"}}
	o := newOrchestrator(contexts, gw, &fakeExecutor{}, nil)

	o.Chat(context.Background(), domain.ChatTurn{Message: "привет", Mode: domain.ModeCopilot, BusinessID: "biz-1"})

	if !strings.Contains(gw.lastPrompt.System, "Цветы у дома") {
		t.Error("system prompt should carry the business block")
	}

	// And without a profile the prompt has no business block.
	gw2 := &fakeGateway{completion: &domain.Completion{Text: "ok"}}
	o2 := newOrchestrator(&fakeContexts{}, gw2, &fakeExecutor{}, nil)
	o2.Chat(context.Background(), domain.ChatTurn{Message: "привет", Mode: domain.ModeCopilot})

	if strings.Contains(gw2.lastPrompt.System, "Контекст бизнеса") {
		t.Error("system prompt must not carry a business block without a profile")
	}
}

func TestChat_ToolCallBranch(t *testing.T) {
	// End-to-end over the real executor: the tool call becomes exactly one
	// mail send and the outcome names the recipient.
	mailer := &fakeMailer{}
	executor := emailtool.NewExecutor(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)))

	gw := &fakeGateway{completion: &domain.Completion{ToolCall: &domain.ToolCall{
		ID:            "call_1",
		Name:          emailtool.Name,
		ArgumentsJSON: `{"to":"a@b.com","subject":"S","body":"B"}`,
	}}}
	store := &recordingStore{}
	o := newOrchestrator(&fakeContexts{}, gw, executor, store)

	reply := o.Chat(context.Background(), domain.ChatTurn{
		Message: "напиши и отправь письмо клиенту",
		Mode:    domain.ModeCopilot,
	})

	if !strings.Contains(reply, "a@b.com") {
		t.Errorf("reply = %q, want recipient mentioned", reply)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("mail sends = %d, want exactly 1", len(mailer.sent))
	}
	if mailer.sent[0].IsHTML {
		t.Error("isHtml must default to plain text")
	}
	if len(store.recs) != 1 || !store.recs[0].ToolInvoked {
		t.Errorf("turn record = %+v, want tool_invoked", store.recs)
	}
}

func TestChat_ProviderFailure(t *testing.T) {
	gw := &fakeGateway{err: domain.ErrProvider(`status 500: {"error":"boom"}`)}
	o := newOrchestrator(&fakeContexts{}, gw, &fakeExecutor{}, nil)

	reply := o.Chat(context.Background(), domain.ChatTurn{Message: "привет", Mode: domain.ModeDefault})

	if !strings.HasPrefix(reply, "Произошла ошибка при обработке запроса:") {
		t.Errorf("reply = %q, want error reply", reply)
	}
	if !strings.Contains(reply, "boom") {
		t.Errorf("reply = %q, want underlying detail appended", reply)
	}
}

func TestChat_EmptyModelResponse(t *testing.T) {
	gw := &fakeGateway{err: domain.ErrEmptyResponse()}
	o := newOrchestrator(&fakeContexts{}, gw, &fakeExecutor{}, nil)

	reply := o.Chat(context.Background(), domain.ChatTurn{Message: "привет", Mode: domain.ModeDefault})

	if reply != "Не удалось получить ответ от модели." {
		t.Errorf("reply = %q", reply)
	}
}

func TestChat_NeverEmptyReply(t *testing.T) {
	tests := []struct {
		name string
		gw   *fakeGateway
		ex   ToolExecutor
	}{
		{
			name: "provider failure",
			gw:   &fakeGateway{err: domain.ErrProvider("connection refused")},
			ex:   &fakeExecutor{},
		},
		{
			name: "empty response",
			gw:   &fakeGateway{err: domain.ErrEmptyResponse()},
			ex:   &fakeExecutor{},
		},
		{
			name: "executor returns empty string",
			gw: &fakeGateway{completion: &domain.Completion{ToolCall: &domain.ToolCall{
				Name: emailtool.Name, ArgumentsJSON: "{}",
			}}},
			ex: &fakeExecutor{reply: ""},
		},
		{
			name: "blank completion",
			gw:   &fakeGateway{completion: &domain.Completion{Text: ""}},
			ex:   &fakeExecutor{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{err: context.DeadlineExceeded} // storage down too
			o := newOrchestrator(&fakeContexts{}, tt.gw, tt.ex, store)

			reply := o.Chat(context.Background(), domain.ChatTurn{Message: "msg", Mode: domain.ModeDefault})
			if reply == "" {
				t.Error("reply must never be empty")
			}
		})
	}
}

func TestChat_CopilotScenario(t *testing.T) {
	// mode=copilot, no profile, trigger message: the envelope declares the
	// tool, and the tool-call reply becomes a success string naming the
	// recipient.
	mailer := &fakeMailer{}
	executor := emailtool.NewExecutor(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	gw := &fakeGateway{completion: &domain.Completion{ToolCall: &domain.ToolCall{
		Name:          emailtool.Name,
		ArgumentsJSON: `{"to":"a@b.com","subject":"S","body":"B"}`,
	}}}

	o := newOrchestrator(&fakeContexts{}, gw, executor, nil)

	reply := o.Chat(context.Background(), domain.ChatTurn{
		Message: "напиши и отправь письмо клиенту",
		Mode:    domain.ModeCopilot,
	})

	if gw.lastPrompt.Tool == nil {
		t.Fatal("expected tool declaration for the trigger message")
	}
	if !strings.Contains(reply, "a@b.com") || !strings.HasPrefix(reply, "Письмо успешно отправлено") {
		t.Errorf("reply = %q", reply)
	}
}
