// Package prompt builds the system prompt for a chat turn from the requested
// mode and the optional business profile. Composition is pure: identical
// inputs always produce byte-identical prompts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bizcopilot/bizcopilot/internal/domain"
)

const copilotPrompt = `Ты — ИИ-копилот для владельца микробизнеса.
Помогаешь с задачами: ответы клиентам, тексты писем сотрудникам, идеи.
Отвечай кратко и по делу.

У тебя есть функция send_email, которая отправляет НАСТОЯЩЕЕ письмо.
Вызывай её только если пользователь ЯВНО пишет что-то вроде:
"напиши и отправь письмо ..." или "напиши письмо и отправь ...".
Во всех остальных случаях НИКОГДА не используй send_email и просто отвечай текстом.`

const defaultPrompt = `Ты — помощник. Отвечай кратко и по делу.`

// Compose returns the system prompt for the given mode, with the business
// profile rendered beneath the base prompt when present. A nil profile
// yields exactly the base prompt.
func Compose(mode domain.Mode, profile *domain.BusinessProfile) string {
	base := defaultPrompt
	if mode == domain.ModeCopilot {
		base = copilotPrompt
	}

	if profile == nil {
		return base
	}
	return base + "\n\n" + renderProfile(profile)
}

// renderProfile produces the deterministic business block, one employee per
// line in input order.
func renderProfile(p *domain.BusinessProfile) string {
	var b strings.Builder
	b.WriteString("Контекст бизнеса:\n")
	fmt.Fprintf(&b, "- ID: %s\n", p.BusinessID)
	fmt.Fprintf(&b, "- Название: %s\n", p.BusinessName)
	fmt.Fprintf(&b, "- Сфера: %s\n", p.Area)
	fmt.Fprintf(&b, "- Владелец: %s\n", p.OwnerName)
	fmt.Fprintf(&b, "- Прибыль: %s\n", p.Profit)
	b.WriteString("- Сотрудники:\n")

	if len(p.Employees) == 0 {
		b.WriteString("Нет сотрудников")
		return b.String()
	}

	lines := make([]string, len(p.Employees))
	for i, e := range p.Employees {
		lines[i] = fmt.Sprintf(" - %s (%s, %s)", e.Name, e.Position, e.Email)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
