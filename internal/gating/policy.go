// Package gating decides whether the email-sending tool is advertised to the
// model for a turn. The policy is a conservative whitelist, not a
// classifier: default-deny, explicit-allow.
package gating

import "strings"

// Policy matches user messages against a fixed allow-list of trigger
// phrases. The phrase set is configuration; the default-deny contract is
// load-bearing and does not change with it.
type Policy struct {
	phrases []string
}

// NewPolicy creates a policy over the given trigger phrases, stored
// lowercased for case-insensitive matching.
func NewPolicy(phrases []string) *Policy {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Policy{phrases: lowered}
}

// ShouldExposeEmailTool reports whether the message contains one of the
// trigger phrases. Empty input never exposes the tool.
func (p *Policy) ShouldExposeEmailTool(message string) bool {
	if message == "" {
		return false
	}
	lower := strings.ToLower(message)
	for _, phrase := range p.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
