// Package tokens estimates prompt token counts with tiktoken so dispatch
// logs carry the request size. Estimation is observability only; no request
// is ever rejected on it.
package tokens

import (
	"encoding/json"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/bizcopilot/bizcopilot/internal/api/openai"
)

// Estimator counts prompt tokens for OpenAI-family models.
type Estimator struct {
	mu         sync.RWMutex
	codecCache map[tokenizer.Encoding]tokenizer.Codec
}

// NewEstimator creates an estimator with an empty codec cache.
func NewEstimator() *Estimator {
	return &Estimator{codecCache: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

func (e *Estimator) codec(model string) (tokenizer.Codec, error) {
	encoding := modelEncoding(model)

	e.mu.RLock()
	if cached, ok := e.codecCache[encoding]; ok {
		e.mu.RUnlock()
		return cached, nil
	}
	e.mu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.codecCache[encoding] = codec
	e.mu.Unlock()
	return codec, nil
}

// modelEncoding maps a model name to its tokenizer encoding. Unknown and
// future models get O200kBase, the encoding of current OpenAI models.
func modelEncoding(model string) tokenizer.Encoding {
	switch {
	case hasAnyPrefix(model, "gpt-4o", "gpt-4.1", "gpt-5", "o1", "o3", "o4"):
		return tokenizer.O200kBase
	case hasAnyPrefix(model, "gpt-4", "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

// EstimatePrompt approximates the prompt token count for one chat request:
// per-message and per-tool overheads follow OpenAI's published accounting
// for chat models.
func (e *Estimator) EstimatePrompt(model string, messages []openai.ChatCompletionMessage, tools []openai.Tool) (int, error) {
	codec, err := e.codec(model)
	if err != nil {
		return 0, err
	}

	const (
		tokensPerMessage = 3
		tokensPerRole    = 1
		tokensPerTool    = 7
		assistantPriming = 3
	)

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage + tokensPerRole
		ids, _, _ := codec.Encode(msg.Content)
		total += len(ids)
	}

	for _, tool := range tools {
		ids, _, _ := codec.Encode(tool.Function.Name)
		total += len(ids)
		ids, _, _ = codec.Encode(tool.Function.Description)
		total += len(ids)
		if tool.Function.Parameters != nil {
			raw, _ := json.Marshal(tool.Function.Parameters)
			ids, _, _ = codec.Encode(string(raw))
			total += len(ids)
		}
		total += tokensPerTool
	}

	return total + assistantPriming, nil
}
