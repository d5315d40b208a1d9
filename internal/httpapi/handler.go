// Package httpapi exposes the chat pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bizcopilot/bizcopilot/internal/domain"
	"github.com/bizcopilot/bizcopilot/internal/server"
)

// Chatter runs one chat turn and returns the reply.
type Chatter interface {
	Chat(ctx context.Context, turn domain.ChatTurn) string
}

type Handler struct {
	chat   Chatter
	logger *slog.Logger
}

func NewHandler(chat Chatter, logger *slog.Logger) *Handler {
	return &Handler{chat: chat, logger: logger}
}

// Mount registers the API routes. The chat endpoint sits behind the claims
// middleware; the health endpoint does not.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Group(func(r chi.Router) {
		r.Use(server.ClaimsMiddleware)
		r.Post("/api/chat", h.HandleChat)
	})
}

type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	identity, _ := server.GetIdentity(r.Context())
	mode := domain.ParseMode(req.Mode)

	server.AddLogField(r.Context(), "mode", string(mode))
	server.AddLogField(r.Context(), "business_id", identity.BusinessID)

	reply := h.chat.Chat(r.Context(), domain.ChatTurn{
		Message:    req.Message,
		Mode:       mode,
		BusinessID: identity.BusinessID,
		Credential: identity.Credential,
	})

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
