package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"dokomiru/models"
	"dokomiru/services/chat"
)

type chatStore interface {
	AddMessage(ctx context.Context, movieID, movieTitle, text string) (models.ChatMessage, error)
	ListMessages(ctx context.Context, movieID string) ([]models.ChatMessage, error)
	ListRecent(ctx context.Context, limit int) ([]models.LatestComment, error)
}

var _ chatStore = (*chat.Store)(nil)

// ChatHandler serves the per-movie comment rooms backed by the document
// store. Store may be nil when no document database is configured.
type ChatHandler struct {
	Store chatStore
}

func NewChatHandler(store chatStore) *ChatHandler {
	return &ChatHandler{Store: store}
}

func (h *ChatHandler) available(w http.ResponseWriter) bool {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return false
	}
	return true
}

// PostMessage handles POST /api/chat/{movieId}/messages.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	movieID := mux.Vars(r)["movieId"]

	var req struct {
		MovieTitle string `json:"movieTitle"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	msg, err := h.Store.AddMessage(r.Context(), movieID, strings.TrimSpace(req.MovieTitle), req.Text)
	if err != nil {
		log.Printf("[handlers] post message failed movieId=%s err=%v", movieID, err)
		writeError(w, http.StatusBadGateway, "failed to store message")
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// ListMessages handles GET /api/chat/{movieId}/messages.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	movieID := mux.Vars(r)["movieId"]

	messages, err := h.Store.ListMessages(r.Context(), movieID)
	if err != nil {
		log.Printf("[handlers] list messages failed movieId=%s err=%v", movieID, err)
		writeError(w, http.StatusBadGateway, "failed to load messages")
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// LatestComments handles GET /api/comments/latest?limit=n.
func (h *ChatHandler) LatestComments(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	comments, err := h.Store.ListRecent(r.Context(), limit)
	if err != nil {
		log.Printf("[handlers] latest comments failed err=%v", err)
		writeError(w, http.StatusBadGateway, "failed to load latest comments")
		return
	}
	if comments == nil {
		comments = []models.LatestComment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}
