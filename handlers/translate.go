package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"dokomiru/services/extract"
)

type keywordExtractor interface {
	Keywords(ctx context.Context, text string) (string, error)
}

var _ keywordExtractor = (*extract.Service)(nil)

// TranslateHandler decomposes descriptive text into search keywords.
type TranslateHandler struct {
	Extractor keywordExtractor
}

func NewTranslateHandler(extractor keywordExtractor) *TranslateHandler {
	return &TranslateHandler{Extractor: extractor}
}

// Translate handles POST /api/translate with body {"text": "..."}.
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	keywords, err := h.Extractor.Keywords(r.Context(), req.Text)
	if err != nil {
		log.Printf("[handlers] keyword extraction failed: %v", err)
		writeError(w, http.StatusBadGateway, "翻訳APIエラー")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"keywords": keywords})
}
