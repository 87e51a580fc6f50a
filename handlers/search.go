package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"dokomiru/config"
	"dokomiru/models"
	"dokomiru/services/resolve"
)

type movieResolver interface {
	Resolve(ctx context.Context, query, mode string) ([]models.MovieRecord, error)
}

type movieEnricher interface {
	Enrich(ctx context.Context, records []models.MovieRecord) []models.MovieRecord
}

var _ movieResolver = (*resolve.Resolver)(nil)

type SearchHandler struct {
	Resolver   movieResolver
	Enricher   movieEnricher
	CfgManager *config.Manager
}

func NewSearchHandler(resolver movieResolver, enricher movieEnricher, cfgManager *config.Manager) *SearchHandler {
	return &SearchHandler{Resolver: resolver, Enricher: enricher, CfgManager: cfgManager}
}

// Search handles GET /api/search?query=...&mode=title|content.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "映画名を入力してください。")
		return
	}

	// Configuration is checked before any network call so a missing key is
	// an explicit failure, not a silent empty result.
	settings, err := h.CfgManager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings: "+err.Error())
		return
	}
	if strings.TrimSpace(settings.Metadata.TMDBAPIKey) == "" {
		writeError(w, http.StatusInternalServerError, "APIキーが設定されていません。TMDB_API_KEY を確認してください。")
		return
	}

	mode := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = resolve.ModeTitle
	}

	records, err := h.Resolver.Resolve(r.Context(), query, mode)
	if err != nil {
		if errors.Is(err, resolve.ErrNoCandidates) {
			writeJSON(w, http.StatusOK, models.SearchResponse{
				Results: []models.MovieRecord{},
				Message: "一致する映画が見つかりませんでした。",
			})
			return
		}
		log.Printf("[handlers] search failed query=%q mode=%s err=%v", query, mode, err)
		writeError(w, http.StatusBadGateway, "検索中にエラーが発生しました。")
		return
	}

	if h.Enricher != nil {
		records = h.Enricher.Enrich(r.Context(), records)
	}
	if records == nil {
		records = []models.MovieRecord{}
	}

	resp := models.SearchResponse{Results: records}
	if len(records) == 0 {
		resp.Message = "一致する映画が見つかりませんでした。"
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[handlers] write response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
