package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"dokomiru/config"
	"dokomiru/models"
	"dokomiru/services/resolve"
)

type fakeResolver struct {
	records  []models.MovieRecord
	err      error
	gotQuery string
	gotMode  string
}

func (f *fakeResolver) Resolve(ctx context.Context, query, mode string) ([]models.MovieRecord, error) {
	f.gotQuery = query
	f.gotMode = mode
	return f.records, f.err
}

type fakeEnricher struct {
	called bool
}

func (f *fakeEnricher) Enrich(ctx context.Context, records []models.MovieRecord) []models.MovieRecord {
	f.called = true
	for i := range records {
		records[i].JustWatchLink = "https://www.justwatch.com/jp/movie/test"
	}
	return records
}

func configuredManager(t *testing.T) *config.Manager {
	t.Helper()
	mgr := config.NewManagerWithFs("settings.json", afero.NewMemMapFs())
	settings := config.DefaultSettings()
	settings.Metadata.TMDBAPIKey = "test-key"
	if err := mgr.Save(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	return mgr
}

func unconfiguredManager(t *testing.T) *config.Manager {
	t.Helper()
	mgr := config.NewManagerWithFs("settings.json", afero.NewMemMapFs())
	if err := mgr.Save(config.DefaultSettings()); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	return mgr
}

func TestSearchEmptyQuery(t *testing.T) {
	h := NewSearchHandler(&fakeResolver{}, &fakeEnricher{}, configuredManager(t))

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?query=", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "映画名を入力してください。") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestSearchMissingAPIKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	resolver := &fakeResolver{}
	h := NewSearchHandler(resolver, &fakeEnricher{}, unconfiguredManager(t))

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?query=test", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "TMDB_API_KEY") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if resolver.gotQuery != "" {
		t.Error("resolver must not be called without configuration")
	}
}

func TestSearchNoCandidatesIsOK(t *testing.T) {
	resolver := &fakeResolver{err: resolve.ErrNoCandidates}
	h := NewSearchHandler(resolver, &fakeEnricher{}, configuredManager(t))

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?query=abc&mode=content", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("expected empty results array, got %+v", resp.Results)
	}
	if resp.Message != "一致する映画が見つかりませんでした。" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestSearchUpstreamError(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("provider down")}
	h := NewSearchHandler(resolver, &fakeEnricher{}, configuredManager(t))

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?query=abc", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestSearchSuccessEnriches(t *testing.T) {
	resolver := &fakeResolver{records: []models.MovieRecord{
		{ID: 372058, Title: "君の名は。"},
	}}
	enricher := &fakeEnricher{}
	h := NewSearchHandler(resolver, enricher, configuredManager(t))

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?query=君の名は", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resolver.gotMode != resolve.ModeTitle {
		t.Errorf("expected default mode title, got %q", resolver.gotMode)
	}
	if !enricher.called {
		t.Error("expected enricher to run on resolved records")
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].JustWatchLink == "" {
		t.Errorf("expected enriched record, got %+v", resp.Results)
	}
	if resp.Message != "" {
		t.Errorf("expected no message on hit, got %q", resp.Message)
	}
}

func TestSearchModePassedThrough(t *testing.T) {
	resolver := &fakeResolver{records: []models.MovieRecord{{ID: 1, Title: "t"}}}
	h := NewSearchHandler(resolver, nil, configuredManager(t))

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?query=abc&mode=CONTENT", nil))

	if resolver.gotMode != resolve.ModeContent {
		t.Errorf("expected mode normalized to content, got %q", resolver.gotMode)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
