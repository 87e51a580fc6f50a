package metadata

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestWatchProvidersReturnsRequestedRegion(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{
				"id": 372058,
				"results": {
					"JP": {
						"link": "https://www.justwatch.com/jp/movie/your-name",
						"flatrate": [{"provider_name": "Netflix", "logo_path": "/nf.png"}],
						"rent": [{"provider_name": "Apple TV", "logo_path": "/atv.png"}]
					},
					"US": {
						"flatrate": [{"provider_name": "Crunchyroll", "logo_path": "/cr.png"}]
					}
				}
			}`), nil
		}),
	}

	c := newTMDBClient("test-key", httpc)
	region, err := c.watchProviders(context.Background(), 372058, "JP")
	if err != nil {
		t.Fatalf("watchProviders returned error: %v", err)
	}
	if region == nil {
		t.Fatal("expected JP region data")
	}
	if region.Link != "https://www.justwatch.com/jp/movie/your-name" {
		t.Errorf("unexpected link: %s", region.Link)
	}
	if len(region.Flatrate) != 1 || region.Flatrate[0].Name != "Netflix" {
		t.Errorf("unexpected flatrate providers: %+v", region.Flatrate)
	}
	if len(region.Rent) != 1 || region.Rent[0].Name != "Apple TV" {
		t.Errorf("unexpected rent providers: %+v", region.Rent)
	}
}

func TestWatchProvidersMissingRegion(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"id": 1, "results": {"US": {}}}`), nil
		}),
	}

	c := newTMDBClient("test-key", httpc)
	region, err := c.watchProviders(context.Background(), 1, "JP")
	if err != nil {
		t.Fatalf("watchProviders returned error: %v", err)
	}
	if region != nil {
		t.Errorf("expected nil region, got %+v", region)
	}
}

func TestDoGETDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			attempts++
			return jsonResponse(http.StatusNotFound, `{}`), nil
		}),
	}

	c := newTMDBClient("test-key", httpc)
	if _, err := c.searchMovies(context.Background(), "missing", "ja-JP"); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt for a 4xx, got %d", attempts)
	}
}

func TestDoGETRetriesServerErrors(t *testing.T) {
	attempts := 0
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			attempts++
			if attempts < 3 {
				return jsonResponse(http.StatusInternalServerError, `{}`), nil
			}
			return jsonResponse(http.StatusOK, `{"results": [{"id": 7, "title": "recovered"}]}`), nil
		}),
	}

	c := newTMDBClient("test-key", httpc)
	records, err := c.searchMovies(context.Background(), "flaky", "ja-JP")
	if err != nil {
		t.Fatalf("expected recovery after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(records) != 1 || records[0].ID != 7 {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestSearchMoviesNotConfigured(t *testing.T) {
	c := newTMDBClient("", nil)
	if _, err := c.searchMovies(context.Background(), "anything", "ja-JP"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}
