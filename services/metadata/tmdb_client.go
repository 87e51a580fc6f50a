package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"

	"dokomiru/models"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

type tmdbClient struct {
	apiKey string
	httpc  *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

func (c *tmdbClient) throttle() {
	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()
}

// doGET performs an HTTP GET with rate limiting and retry with exponential
// backoff. Rate-limit and server errors are retried, other 4xx are not.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, v any) error {
	return retry.Do(
		func() error {
			c.throttle()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

type tmdbMovie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
}

func (m tmdbMovie) toRecord() models.MovieRecord {
	return models.MovieRecord{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
	}
}

type tmdbSearchResponse struct {
	Results []tmdbMovie `json:"results"`
}

// searchMovies queries /search/movie for one locale.
func (c *tmdbClient) searchMovies(ctx context.Context, query, language string) ([]models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, errors.New("tmdb api key not configured")
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", query)
	q.Set("language", language)
	q.Set("include_adult", "false")
	endpoint := fmt.Sprintf("%s/search/movie?%s", tmdbBaseURL, q.Encode())

	var payload tmdbSearchResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	records := make([]models.MovieRecord, 0, len(payload.Results))
	for _, m := range payload.Results {
		records = append(records, m.toRecord())
	}
	return records, nil
}

// movieDetails fetches a single movie in the given locale.
func (c *tmdbClient) movieDetails(ctx context.Context, id int64, language string) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, errors.New("tmdb api key not configured")
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("language", language)
	endpoint := fmt.Sprintf("%s/movie/%d?%s", tmdbBaseURL, id, q.Encode())

	var movie tmdbMovie
	if err := c.doGET(ctx, endpoint, &movie); err != nil {
		return nil, err
	}
	rec := movie.toRecord()
	return &rec, nil
}

type tmdbProvidersResponse struct {
	ID      int64                         `json:"id"`
	Results map[string]models.WatchRegion `json:"results"`
}

// watchProviders fetches regional availability for one movie and returns the
// requested region, or nil when the region has no data.
func (c *tmdbClient) watchProviders(ctx context.Context, id int64, region string) (*models.WatchRegion, error) {
	if !c.isConfigured() {
		return nil, errors.New("tmdb api key not configured")
	}

	endpoint := fmt.Sprintf("%s/movie/%d/watch/providers?api_key=%s", tmdbBaseURL, id, c.apiKey)

	var payload tmdbProvidersResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	if payload.Results == nil {
		return nil, nil
	}
	r, ok := payload.Results[region]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
