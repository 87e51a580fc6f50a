package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dokomiru/models"
)

const searchBaseURL = "https://www.googleapis.com/customsearch/v1"

// Client queries the Google Custom Search JSON API. Failures are signaled by
// an empty result, never by an error: the caller distinguishes "no
// candidates" by also checking the extraction service.
type Client struct {
	apiKey         string
	engineID       string
	trustedDomains []string
	httpc          *http.Client
}

func NewClient(apiKey, engineID string, trustedDomains []string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:         strings.TrimSpace(apiKey),
		engineID:       strings.TrimSpace(engineID),
		trustedDomains: trustedDomains,
		httpc:          httpc,
	}
}

func (c *Client) isConfigured() bool {
	return c != nil && c.apiKey != "" && c.engineID != ""
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search returns ranked snippets for the query, biased toward movie-review
// and encyclopedia domains. Returns nil on any provider failure.
func (c *Client) Search(ctx context.Context, query string) []models.SearchSnippet {
	if !c.isConfigured() {
		log.Printf("[websearch] search api not configured, skipping web search")
		return nil
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", c.biasedQuery(query))
	q.Set("num", "10")
	endpoint := fmt.Sprintf("%s?%s", searchBaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Printf("[websearch] build request failed: %v", err)
		return nil
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Printf("[websearch] search failed query=%q err=%v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[websearch] search failed query=%q status=%s", query, resp.Status)
		return nil
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("[websearch] decode failed query=%q err=%v", query, err)
		return nil
	}

	snippets := make([]models.SearchSnippet, 0, len(payload.Items))
	for _, item := range payload.Items {
		snippets = append(snippets, models.SearchSnippet{
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}
	return snippets
}

// biasedQuery appends the trusted-domain site filters so results favor
// movie-identifying pages over generic hits.
func (c *Client) biasedQuery(query string) string {
	if len(c.trustedDomains) == 0 {
		return query
	}
	sites := make([]string, 0, len(c.trustedDomains))
	for _, d := range c.trustedDomains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		sites = append(sites, "site:"+d)
	}
	if len(sites) == 0 {
		return query
	}
	return fmt.Sprintf("%s (%s)", query, strings.Join(sites, " OR "))
}
