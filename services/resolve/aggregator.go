package resolve

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"

	"dokomiru/models"
	"dokomiru/services/metadata"
)

// Query modes. Title mode goes straight to the metadata provider; content
// mode runs the full web-search + extraction pipeline.
const (
	ModeTitle   = "title"
	ModeContent = "content"
)

// ErrNoCandidates is the expected terminal state of a content-mode search
// that produced no resolvable movies. Callers present it as an empty result,
// not a failure.
var ErrNoCandidates = errors.New("no candidate titles resolved")

const (
	titleModeLimit     = 10
	perCandidateLimit  = 3
	fallbackTitleLimit = 10
)

type metadataLookup interface {
	Lookup(ctx context.Context, title string, locales []string, limit int) []models.MovieRecord
}

type snippetSearcher interface {
	Search(ctx context.Context, query string) []models.SearchSnippet
}

type titleExtractor interface {
	Extract(ctx context.Context, snippets []models.SearchSnippet, originalQuery string) models.TitleCandidates
}

// Resolver turns a free-text query into a ranked list of movie records.
type Resolver struct {
	metadata metadataLookup
	search   snippetSearcher
	extract  titleExtractor
	locales  []string
}

func NewResolver(metadata metadataLookup, search snippetSearcher, extract titleExtractor, locales []string) *Resolver {
	if len(locales) == 0 {
		locales = []string{"ja-JP", "en-US"}
	}
	return &Resolver{
		metadata: metadata,
		search:   search,
		extract:  extract,
		locales:  locales,
	}
}

// Resolve runs one search request. Title mode keeps the provider's order;
// content mode ranks by the composite relevance score.
func (r *Resolver) Resolve(ctx context.Context, query, mode string) ([]models.MovieRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty query")
	}

	if mode != ModeContent {
		return r.metadata.Lookup(ctx, query, r.locales, titleModeLimit), nil
	}
	return r.resolveContent(ctx, query)
}

func (r *Resolver) resolveContent(ctx context.Context, query string) ([]models.MovieRecord, error) {
	snippets := r.search.Search(ctx, query)
	extracted := r.extract.Extract(ctx, snippets, query)

	// Web-search page titles carry trailing site segments ("君の名は。 -
	// Wikipedia"); clean them before they become candidates so the metadata
	// provider and the web-rank signal both see plausible movie titles.
	webTitles := cleanedSnippetTitles(snippets, fallbackTitleLimit)
	llmTitles := append(append([]string{}, extracted.TitlesJa...), extracted.TitlesEn...)

	if len(webTitles) == 0 && len(llmTitles) == 0 {
		log.Printf("[resolve] no web or extracted titles for query=%q, falling back to raw query", query)
	}

	// Union order: web titles, LLM titles, then the raw query as a last
	// resort. Dedup is exact string equality; normalization only applies to
	// record dedup and ranking downstream.
	candidates := dedupStrings(append(append(webTitles, llmTitles...), query))

	var resolved []models.MovieRecord
	for _, candidate := range candidates {
		// Sequential on purpose: candidate lookups share the provider's
		// rate-limit budget.
		resolved = append(resolved, r.metadata.Lookup(ctx, candidate, r.locales, perCandidateLimit)...)
	}

	records := metadata.DedupByID(resolved)
	if len(records) == 0 {
		return nil, ErrNoCandidates
	}

	return Rank(records, query, webTitles, llmTitles), nil
}

// yearParenRe matches 4-digit year parentheticals, half- or full-width.
var yearParenRe = regexp.MustCompile(`[（(]\s*\d{4}\s*[)）]`)

// titleSeparators are the site-separator characters after which page titles
// carry the site name rather than the movie title.
var titleSeparators = []string{" - ", "–", "—", "|", "｜", ":"}

// CleanSnippetTitle strips the trailing site-separator segment and any
// 4-digit year parenthetical from a web-search page title.
func CleanSnippetTitle(title string) string {
	cleaned := title
	for _, sep := range titleSeparators {
		if idx := strings.Index(cleaned, sep); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}
	cleaned = yearParenRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func cleanedSnippetTitles(snippets []models.SearchSnippet, limit int) []string {
	var titles []string
	for _, s := range snippets {
		if t := CleanSnippetTitle(s.Title); t != "" {
			titles = append(titles, t)
		}
	}
	titles = dedupStrings(titles)
	if len(titles) > limit {
		titles = titles[:limit]
	}
	return titles
}

func dedupStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
