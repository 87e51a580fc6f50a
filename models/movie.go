package models

// Core data structures for movie resolution and enrichment.

// MovieRecord is one movie as returned by the metadata provider.
// Identity is the provider-assigned TMDB id, stable across locales.
type MovieRecord struct {
	ID                int64              `json:"id"`
	Title             string             `json:"title"`
	ReleaseDate       string             `json:"release_date,omitempty"`
	Overview          string             `json:"overview,omitempty"`
	PosterPath        string             `json:"poster_path,omitempty"`
	StreamingServices []StreamingService `json:"streamingServices,omitempty"`
	JustWatchLink     string             `json:"justWatchLink,omitempty"`
}

// SearchSnippet is one ranked web-search result, consumed by title extraction.
type SearchSnippet struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// TitleCandidates holds movie titles nominated by the LLM, split by language.
// The JSON shape matches the constrained completion output.
type TitleCandidates struct {
	TitlesJa []string `json:"titlesJa"`
	TitlesEn []string `json:"titlesEn"`
}

// Empty reports whether extraction produced no titles at all.
func (c TitleCandidates) Empty() bool {
	return len(c.TitlesJa) == 0 && len(c.TitlesEn) == 0
}

// StreamingService is one watch provider attached to a movie after ranking.
type StreamingService struct {
	Name     string `json:"name"`
	LogoPath string `json:"logo"`
	DeepLink string `json:"link"`
}

// WatchProvider is a single provider entry from the regional availability data.
type WatchProvider struct {
	Name     string `json:"provider_name"`
	LogoPath string `json:"logo_path"`
}

// WatchRegion is the availability data for one region, split by offer type.
type WatchRegion struct {
	Link     string          `json:"link,omitempty"`
	Flatrate []WatchProvider `json:"flatrate,omitempty"`
	Buy      []WatchProvider `json:"buy,omitempty"`
	Rent     []WatchProvider `json:"rent,omitempty"`
}

// SearchResponse is the payload returned by the search endpoint.
type SearchResponse struct {
	Results []MovieRecord `json:"results"`
	Message string        `json:"message,omitempty"`
}
