package metadata

import (
	"context"
	"log"
	"net/http"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"dokomiru/models"
)

// Service resolves movie records from TMDB across locales and merges
// locale-specific results into single records keyed by provider id.
type Service struct {
	client *tmdbClient
}

func NewService(apiKey string, httpc *http.Client) *Service {
	return &Service{client: newTMDBClient(apiKey, httpc)}
}

// IsConfigured reports whether the underlying provider credential is present.
func (s *Service) IsConfigured() bool {
	return s.client.isConfigured()
}

// Lookup queries TMDB once per locale concurrently and merges the results in
// locale-list order. A failed locale contributes an empty list; Lookup never
// returns an error. The merged list is truncated to limit.
func (s *Service) Lookup(ctx context.Context, title string, locales []string, limit int) []models.MovieRecord {
	perLocale := make([][]models.MovieRecord, len(locales))

	var g errgroup.Group
	for i, locale := range locales {
		g.Go(func() error {
			records, err := s.client.searchMovies(ctx, title, locale)
			if err != nil {
				log.Printf("[metadata] search failed locale=%s title=%q err=%v", locale, title, err)
				return nil
			}
			perLocale[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var all []models.MovieRecord
	for _, records := range perLocale {
		all = append(all, records...)
	}

	merged := mergeByID(all)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// MovieDetails fetches a single movie in the given locale.
func (s *Service) MovieDetails(ctx context.Context, id int64, locale string) (*models.MovieRecord, error) {
	return s.client.movieDetails(ctx, id, locale)
}

// WatchProviders fetches regional availability for a movie.
func (s *Service) WatchProviders(ctx context.Context, id int64, region string) (*models.WatchRegion, error) {
	return s.client.watchProviders(ctx, id, region)
}

// mergeByID collapses duplicate provider ids. The first occurrence keeps its
// position; later duplicates may only backfill a better title or overview.
func mergeByID(records []models.MovieRecord) []models.MovieRecord {
	byID := make(map[int64]int, len(records))
	merged := make([]models.MovieRecord, 0, len(records))

	for _, rec := range records {
		idx, seen := byID[rec.ID]
		if !seen {
			byID[rec.ID] = len(merged)
			merged = append(merged, rec)
			continue
		}

		existing := &merged[idx]

		// A locale-specific title replaces a missing or Latin-only one.
		if rec.Title != "" {
			if existing.Title == "" {
				existing.Title = rec.Title
			} else if latinOnly(existing.Title) && !latinOnly(rec.Title) {
				existing.Title = rec.Title
			}
		}

		// A longer overview replaces a missing or trivially short one.
		if utf8.RuneCountInString(existing.Overview) < 5 &&
			utf8.RuneCountInString(rec.Overview) > utf8.RuneCountInString(existing.Overview) {
			existing.Overview = rec.Overview
		}

		if existing.ReleaseDate == "" {
			existing.ReleaseDate = rec.ReleaseDate
		}
		if existing.PosterPath == "" {
			existing.PosterPath = rec.PosterPath
		}
	}

	return merged
}

// latinOnly reports whether the string contains no characters outside the
// Latin script (digits, spaces and ASCII punctuation count as Latin).
func latinOnly(s string) bool {
	for _, r := range s {
		if r <= unicode.MaxASCII {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			continue
		}
		return false
	}
	return true
}

// DedupByID removes records sharing a provider id, keeping the first
// occurrence under the same backfill rule used for locale merging.
func DedupByID(records []models.MovieRecord) []models.MovieRecord {
	return mergeByID(records)
}
