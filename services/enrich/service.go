package enrich

import (
	"context"
	"log"
	"unicode/utf8"

	"github.com/sourcegraph/conc/iter"

	"dokomiru/models"
)

const overviewBackfillLocale = "en-US"

type providerSource interface {
	MovieDetails(ctx context.Context, id int64, locale string) (*models.MovieRecord, error)
	WatchProviders(ctx context.Context, id int64, region string) (*models.WatchRegion, error)
}

// Service attaches regional watch-provider data and deep links to ranked
// movie records. Each record is enriched independently; one record's failure
// leaves the others untouched.
type Service struct {
	source providerSource
	region string
}

func NewService(source providerSource, region string) *Service {
	if region == "" {
		region = "JP"
	}
	return &Service{source: source, region: region}
}

// Enrich processes all records concurrently and returns them in input order
// once every record's work, success or fallback, has completed.
func (s *Service) Enrich(ctx context.Context, records []models.MovieRecord) []models.MovieRecord {
	return iter.Map(records, func(rec *models.MovieRecord) models.MovieRecord {
		return s.enrichOne(ctx, *rec)
	})
}

func (s *Service) enrichOne(ctx context.Context, rec models.MovieRecord) models.MovieRecord {
	// A Japanese-locale search can come back with an empty overview; one
	// supplementary English fetch backfills it. Failure leaves it as-is.
	if utf8.RuneCountInString(rec.Overview) < 5 {
		if details, err := s.source.MovieDetails(ctx, rec.ID, overviewBackfillLocale); err != nil {
			log.Printf("[enrich] overview backfill failed id=%d err=%v", rec.ID, err)
		} else if details != nil && utf8.RuneCountInString(details.Overview) > utf8.RuneCountInString(rec.Overview) {
			rec.Overview = details.Overview
		}
	}

	rec.StreamingServices = []models.StreamingService{}

	region, err := s.source.WatchProviders(ctx, rec.ID, s.region)
	if err != nil {
		log.Printf("[enrich] watch providers fetch failed id=%d err=%v", rec.ID, err)
		return rec
	}
	if region == nil {
		return rec
	}

	rec.JustWatchLink = region.Link

	// Subscription, purchase and rental offers are unioned; a provider
	// appearing in several categories collapses to one entry, last write
	// wins.
	var services []models.StreamingService
	add := func(providers []models.WatchProvider) {
		for _, p := range providers {
			services = append(services, models.StreamingService{
				Name:     p.Name,
				LogoPath: p.LogoPath,
				DeepLink: ServiceLink(p.Name, rec.Title, region.Link),
			})
		}
	}
	add(region.Flatrate)
	add(region.Buy)
	add(region.Rent)

	rec.StreamingServices = dedupByName(services)
	return rec
}

// dedupByName keeps first-seen order but lets a later entry for the same
// provider overwrite the earlier one.
func dedupByName(services []models.StreamingService) []models.StreamingService {
	index := make(map[string]int, len(services))
	out := make([]models.StreamingService, 0, len(services))
	for _, svc := range services {
		if i, ok := index[svc.Name]; ok {
			out[i] = svc
			continue
		}
		index[svc.Name] = len(out)
		out = append(out, svc)
	}
	return out
}
