// Package lookup resolves user-supplied streaming content references (shared
// links or free-text titles) into normalized metadata.
package lookup

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/streamwise/streamwise/internal/config"
	"github.com/streamwise/streamwise/internal/metadata/tmdb"
)

const defaultLocale = "en"

// Service orchestrates the resolution pipeline: normalize, check caches,
// branch by detected service, scrape and/or query the metadata provider,
// cache the outcome. It is the sole writer of the three caches.
type Service struct {
	resolver PageResolver
	provider MetadataProvider

	resultCache   *Cache // successful lookups, long TTL
	negativeCache *Cache // failed lookups, short TTL so they retry sooner
	searchCache   *Cache // raw provider detail payloads, medium TTL

	events Events
	logger zerolog.Logger
}

// NewService creates the resolution orchestrator.
func NewService(resolver PageResolver, provider MetadataProvider, cfg config.CacheConfig, events Events, logger zerolog.Logger) *Service {
	if events == nil {
		events = NopEvents{}
	}
	return &Service{
		resolver:      resolver,
		provider:      provider,
		resultCache:   NewCache(CacheConfig{TTL: cfg.ResultTTL, MaxItems: cfg.ResultMax}),
		negativeCache: NewCache(CacheConfig{TTL: cfg.NegativeTTL, MaxItems: cfg.NegativeMax}),
		searchCache:   NewCache(CacheConfig{TTL: cfg.SearchTTL, MaxItems: cfg.SearchMax}),
		events:        events,
		logger:        logger.With().Str("component", "lookup").Logger(),
	}
}

// Lookup resolves a raw input string into metadata. All anticipated failure
// modes come back as typed results; nothing escapes as an error.
func (s *Service) Lookup(ctx context.Context, input, locale string) Result {
	normalized := NormalizeURL(strings.TrimSpace(input))
	cacheKey := normalized + ":" + localeOrDefault(locale)

	// Success cache takes priority over the negative cache.
	if cached, ok := s.resultCache.GetResult(cacheKey); ok {
		s.events.Emit(EventCacheHit, map[string]any{"key": cacheKey, "store": "result"})
		return cached
	}
	if cached, ok := s.negativeCache.GetResult(cacheKey); ok {
		s.events.Emit(EventCacheHit, map[string]any{"key": cacheKey, "store": "negative"})
		return cached
	}
	s.events.Emit(EventCacheMiss, map[string]any{"key": cacheKey})

	if DetectService(normalized) == ServiceNetflix {
		return s.lookupNetflix(ctx, normalized, locale, cacheKey)
	}
	return s.lookupManual(ctx, normalized, locale, cacheKey)
}

// lookupNetflix resolves a Netflix link: extract the content id, scrape the
// public page for a title, then confirm it against the metadata provider.
func (s *Service) lookupNetflix(ctx context.Context, input, locale, cacheKey string) Result {
	contentID := ExtractNetflixID(input)
	if contentID == "" {
		return s.cacheNegative(cacheKey, Failure(ErrCodeInvalidLink,
			"Could not extract Netflix ID from link."))
	}

	s.events.Emit(EventScrapeStage, map[string]any{"contentId": contentID})
	page := s.resolver.Resolve(ctx, contentID)

	if page.Title != "" {
		// Search without the year first (more flexible), then retry once
		// with the year constraint if the loose search failed.
		result := s.fetchFromProvider(ctx, page.Title, "", locale)
		if !result.Success && page.Year != "" {
			s.events.Emit(EventProviderRetry, map[string]any{
				"title": page.Title,
				"year":  page.Year,
			})
			result = s.fetchFromProvider(ctx, page.Title, page.Year, locale)
		}

		if result.Success {
			// The scraped title wins over the provider's own title field.
			result.Title = page.Title
			result.Service = ServiceNetflix
			s.resultCache.Set(cacheKey, result)
			return result
		}

		s.logger.Debug().
			Str("title", page.Title).
			Str("year", page.Year).
			Str("error", string(result.Error)).
			Msg("Provider lookup failed for scraped title")
	}

	return s.cacheNegative(cacheKey, Failure(ErrCodeUnresolvedLink,
		"Could not resolve this Netflix link. Paste the title name instead."))
}

// lookupManual resolves free-text input by using it directly as the title.
func (s *Service) lookupManual(ctx context.Context, input, locale, cacheKey string) Result {
	result := s.fetchFromProvider(ctx, input, "", locale)
	if !result.Success {
		return s.cacheNegative(cacheKey, result)
	}

	result.Title = input
	result.Service = ServiceManual
	s.resultCache.Set(cacheKey, result)
	return result
}

// fetchFromProvider runs the search-then-detail sequence against the
// metadata provider, reusing cached detail payloads when available. The raw
// payload is cached separately from the formatted result so formatting
// changes never require invalidation.
func (s *Service) fetchFromProvider(ctx context.Context, title, year, locale string) Result {
	searchKey := title + ":" + year + ":" + localeOrDefault(locale)

	if val, ok := s.searchCache.Get(searchKey); ok {
		if details, ok := val.(*tmdb.Details); ok {
			s.events.Emit(EventCacheHit, map[string]any{"key": searchKey, "store": "search"})
			return s.formatResult(details)
		}
	}

	search, err := s.provider.SearchMulti(ctx, title, year, locale)
	if err != nil {
		s.logger.Error().Err(err).Str("title", title).Msg("Provider search failed")
		return Failure(ErrCodeProvider, "Error fetching data from TMDB.")
	}
	if len(search.Results) == 0 {
		return Failure(ErrCodeNotFound, "Title not found in database.")
	}

	// Always take the top-ranked candidate; there is no secondary
	// disambiguation.
	first := search.Results[0]
	mediaType := tmdb.MediaTypeMovie
	if first.MediaType == tmdb.MediaTypeTV {
		mediaType = tmdb.MediaTypeTV
	}

	// NOT_FOUND is reserved for an empty search; any detail-stage failure,
	// including a 404 for a candidate the search just returned, is a
	// provider fault.
	details, err := s.provider.GetDetails(ctx, first.ID, mediaType, locale)
	if err != nil {
		s.logger.Error().Err(err).Int("id", first.ID).Msg("Provider detail fetch failed")
		return Failure(ErrCodeProvider, "Error fetching data from TMDB.")
	}

	s.searchCache.Set(searchKey, details)
	return s.formatResult(details)
}

// formatResult shapes a raw provider payload into the public result form.
func (s *Service) formatResult(details *tmdb.Details) Result {
	result := Result{
		Success: true,
		Service: ServiceNetflix,
	}

	// Series carry a name field, movies a title field.
	if details.Name != "" {
		result.Title = details.Name
	} else {
		result.Title = details.Title
	}

	if details.VoteAverage != 0 {
		result.Rating = fmt.Sprintf("%.1f", details.VoteAverage)
	}

	dateStr := details.ReleaseDate
	if dateStr == "" {
		dateStr = details.FirstAirDate
	}
	if len(dateStr) >= 4 {
		result.Year = dateStr[:4]
	}

	if details.Runtime > 0 {
		result.Runtime = strconv.Itoa(details.Runtime)
	}

	if len(details.Genres) > 0 {
		names := make([]string, len(details.Genres))
		for i, g := range details.Genres {
			names[i] = g.Name
		}
		result.Genre = strings.Join(names, ", ")
	}

	if details.PosterPath != nil {
		result.Poster = s.provider.GetImageURL(*details.PosterPath, "w500")
	}

	if details.ExternalIDs != nil {
		result.ImdbID = details.ExternalIDs.ImdbID
	}

	return result
}

// cacheNegative records a failed outcome in the short-TTL negative cache so
// repeated identical failing requests don't hit the upstream again.
func (s *Service) cacheNegative(cacheKey string, result Result) Result {
	s.negativeCache.Set(cacheKey, result)
	s.events.Emit(EventNegativeCache, map[string]any{
		"key":   cacheKey,
		"error": string(result.Error),
	})
	return result
}

func localeOrDefault(locale string) string {
	if locale == "" {
		return defaultLocale
	}
	return locale
}
