package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/streamwise/streamwise/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("title not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

const defaultLanguage = "en-US"

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// SearchMulti searches movies and TV series in one query. The year constraint
// is optional (""); locale defaults to en-US. An empty result list is a
// normal outcome, not an error.
func (c *Client) SearchMulti(ctx context.Context, query, year, locale string) (*MultiSearchResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/search/multi", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", query)
	params.Set("language", languageOrDefault(locale))
	if year != "" {
		params.Set("year", year)
	}

	var response MultiSearchResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Str("year", year).
		Int("results", len(response.Results)).
		Msg("Multi search completed")

	return &response, nil
}

// GetDetails fetches full metadata plus external cross-reference ids for a
// title. The detail and external-ids requests are independent, so they are
// issued concurrently and joined. For a series with no direct runtime field,
// the first per-episode runtime stands in.
func (c *Client) GetDetails(ctx context.Context, id int, mediaType MediaType, locale string) (*Details, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	kind := "movie"
	if mediaType == MediaTypeTV {
		kind = "tv"
	}

	var details Details
	var externalIDs ExternalIDs

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		endpoint := fmt.Sprintf("%s/%s/%d", c.config.BaseURL, kind, id)
		params := url.Values{}
		params.Set("api_key", c.config.APIKey)
		params.Set("language", languageOrDefault(locale))
		return c.doRequest(gctx, endpoint, params, &details)
	})
	g.Go(func() error {
		endpoint := fmt.Sprintf("%s/%s/%d/external_ids", c.config.BaseURL, kind, id)
		params := url.Values{}
		params.Set("api_key", c.config.APIKey)
		return c.doRequest(gctx, endpoint, params, &externalIDs)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	details.ExternalIDs = &externalIDs

	if kind == "tv" && details.Runtime == 0 && len(details.EpisodeRunTime) > 0 {
		details.Runtime = details.EpisodeRunTime[0]
	}

	c.logger.Debug().
		Int("id", id).
		Str("mediaType", kind).
		Str("imdbId", externalIDs.ImdbID).
		Msg("Got title details")

	return &details, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func languageOrDefault(locale string) string {
	if locale == "" {
		return defaultLanguage
	}
	return locale
}
