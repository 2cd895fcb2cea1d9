package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwise/streamwise/internal/config"
	"github.com/streamwise/streamwise/internal/lookup"
	"github.com/streamwise/streamwise/internal/metadata/tmdb"
	"github.com/streamwise/streamwise/internal/scraper"
	"github.com/streamwise/streamwise/internal/testutil"
)

type stubResolver struct {
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, _ string) scraper.PageInfo {
	s.calls++
	return scraper.PageInfo{}
}

type stubProvider struct {
	calls   int
	details *tmdb.Details
}

func (s *stubProvider) SearchMulti(_ context.Context, query, year, locale string) (*tmdb.MultiSearchResponse, error) {
	s.calls++
	if s.details == nil {
		return &tmdb.MultiSearchResponse{}, nil
	}
	return &tmdb.MultiSearchResponse{
		TotalResults: 1,
		Results:      []tmdb.MultiSearchResult{{ID: s.details.ID, MediaType: tmdb.MediaTypeTV, Name: s.details.Name}},
	}, nil
}

func (s *stubProvider) GetDetails(_ context.Context, id int, mediaType tmdb.MediaType, locale string) (*tmdb.Details, error) {
	return s.details, nil
}

func (s *stubProvider) GetImageURL(path, size string) string {
	return "https://image.tmdb.org/t/p/" + size + path
}

type serverFixture struct {
	server   *Server
	resolver *stubResolver
	provider *stubProvider
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()

	db := testutil.NewTestDB(t)

	cfg := &config.Config{
		Cache:     config.CacheConfig{ResultTTL: time.Minute, ResultMax: 10, NegativeTTL: time.Minute, NegativeMax: 10, SearchTTL: time.Minute, SearchMax: 10},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, Window: time.Minute},
	}

	resolver := &stubResolver{}
	provider := &stubProvider{details: &tmdb.Details{
		ID:           1,
		Name:         "Wednesday",
		FirstAirDate: "2022-11-23",
		VoteAverage:  8.5,
		Genres:       []tmdb.Genre{{Name: "Comedy"}},
		ExternalIDs:  &tmdb.ExternalIDs{ImdbID: "tt13443470"},
	}}

	svc := lookup.NewService(resolver, provider, cfg.Cache, nil, zerolog.Nop())
	return &serverFixture{
		server:   NewServer(db, cfg, svc, zerolog.Nop()),
		resolver: resolver,
		provider: provider,
	}
}

func (f *serverFixture) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) lookup.Result {
	t.Helper()
	var result lookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestHandleLookup_Success(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodPost, "/lookup", `{"input":"Wednesday"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, "Wednesday", result.Title)
	assert.Equal(t, "8.5", result.Rating)
	assert.Equal(t, "2022", result.Year)
	assert.Equal(t, "manual", result.Service)

	// A successful lookup lands in history.
	histRec := f.request(t, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, histRec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Wednesday", entries[0]["title"])
}

func TestHandleLookup_EmptyInput(t *testing.T) {
	f := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{}`},
		{"empty string", `{"input":""}`},
		{"whitespace only", `{"input":"   "}`},
		{"malformed json", `{"input":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.request(t, http.MethodPost, "/lookup", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			result := decodeResult(t, rec)
			assert.False(t, result.Success)
			assert.Equal(t, lookup.ErrCodeValidation, result.Error)
		})
	}

	// Validation failures never reach the pipeline.
	assert.Zero(t, f.resolver.calls)
	assert.Zero(t, f.provider.calls)
}

func TestHandleLookup_InputTooLong(t *testing.T) {
	f := newTestServer(t)

	long := strings.Repeat("a", 501)
	rec := f.request(t, http.MethodPost, "/lookup", `{"input":"`+long+`"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, lookup.ErrCodeValidation, result.Error)
	assert.Equal(t, "Input must be 500 characters or less", result.Message)
	assert.Zero(t, f.provider.calls)
}

func TestHandleLookup_InputLengthCountsCharacters(t *testing.T) {
	f := newTestServer(t)

	// 300 characters of multibyte text is 900 bytes but well under the
	// 500-character ceiling.
	rec := f.request(t, http.MethodPost, "/lookup", `{"input":"`+strings.Repeat("日", 300)+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.True(t, result.Success)

	rec = f.request(t, http.MethodPost, "/lookup", `{"input":"`+strings.Repeat("日", 501)+`"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	result = decodeResult(t, rec)
	assert.Equal(t, lookup.ErrCodeValidation, result.Error)
}

func TestHandleLookup_NotFound(t *testing.T) {
	f := newTestServer(t)
	f.provider.details = nil

	rec := f.request(t, http.MethodPost, "/lookup", `{"input":"No Such Title"}`)

	// Pipeline failures are still well-formed 200 responses.
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.False(t, result.Success)
	assert.Equal(t, lookup.ErrCodeNotFound, result.Error)

	// Failed lookups never land in history.
	histRec := f.request(t, http.MethodGet, "/history", "")
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}

func TestHistoryEndpoints(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodPost, "/lookup", `{"input":"Wednesday"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	histRec := f.request(t, http.MethodGet, "/history", "")
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	id, _ := entries[0]["id"].(string)
	require.NotEmpty(t, id)

	delRec := f.request(t, http.MethodDelete, "/history/"+id, "")
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	histRec = f.request(t, http.MethodGet, "/history", "")
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &entries))
	assert.Empty(t, entries)

	// Clear is idempotent on an empty list.
	clearRec := f.request(t, http.MethodDelete, "/history", "")
	assert.Equal(t, http.StatusNoContent, clearRec.Code)
}

func TestHealthCheck(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRoot(t *testing.T) {
	f := newTestServer(t)

	rec := f.request(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "StreamWise API", body["name"])
	assert.Equal(t, config.Version, body["version"])
}
