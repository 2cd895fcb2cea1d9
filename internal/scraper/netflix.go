// Package scraper retrieves display titles from public Netflix title pages.
// The target site actively resists automated retrieval, so every failure
// mode here collapses into an empty result rather than an error.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/streamwise/streamwise/internal/config"
)

const netflixBaseURL = "https://www.netflix.com"

// PageInfo is what could be extracted from a title page. An empty Title
// means the page yielded nothing usable.
type PageInfo struct {
	Title string
	Year  string
}

// fetchProfile is one stage of the fetch fallback chain: a browser identity
// plus its own timeout.
type fetchProfile struct {
	name    string
	timeout time.Duration
	headers map[string]string
}

// titleSource is one structural location to probe for a title, tried in
// order until one yields a usable candidate.
type titleSource struct {
	selector string
	attr     string // non-empty for meta tags
}

var titleSources = []titleSource{
	{selector: `h1[data-uia="hero-title"]`},
	{selector: "h1.title-title"},
	{selector: `h1[class*="title"]`},
	{selector: "h1"},
	{selector: `[data-uia="hero-title"]`},
	{selector: `[class*="hero-title"]`},
	{selector: `meta[property="og:title"]`, attr: "content"},
	{selector: `meta[name="title"]`, attr: "content"},
	{selector: "title"},
}

var yearSelectors = []string{
	`[data-uia="item-year"]`,
	".year",
	`[class*="year"]`,
}

var (
	watchPrefix     = regexp.MustCompile(`(?i)^Watch\s+`)
	onNetflixTail   = regexp.MustCompile(`(?i)\s*on Netflix.*$`)
	dashNetflixTail = regexp.MustCompile(`(?i)\s*-\s*Netflix.*$`)
	pipeTail        = regexp.MustCompile(`\s*\|.*$`)
	yearPattern     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	recentYearOnly  = regexp.MustCompile(`\b20\d{2}\b`)
)

// Resolver fetches Netflix title pages and extracts a title and release year.
type Resolver struct {
	httpClient *http.Client
	baseURL    string
	profiles   []fetchProfile
	logger     zerolog.Logger
}

// NewResolver creates a page resolver with the desktop-then-mobile fetch
// fallback chain.
func NewResolver(cfg config.ScraperConfig, logger zerolog.Logger) *Resolver {
	firstTimeout := time.Duration(cfg.FirstTimeout) * time.Second
	if firstTimeout <= 0 {
		firstTimeout = 15 * time.Second
	}
	retryTimeout := time.Duration(cfg.RetryTimeout) * time.Second
	if retryTimeout <= 0 {
		retryTimeout = 20 * time.Second
	}

	return &Resolver{
		httpClient: &http.Client{},
		baseURL:    netflixBaseURL,
		profiles: []fetchProfile{
			{
				name:    "desktop",
				timeout: firstTimeout,
				headers: map[string]string{
					"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
					"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
					"Accept-Language":           "en-US,en;q=0.9",
					"DNT":                       "1",
					"Upgrade-Insecure-Requests": "1",
					"Sec-Fetch-Dest":            "document",
					"Sec-Fetch-Mode":            "navigate",
					"Sec-Fetch-Site":            "none",
					"Cache-Control":             "max-age=0",
				},
			},
			{
				name:    "mobile",
				timeout: retryTimeout,
				headers: map[string]string{
					"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
					"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
					"Accept-Language": "en-US,en;q=0.9",
				},
			},
		},
		logger: logger.With().Str("component", "scraper").Logger(),
	}
}

// SetBaseURL overrides the target host. Used by tests.
func (r *Resolver) SetBaseURL(baseURL string) {
	r.baseURL = strings.TrimSuffix(baseURL, "/")
}

// Resolve attempts to retrieve a display title and release year for a
// content id. Network failures, blocks and unparseable pages are all normal
// outcomes: the result simply carries an empty Title. Later profiles are
// tried only when a fetch fails outright; the first obtained body is final,
// whatever it contains.
func (r *Resolver) Resolve(ctx context.Context, contentID string) PageInfo {
	pageURL := fmt.Sprintf("%s/title/%s", r.baseURL, contentID)

	for _, profile := range r.profiles {
		body, err := r.fetch(ctx, pageURL, profile)
		if err != nil {
			r.logger.Debug().
				Err(err).
				Str("stage", profile.name).
				Str("contentId", contentID).
				Msg("Page fetch stage failed")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			r.logger.Debug().Err(err).Str("stage", profile.name).Msg("Failed to parse page")
			return PageInfo{}
		}

		title := extractTitle(doc)
		if title == "" {
			r.logger.Debug().
				Str("stage", profile.name).
				Str("contentId", contentID).
				Msg("Page yielded no usable title")
			return PageInfo{}
		}

		info := PageInfo{Title: title, Year: extractYear(doc)}
		r.logger.Debug().
			Str("stage", profile.name).
			Str("title", info.Title).
			Str("year", info.Year).
			Msg("Extracted page info")
		return info
	}

	return PageInfo{}
}

// fetch retrieves the page body using one profile's identity and timeout.
func (r *Resolver) fetch(ctx context.Context, pageURL string, profile fetchProfile) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, profile.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range profile.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// extractTitle probes the ordered source list and returns the first cleaned
// candidate that is not a generic site placeholder. Falls back to embedded
// JSON-LD blocks when no structural location yields anything.
func extractTitle(doc *goquery.Document) string {
	for _, src := range titleSources {
		sel := doc.Find(src.selector).First()
		var raw string
		if src.attr != "" {
			raw, _ = sel.Attr(src.attr)
		} else {
			raw = sel.Text()
		}

		cleaned := cleanTitle(strings.TrimSpace(raw))
		if cleaned != "" {
			return cleaned
		}
	}

	return extractJSONLDTitle(doc)
}

// cleanTitle strips known boilerplate affixes. Returns "" when nothing
// usable remains.
func cleanTitle(raw string) string {
	if len(raw) <= 1 {
		return ""
	}

	cleaned := watchPrefix.ReplaceAllString(raw, "")
	cleaned = onNetflixTail.ReplaceAllString(cleaned, "")
	cleaned = dashNetflixTail.ReplaceAllString(cleaned, "")
	cleaned = pipeTail.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) <= 1 || strings.EqualFold(cleaned, "netflix") {
		return ""
	}
	return cleaned
}

// extractJSONLDTitle scans structured-data script blocks for a name field
// that is not the service's own brand name.
func extractJSONLDTitle(doc *goquery.Document) string {
	var title string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}
		name := strings.TrimSpace(data.Name)
		if name != "" && !strings.Contains(name, "Netflix") {
			title = name
			return false
		}
		return true
	})
	return title
}

// extractYear scans the likely year locations first, then falls back to
// picking the most recent plausible year anywhere in the page text.
func extractYear(doc *goquery.Document) string {
	for _, selector := range yearSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if year := yearPattern.FindString(text); year != "" {
			return year
		}
	}

	years := recentYearOnly.FindAllString(doc.Find("body").Text(), -1)
	if len(years) == 0 {
		return ""
	}
	// All candidates are four digits, so the lexicographic max is the most
	// recent year.
	sort.Strings(years)
	return years[len(years)-1]
}
