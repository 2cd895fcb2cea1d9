package lookup

import (
	"context"

	"github.com/streamwise/streamwise/internal/metadata/tmdb"
	"github.com/streamwise/streamwise/internal/scraper"
)

// PageResolver extracts a display title and release year from a streaming
// service's public content page. It never fails: blocked or unparseable
// pages yield a zero PageInfo.
type PageResolver interface {
	Resolve(ctx context.Context, contentID string) scraper.PageInfo
}

// MetadataProvider defines the provider API operations the pipeline needs.
type MetadataProvider interface {
	SearchMulti(ctx context.Context, query, year, locale string) (*tmdb.MultiSearchResponse, error)
	GetDetails(ctx context.Context, id int, mediaType tmdb.MediaType, locale string) (*tmdb.Details, error)
	GetImageURL(path, size string) string
}
