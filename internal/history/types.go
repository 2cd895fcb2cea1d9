package history

import "time"

// Entry is one lookup history record. Entries are ordered most-recent-first
// and the list is capped, so old lookups age out.
type Entry struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	Title     string    `json:"title,omitempty"`
	Service   string    `json:"service"`
	Rating    string    `json:"rating,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Runtime   string    `json:"runtime,omitempty"`
	Year      string    `json:"year,omitempty"`
	ImdbID    string    `json:"imdbId,omitempty"`
	PosterURL string    `json:"posterUrl,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// SaveInput holds the fields recorded for a completed lookup.
type SaveInput struct {
	Input     string
	Title     string
	Service   string
	Rating    string
	Genre     string
	Runtime   string
	Year      string
	ImdbID    string
	PosterURL string
}
