// Package history persists completed lookups, most recent first, capped at a
// fixed number of entries.
package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/streamwise/streamwise/internal/lookup"
)

// maxEntries caps the history list; older entries are pruned on save.
const maxEntries = 100

// Service provides lookup history management.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// dedupKey derives the canonical identity of an entry: the normalized title
// when one exists, otherwise the canonical form of the original input. Two
// lookups of the same content collapse into one history row.
func dedupKey(title, input string) string {
	if t := strings.TrimSpace(title); t != "" {
		return strings.ToLower(t)
	}
	return strings.ToLower(lookup.NormalizeURL(strings.TrimSpace(input)))
}

// Save records a lookup. When an entry with the same canonical identity
// exists, its fields and timestamp are refreshed in place, moving it to the
// front of the list while its original id is preserved.
func (s *Service) Save(ctx context.Context, input SaveInput) (*Entry, error) {
	key := dedupKey(input.Title, input.Input)
	now := time.Now().UTC()

	entry := &Entry{
		ID:        uuid.NewString(),
		Input:     input.Input,
		Title:     input.Title,
		Service:   input.Service,
		Rating:    input.Rating,
		Genre:     input.Genre,
		Runtime:   input.Runtime,
		Year:      input.Year,
		ImdbID:    input.ImdbID,
		PosterURL: input.PosterURL,
		CheckedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Upsert on the dedup key keeps the earlier entry's id.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO history (id, dedup_key, input, title, service, rating, genre, runtime, year, imdb_id, poster_url, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO UPDATE SET
			input = excluded.input,
			title = excluded.title,
			service = excluded.service,
			rating = excluded.rating,
			genre = excluded.genre,
			runtime = excluded.runtime,
			year = excluded.year,
			imdb_id = excluded.imdb_id,
			poster_url = excluded.poster_url,
			checked_at = excluded.checked_at
		RETURNING id`,
		entry.ID, key, entry.Input, nullable(entry.Title), entry.Service,
		nullable(entry.Rating), nullable(entry.Genre), nullable(entry.Runtime),
		nullable(entry.Year), nullable(entry.ImdbID), nullable(entry.PosterURL),
		now,
	).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}

	// Prune everything past the cap, oldest first.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY checked_at DESC LIMIT ?
		)`, maxEntries)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return entry, nil
}

// List returns all history entries, most recent first.
func (s *Service) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, title, service, rating, genre, runtime, year, imdb_id, poster_url, checked_at
		FROM history ORDER BY checked_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		var entry Entry
		var title, rating, genre, runtime, year, imdbID, posterURL sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Input, &title, &entry.Service,
			&rating, &genre, &runtime, &year, &imdbID, &posterURL, &entry.CheckedAt); err != nil {
			return nil, err
		}
		entry.Title = title.String
		entry.Rating = rating.String
		entry.Genre = genre.String
		entry.Runtime = runtime.String
		entry.Year = year.String
		entry.ImdbID = imdbID.String
		entry.PosterURL = posterURL.String
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Delete removes a single entry by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	return err
}

// Clear removes all history entries.
func (s *Service) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
