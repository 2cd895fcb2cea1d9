package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwise/streamwise/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(testutil.NewTestDB(t), zerolog.Nop())
}

func TestSaveAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Save(ctx, SaveInput{
		Input:   "https://www.netflix.com/title/82177711",
		Title:   "Wednesday",
		Service: "netflix",
		Rating:  "8.5",
		Genre:   "Comedy, Sci-Fi & Fantasy",
		Year:    "2022",
		ImdbID:  "tt13443470",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "Wednesday", entries[0].Title)
	assert.Equal(t, "8.5", entries[0].Rating)
	assert.Equal(t, "tt13443470", entries[0].ImdbID)
}

func TestSave_DedupByTitle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, SaveInput{Input: "wednesday", Title: "Wednesday", Service: "manual"})
	require.NoError(t, err)

	_, err = svc.Save(ctx, SaveInput{Input: "other entry", Title: "Other", Service: "manual"})
	require.NoError(t, err)

	// Same title, different casing and input: refreshes the existing row.
	second, err := svc.Save(ctx, SaveInput{
		Input:   "https://www.netflix.com/title/82177711",
		Title:   "WEDNESDAY",
		Service: "netflix",
		Rating:  "8.5",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// The refreshed entry moved to the front with its updated fields.
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, "WEDNESDAY", entries[0].Title)
	assert.Equal(t, "netflix", entries[0].Service)
	assert.Equal(t, "8.5", entries[0].Rating)
}

func TestSave_DedupByNormalizedInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Untitled failures of equivalent links collapse into one row.
	first, err := svc.Save(ctx, SaveInput{Input: "https://www.netflix.com/us/title/81040344", Service: "netflix"})
	require.NoError(t, err)

	second, err := svc.Save(ctx, SaveInput{Input: "https://www.netflix.com/title/81040344?trkid=123", Service: "netflix"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_PrunesBeyondCap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < maxEntries+10; i++ {
		_, err := svc.Save(ctx, SaveInput{
			Input:   fmt.Sprintf("title %d", i),
			Title:   fmt.Sprintf("Title %d", i),
			Service: "manual",
		})
		require.NoError(t, err)
	}

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, maxEntries)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Save(ctx, SaveInput{Input: "dark", Title: "Dark", Service: "manual"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, SaveInput{Input: "ozark", Title: "Ozark", Service: "manual"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, entry.ID))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ozark", entries[0].Title)
}

func TestClear(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, SaveInput{Input: "dark", Title: "Dark", Service: "manual"})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDedupKey(t *testing.T) {
	tests := []struct {
		name  string
		title string
		input string
		want  string
	}{
		{"title wins", "Wednesday", "some input", "wednesday"},
		{"title lowercased", "The CROWN", "x", "the crown"},
		{"falls back to normalized link", "", "https://www.netflix.com/us/title/123?trkid=1", "https://www.netflix.com/title/123"},
		{"plain text input", "", "Dark", "dark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupKey(tt.title, tt.input))
		})
	}
}
