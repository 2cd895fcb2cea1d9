package lookup

import "github.com/rs/zerolog"

// Pipeline checkpoint event names.
const (
	EventCacheHit      = "cache_hit"
	EventCacheMiss     = "cache_miss"
	EventScrapeStage   = "scrape_stage"
	EventProviderRetry = "provider_retry"
	EventNegativeCache = "negative_cached"
)

// Events receives notifications at pipeline checkpoints. Implementations
// must be safe for concurrent use and must not block.
type Events interface {
	Emit(event string, fields map[string]any)
}

// NopEvents discards all events.
type NopEvents struct{}

func (NopEvents) Emit(string, map[string]any) {}

// LogEvents writes pipeline events to a zerolog logger at debug level.
type LogEvents struct {
	Logger zerolog.Logger
}

func (e LogEvents) Emit(event string, fields map[string]any) {
	evt := e.Logger.Debug().Str("event", event)
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg("pipeline checkpoint")
}
