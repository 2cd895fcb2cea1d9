// Package ratelimit enforces a simple per-client request ceiling on the
// lookup API.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxRequests = 100
	DefaultWindow      = 15 * time.Minute

	cleanupInterval = time.Minute
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out a token-bucket limiter per client IP, sized so a client
// gets maxRequests per window. A background sweep evicts entries idle for a
// full window so the map stays bounded by the active client set.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry

	rate  rate.Limit
	burst int
	idle  time.Duration
}

// NewLimiter creates a limiter with the given ceiling. Zero values fall back
// to the defaults.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		clients: make(map[string]*clientEntry),
		rate:    rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		idle:    window,
	}
	go l.cleanup()
	return l
}

// Middleware rejects requests past the per-IP ceiling with 429.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					"Too many requests from this IP, please try again later.")
			}
			return next(c)
		}
	}
}

// Allow reports whether one more request from this client fits its budget.
func (l *Limiter) Allow(ip string) bool {
	return l.limiterFor(ip).Allow()
}

// limiterFor returns the client's limiter, creating one on first sight.
func (l *Limiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[ip]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanup periodically sweeps idle clients.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		l.evictIdle(time.Now())
	}
}

// evictIdle drops entries not seen for a full window.
func (l *Limiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.clients, ip)
		}
	}
}
