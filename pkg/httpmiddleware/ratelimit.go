package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests a client may make per Window.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
	// Exempt requests bypass the limiter, e.g. orchestrator probes.
	Exempt func(*http.Request) bool
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// slidingWindow approximates a rolling count from two fixed windows: the
// previous window's count is weighted by how much of it still overlaps.
type slidingWindow struct {
	prev, curr float64
	start      time.Time
}

func (s *slidingWindow) take(now time.Time, limit int, size time.Duration) (remaining int, reset time.Time, ok bool) {
	switch elapsed := now.Sub(s.start); {
	case elapsed >= 2*size:
		s.prev, s.curr = 0, 0
		s.start = now.Truncate(size)
	case elapsed >= size:
		s.prev, s.curr = s.curr, 0
		s.start = s.start.Add(size)
	}

	overlap := max(0, 1-now.Sub(s.start).Seconds()/size.Seconds())
	count := s.prev*overlap + s.curr
	reset = s.start.Add(size)
	if count >= float64(limit) {
		return 0, reset, false
	}
	s.curr++
	return max(0, int(float64(limit)-count-1)), reset, true
}

type rateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	windows map[string]*slidingWindow
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &rateLimiter{cfg: cfg, windows: make(map[string]*slidingWindow)}
}

func (rl *rateLimiter) take(key string, now time.Time) (int, time.Time, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		w = &slidingWindow{start: now.Truncate(rl.cfg.Window)}
		rl.windows[key] = w
	}
	return w.take(now, rl.cfg.Max, rl.cfg.Window)
}

// evict drops windows that can no longer affect a decision.
func (rl *rateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.Sub(w.start) >= 2*rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}

// RateLimit limits each client to cfg.Max requests per sliding cfg.Window.
// Rejected requests get 429 with Retry-After and the API error envelope;
// every counted response carries X-RateLimit-* headers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newRateLimiter(cfg).middleware
}

// RateLimitWithCleanup is RateLimit plus a goroutine that evicts idle
// clients every two windows until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * rl.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.evict(rl.cfg.Now())
			}
		}
	}()
	return rl.middleware
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	limit := strconv.Itoa(rl.cfg.Max)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Exempt != nil && rl.cfg.Exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		key := rl.cfg.KeyFunc(r)
		now := rl.cfg.Now()
		remaining, reset, ok := rl.take(key, now)

		h := w.Header()
		h.Set("X-RateLimit-Limit", limit)
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if !ok {
			wait := max(0, reset.Sub(now))
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			zctx.From(r.Context()).Debug("Rate limit exceeded", zap.String("client", key))
			WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// PathPrefixes exempts requests whose path starts with any of prefixes.
func PathPrefixes(prefixes ...string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(r.URL.Path, p) {
				return true
			}
		}
		return false
	}
}
