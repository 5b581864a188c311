package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// fakeClock is a settable clock for the limiter.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func fromIP(path, ip string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.RemoteAddr = ip + ":40000"
	return r
}

func TestRateLimit_OverLimit(t *testing.T) {
	clock := newClock()
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute, Now: clock.Now})(okHandler())

	for i := range 2 {
		w := serve(h, fromIP("/api/products", "10.0.0.1"))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := serve(h, fromIP("/api/products", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"message":"rate limit exceeded"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, serve(h, fromIP("/api/products", "10.0.0.2")).Code,
		"clients are limited independently")
}

func TestRateLimit_SlidingWindow(t *testing.T) {
	clock := newClock()
	h := RateLimit(RateLimitConfig{Max: 4, Window: time.Minute, Now: clock.Now})(okHandler())

	for range 4 {
		require.Equal(t, http.StatusOK, serve(h, fromIP("/", "10.0.0.1")).Code)
	}

	// Halfway into the next window half of the previous count still applies.
	clock.Advance(90 * time.Second)
	w := serve(h, fromIP("/", "10.0.0.1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, http.StatusOK, serve(h, fromIP("/", "10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("/", "10.0.0.1")).Code)

	// Two idle windows reset the client.
	clock.Advance(3 * time.Minute)
	w = serve(h, fromIP("/", "10.0.0.1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_Exempt(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		Exempt: PathPrefixes("/livez", "/readyz"),
	})(okHandler())

	for range 3 {
		w := serve(h, fromIP("/readyz", "10.0.0.1"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusOK, serve(h, fromIP("/api/products", "10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("/api/products", "10.0.0.1")).Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("Authorization") },
	})(okHandler())

	withAuth := func(token string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", token)
		return r
	}
	assert.Equal(t, http.StatusOK, serve(h, withAuth("Bearer a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, withAuth("Bearer a")).Code)
	assert.Equal(t, http.StatusOK, serve(h, withAuth("Bearer b")).Code)
}

func TestRateLimiter_Evict(t *testing.T) {
	clock := newClock()
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute, Now: clock.Now})
	rl.take("a", clock.Now())
	clock.Advance(90 * time.Second)
	rl.take("b", clock.Now())

	clock.Advance(40 * time.Second)
	rl.evict(clock.Now())
	assert.NotContains(t, rl.windows, "a")
	assert.Contains(t, rl.windows, "b")
}

func TestClientIP(t *testing.T) {
	r := fromIP("/", "192.168.1.1")
	assert.Equal(t, "192.168.1.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	assert.Equal(t, "203.0.113.50", ClientIP(r))
}
