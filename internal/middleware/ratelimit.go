package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// fixedWindow counts requests for a single key inside the current window.
type fixedWindow struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// RateLimiter enforces a fixed-window request count per API key. Each
// key's counter is only ever touched by requests carrying that key, but a
// lock still guards it since handlers run on arbitrary goroutines.
type RateLimiter struct {
	mu      sync.RWMutex
	windows map[string]*fixedWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*fixedWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}

	// Drop windows that have long since expired
	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) getWindow(key string) *fixedWindow {
	rl.mu.RLock()
	fw, exists := rl.windows[key]
	rl.mu.RUnlock()

	if exists {
		return fw
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if fw, exists := rl.windows[key]; exists {
		return fw
	}

	fw = &fixedWindow{windowStart: rl.now()}
	rl.windows[key] = fw
	return fw
}

// Allow reports whether the key may make another request in the current
// window. The counter resets once the window elapses.
func (rl *RateLimiter) Allow(key string) bool {
	fw := rl.getWindow(key)

	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := rl.now()
	if now.Sub(fw.windowStart) >= rl.window {
		fw.windowStart = now
		fw.count = 0
	}
	if fw.count >= rl.limit {
		return false
	}
	fw.count++
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, fw := range rl.windows {
			fw.mu.Lock()
			if now.Sub(fw.windowStart) > 10*rl.window {
				delete(rl.windows, key)
			}
			fw.mu.Unlock()
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware rejects over-limit requests with 429.
// limit: max requests per key per window.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := APIKeyFromContext(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}

			if !limiter.Allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
