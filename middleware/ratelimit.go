package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/upb/login-telemetry/utils"
	"go.uber.org/zap"
)

// RateLimiter admits at most limit requests per client IP per fixed
// one-minute window. Rejected requests never reach the pipeline.
type RateLimiter struct {
	limit  int
	logger *zap.Logger

	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter. A limit of zero disables throttling.
func NewRateLimiter(limit int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		logger:  logger,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Handler gates requests before they reach the core pipeline, returning a
// fixed 429 body on exceedance.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := utils.ClientIP(r)
		if !rl.allow(ip) {
			rl.logger.Warn("rate limit exceeded", zap.String("ip", ip))
			_ = utils.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, ok := rl.windows[ip]
	if !ok || now.Sub(win.start) >= time.Minute {
		rl.pruneLocked(now)
		rl.windows[ip] = &window{start: now, count: 1}
		return true
	}

	win.count++
	return win.count <= rl.limit
}

// pruneLocked drops expired windows so the map does not grow without bound.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if len(rl.windows) < 1024 {
		return
	}
	for ip, win := range rl.windows {
		if now.Sub(win.start) >= time.Minute {
			delete(rl.windows, ip)
		}
	}
}
