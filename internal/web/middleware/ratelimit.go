package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Velocidex/ttlcache/v2"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/dataprep/internal/logging"
)

// visitorTTL drops limiters for clients idle this long.
const visitorTTL = 10 * time.Minute

// RateLimiter is a per-IP token bucket. Each client gets perMinute tokens
// per minute with bursts of the same size.
type RateLimiter struct {
	mu       sync.Mutex
	visitors *ttlcache.Cache
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per client IP.
func NewRateLimiter(perMinute int) *RateLimiter {
	visitors := ttlcache.NewCache()
	_ = visitors.SetTTL(visitorTTL)

	return &RateLimiter{
		visitors: visitors,
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    max(perMinute, 1),
	}
}

// limiter returns the bucket for ip, creating it on first sight.
func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, err := rl.visitors.Get(ip); err == nil {
		if l, ok := v.(*rate.Limiter); ok {
			return l
		}
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	_ = rl.visitors.Set(ip, l)
	return l
}

// Allow consumes one token for ip.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

// Close stops the visitor cache.
func (rl *RateLimiter) Close() error {
	return rl.visitors.Close()
}

// Handler rejects requests over the limit with 429.
// RemoteAddr must already be the client address (see TrustedRealIP).
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := rl.limiter(r.RemoteAddr)
		if !l.Allow() {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				"ip", r.RemoteAddr,
				"path", r.URL.Path,
			)
			retry := time.Duration(float64(time.Second) / float64(rl.limit))
			w.Header().Set("Retry-After", strconv.Itoa(max(int(retry.Seconds()), 1)))
			writeError(w, http.StatusTooManyRequests, "Too many requests", "RATE001")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// writeError writes the same JSON shape the handlers use for failures.
func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message, Message: message, Code: code})
}
