package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"airline-ops/airops/internal/constants"
	reqctx "airline-ops/airops/internal/context"
	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/notify"
)

// RateLimiter throttles mutating requests per browser client.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
	notifier *notify.Service
}

// NewRateLimiter allows rps requests per second per client, with bursts of
// up to burst. rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int, notifier *notify.Service) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		notifier: notifier,
	}
}

func (l *RateLimiter) getLimiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[client]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(l.rps, l.burst)
	l.limiters[client] = limiter
	return limiter
}

// Middleware rejects requests over the limit with 429. The rejection carries
// an error toast and leaves the page untouched.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rps <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		client := reqctx.GetClientID(r.Context())
		if client == "" {
			client = r.RemoteAddr
		}

		if !l.getLimiter(client).Allow() {
			logging.Warn("Rate limit exceeded", "client_id", client, "path", r.URL.Path)

			notify.NewTrigger().Toast(l.notifier.Error(constants.MsgRateLimited)).Apply(w)
			w.Header().Set("HX-Reswap", "none")
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
