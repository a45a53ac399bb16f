package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	applog "kaslot/internal/log"
)

// Limiter bounds mutating requests per client address.
type Limiter struct {
	limiter *limiter.Limiter
	hits    int64
	// OnLimit, when set, is called for every rejected request.
	OnLimit func(r *http.Request)
}

// NewLimiter builds an in-memory limiter from a formatted rate such as
// "60-M" (60 per minute) or "5-S".
func NewLimiter(rate string) (*Limiter, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	return &Limiter{limiter: limiter.New(memory.NewStore(), r)}, nil
}

// Hits returns the number of rejected requests.
func (rl *Limiter) Hits() int64 {
	return atomic.LoadInt64(&rl.hits)
}

// Middleware limits POST requests. Other methods pass through untouched.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := extractIP(r)
			lctx, err := rl.limiter.Get(r.Context(), clientIP)
			if err != nil {
				// Fail open: the store is in memory and only errors on cancellation.
				applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
					ErrorContext(r.Context(), "Rate limiter lookup failed", applog.FieldError, err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				atomic.AddInt64(&rl.hits, 1)
				if rl.OnLimit != nil {
					rl.OnLimit(r)
				}
				retry := time.Until(time.Unix(lctx.Reset, 0))
				if retry < time.Second {
					retry = time.Second
				}
				applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
					WarnContext(r.Context(), "Rate limit exceeded",
						applog.FieldClientIP, clientIP,
						applog.FieldMethod, r.Method,
						applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
				http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
