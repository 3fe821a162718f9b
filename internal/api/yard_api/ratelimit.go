package yard_api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// RateLimiter is a fixed-window counter; rediscache.RateLimiter implements it.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

const rateLimitedCode = "RATE_LIMITED"

func (a *YardAPI) rateLimit(window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.limiter == nil || a.perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := "yardbox:rl:" + clientIP(r)
			ok, count, err := a.limiter.Allow(r.Context(), key, a.perMinute, window)
			if err != nil {
				// лимитер недоступен, пропускаем запрос
				slog.Warn("rate limiter failed", "key", key, "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(a.perMinute, 10))
			remaining := a.perMinute - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests", Code: rateLimitedCode})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
