package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-pricing/internal/common"
	"github.com/noah-isme/checkout-pricing/internal/obs"
)

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	// Scope separates budgets, e.g. "quote" and "catalog", so browsing prices
	// does not consume the checkout allowance.
	Scope  string
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// ByClientIP keys requests on the caller address.
func ByClientIP(r *http.Request) string {
	return "ip:" + common.ClientIP(r)
}

func (c Config) bucket(r *http.Request) string {
	if c.Scope == "" {
		return c.Key(r)
	}
	return c.Scope + ":" + c.Key(r)
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// WithScope returns a copy of h drawing from a separate budget.
func (h Handler) WithScope(scope string) Handler {
	h.Config.Scope = scope
	return h
}

// Middleware rejects requests over the limit with a 429 envelope. Limiter
// failures let the request through.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Config.Key == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.bucket(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			} else {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("scope", h.Config.Scope).Msg("rate_limit_unavailable")
			}
			next.ServeHTTP(w, r)
			return
		}

		setLimitHeaders(w.Header(), max(h.Config.Max, 0), remaining, resetAt)
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		obs.RecordRateLimited(h.Config.Scope)
		zerolog.Ctx(r.Context()).Info().
			Str("scope", h.Config.Scope).
			Str("path", r.URL.Path).
			Time("reset_at", resetAt).
			Msg("rate_limited")
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(resetAt)))
		common.JSONFailure(w, http.StatusTooManyRequests, "Too many requests")
	})
}

func setLimitHeaders(headers http.Header, limit, remaining int, resetAt time.Time) {
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// retryAfterSeconds rounds up so clients never retry before the window resets.
func retryAfterSeconds(resetAt time.Time) int {
	wait := time.Until(resetAt).Seconds()
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait))
}
