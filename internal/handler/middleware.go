package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Shivanand-hulikatti/spot-booking/internal/apperrors"
	"github.com/Shivanand-hulikatti/spot-booking/internal/metrics"
)

// Identity headers set by the conversation frontend.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUsername = "X-Username"
)

type ctxKey int

const ctxUserID ctxKey = 0

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxUserID).(int64)
	return id
}

// RequireUser rejects requests without a valid X-User-ID header and stores
// the id in the request context.
func RequireUser(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
			if err != nil || id <= 0 {
				writeError(w, r, log, apperrors.Unauthorized("X-User-ID header is required"))
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks the bearer token with gate.
func RequireAdmin(gate Gate, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, r, log, apperrors.Unauthorized("bearer token required"))
				return
			}
			id, err := gate.Authorize(r.Context(), token)
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			log.Debug("admin request", zap.Int64("admin_id", id), zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter keeps one token bucket per caller, keyed by X-User-ID or the
// remote address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	log      *zap.Logger
}

// pruneThreshold is the map size at which idle callers are dropped.
const pruneThreshold = 4096

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests with the given burst per caller.
// A non-positive perSecond disables limiting. A burst below one is raised to
// one, since a zero bucket never admits a request.
func NewRateLimiter(perSecond float64, burst int, log *zap.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     10 * time.Minute,
		log:      log,
	}
}

func (rl *RateLimiter) get(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= pruneThreshold {
			rl.prune(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// prune forgets callers idle for longer than the idle window. rl.mu must be
// held.
func (rl *RateLimiter) prune(now time.Time) int {
	removed := 0
	for key, e := range rl.limiters {
		if now.Sub(e.lastSeen) > rl.idle {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Middleware answers 429 once a caller's bucket is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.get(callerKey(r), time.Now()).Allow() {
			writeError(w, r, rl.log, apperrors.RateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if id := r.Header.Get(HeaderUserID); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RequestLogger writes one structured line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("user_id", r.Header.Get(HeaderUserID)),
			)
		})
	}
}

// Instrument records request counts and latency by route pattern.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
