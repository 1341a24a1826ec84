package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/simonvc/bistroledger/internal/logger"
)

type userKey struct{}

func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// userFrom returns the authenticated caller, or "" for anonymous reads.
func userFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// requestLogger puts a request-scoped logger in the context and logs each
// completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := logger.L.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logger.ToContext(r.Context(), l)))
		l.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}

// authenticate resolves the caller from a bearer token, or from X-User-ID
// when no token secret is configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.tokens == nil {
			if u := strings.TrimSpace(r.Header.Get("X-User-ID")); u != "" {
				ctx = withUser(ctx, clean(u))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "authorization must be a bearer token")
			return
		}
		claims, err := s.tokens.Parse(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx = withUser(ctx, claims.Subject)
		ctx = logger.ToContext(ctx, logger.FromContext(ctx).With("user", claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser rejects anonymous callers and returns the user id.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := userFrom(r.Context())
	if u == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return u, true
}

type rateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = int(perSecond) + 1
	}
	return &rateLimiter{limit: rate.Limit(perSecond), burst: burst, visitors: make(map[string]*visitor)}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	// Forget clients idle for more than three minutes.
	if len(rl.visitors) > 1024 {
		for k, other := range rl.visitors {
			if now.Sub(other.lastSeen) > 3*time.Minute {
				delete(rl.visitors, k)
			}
		}
	}
	return v.limiter.Allow()
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.allow(host) {
			logger.FromContext(r.Context()).Warn("rate limit exceeded", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}
