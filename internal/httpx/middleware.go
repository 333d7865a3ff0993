package httpx

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ariefcatur/sellmate/internal/analytics"
	"github.com/ariefcatur/sellmate/internal/auth"
	"github.com/ariefcatur/sellmate/internal/logger"
	"github.com/ariefcatur/sellmate/internal/session"
)

// requestLogger attaches a request-scoped zap logger and logs each request.
func requestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			l := base.With(zap.String("request_id", reqID))
			ctx := logger.WithContext(r.Context(), l)
			ctx = analytics.WithTrace(ctx, reqID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			l.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type workspaceKey struct{}

func workspaceFrom(ctx context.Context) *session.Workspace {
	w, _ := ctx.Value(workspaceKey{}).(*session.Workspace)
	return w
}

// requireSession resolves the bearer token to a live workspace whose role is
// one of roles.
func requireSession(iss *auth.Issuer, reg *session.Registry, roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeMessage(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := iss.Parse(raw)
			if err != nil {
				writeError(w, r, err)
				return
			}
			ws, err := reg.Get(claims.SessionID())
			if err != nil {
				writeError(w, r, err)
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, ws.Role) {
				writeMessage(w, http.StatusForbidden, "forbidden")
				return
			}
			ctx := context.WithValue(r.Context(), workspaceKey{}, ws)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("session", ws.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// limiter throttles form posts per client: the session when there is one,
// else the remote address.
type limiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

func newLimiter(rps float64, burst int) *limiter {
	if burst <= 0 {
		burst = 1
	}
	return &limiter{rps: rate.Limit(rps), burst: burst, clients: map[string]*rate.Limiter{}}
}

const maxClients = 10000

func (l *limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxClients {
			l.forgetLocked()
		}
		lim = rate.NewLimiter(l.rps, l.burst)
		l.clients[key] = lim
	}
	return lim
}

// forgetLocked drops clients whose bucket is full again.
func (l *limiter) forgetLocked() {
	for k, lim := range l.clients {
		if lim.Tokens() >= float64(l.burst) {
			delete(l.clients, k)
		}
	}
}

func (l *limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rps <= 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		key := clientKey(r)
		if !l.get(key).Allow() {
			w.Header().Set("Retry-After", "1")
			writeMessage(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if ws := workspaceFrom(r.Context()); ws != nil {
		return "s:" + ws.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
