package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// UserFromContext returns the user resolved by requireToken.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// bearerKey extracts the key from "Token <key>" or "Bearer <key>".
func bearerKey(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, common.TokenScheme) && !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

func (s *HTTPServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		key, ok := bearerKey(header)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Invalid token header.")
			return
		}

		user, err := s.users.Authenticate(r.Context(), key)
		if err != nil {
			if errors.Is(err, common.ErrInvalidToken) {
				writeDetail(w, http.StatusUnauthorized, "Invalid token.")
				return
			}
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// routeLabel returns the matched route pattern for metrics, keeping the
// trailing slash of the request path that chi drops from patterns.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return r.URL.Path
	}
	if strings.HasSuffix(r.URL.Path, "/") && !strings.HasSuffix(pattern, "/") {
		pattern += "/"
	}
	return pattern
}

// logRequests writes one line per request and records its latency. The
// request id is attached to the context so downstream log lines carry it.
func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(logging.ContextWith(r.Context(), "request_id", middleware.GetReqID(r.Context())))

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		s.metrics.ObserveRequest(routeLabel(r), r.Method, elapsed)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
		)
	})
}
