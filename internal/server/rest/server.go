// Package rest exposes the account API over HTTP using chi.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// UserService is the business API the handlers drive.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Authenticate(ctx context.Context, key string) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, patch services.ProfilePatch) (*models.User, error)
	Logout(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, in services.ForgotPasswordInput) (string, error)
	ResetPassword(ctx context.Context, in services.ResetPasswordInput) error
}

type HTTPServer struct {
	address         string
	users           UserService
	logger          logging.Logger
	metrics         *metrics.Metrics
	gatherer        prometheus.Gatherer
	shutdownTimeout time.Duration
}

func NewHTTPServer(
	address string,
	l logging.Logger,
	us UserService,
	m *metrics.Metrics,
	g prometheus.Gatherer,
	shutdownTimeout time.Duration,
) *HTTPServer {
	return &HTTPServer{
		address:         address,
		users:           us,
		logger:          l.With("module", "http_server"),
		metrics:         m,
		gatherer:        g,
		shutdownTimeout: shutdownTimeout,
	}
}

// Router builds the route tree. Paths keep their trailing slash.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register/", s.register)
		r.Post("/login/", s.login)
		r.Post("/forgot/", s.forgotPassword)
		r.Post("/reset/", s.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/user/", s.getProfile)
			r.Patch("/user/", s.updateProfile)
			r.Post("/logout/", s.logout)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
