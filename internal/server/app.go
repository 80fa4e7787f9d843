// Package server initializes and runs the account service: it opens the
// database, applies migrations, wires the services and serves HTTP until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/rest"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	mailer      mail.Sender
	userService *services.UserService
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	app, err := newApp(c, db, rm, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// newApp wires everything that sits on top of an open database.
func newApp(c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) (*App, error) {
	mailer, err := mail.New(mail.Config{
		Driver:               c.MailDriver,
		PostmarkServerToken:  c.PostmarkServerToken,
		PostmarkAccountToken: c.PostmarkAccountToken,
		KafkaBrokers:         c.KafkaBrokers,
		KafkaTopic:           c.KafkaTopic,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	us := services.NewUserService(
		dbx.NewSQLTransactor(db, nil),
		rm,
		auth.NewBcryptHasher(c.BcryptCost),
		mailer,
		c,
		logger,
	)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		mailer:      mailer,
		userService: us,
		registry:    registry,
		metrics:     metrics.New(registry),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(
		app.config.EndpointAddrHTTP,
		app.logger,
		app.userService,
		app.metrics,
		app.registry,
		app.config.ShutdownTimeout,
	)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and the mail sender.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if closer, ok := app.mailer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error(ctx, "mail close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

