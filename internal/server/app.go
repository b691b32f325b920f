// Package server wires the blog server together: configuration, database,
// migrations, services, the HTTP router and background session cleanup,
// and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/blobstore"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/dmitrijs2005/gophblog/internal/server/web"
)

// seams for tests
var (
	openDB               = dbx.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newStorage           = blobstore.New
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	flashes *services.FlashService
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "token secret is the development default, set JWT_SECRET")
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	storage, err := newStorage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	renderer, err := web.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	tokens := auth.NewTokenService(c.SecretKey)
	flashes := services.NewFlashService(db, rm, c.SessionTTL)

	opts := web.RouterOptions{
		Users:        services.NewUserService(db, rm, tokens, c.BcryptCost),
		Posts:        services.NewPostService(db, rm, storage, c.PostsPerPage),
		Flashes:      flashes,
		Sessions:     web.NewSessions([]byte(c.SessionKey), c.SessionTTL, c.CookieSecure),
		Tokens:       tokens,
		Renderer:     renderer,
		Logger:       logger,
		CookieSecure: c.CookieSecure,
		HealthCheck:  db.PingContext,
	}
	if ls, ok := storage.(*blobstore.LocalStorage); ok {
		opts.UploadDir = ls.Dir()
		opts.UploadPrefix = c.UploadURLPrefix
	}

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		flashes: flashes,
		handler: web.NewRouter(opts),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := web.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger, app.config.ShutdownTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or the HTTP server
// fails, then closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.flashes.RunSweeper(ctx, app.config.SessionTTL/2, app.logger.With("module", "sweeper"))
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
