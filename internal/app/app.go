package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alphapie77/booklending-go/internal/api"
	"github.com/alphapie77/booklending-go/internal/audit"
	"github.com/alphapie77/booklending-go/internal/config"
	"github.com/alphapie77/booklending-go/internal/credentials"
	"github.com/alphapie77/booklending-go/internal/googlebooks"
	"github.com/alphapie77/booklending-go/internal/observability"
	"github.com/alphapie77/booklending-go/internal/session"
)

// App wires the API client, credential store, and session manager into a
// command-line front end for the book lending service.
type App struct {
	cfg     config.Config
	log     *slog.Logger
	client  *api.Client
	books   *googlebooks.Client
	store   credentials.Store
	session *session.Manager
	out     io.Writer
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLogger()

	store, err := credentials.NewStore(credentials.Config{
		Backend:     cfg.Credentials.Backend,
		FilePath:    cfg.Credentials.FilePath,
		DatabaseURL: cfg.Credentials.DatabaseURL,
		Redis: credentials.RedisConfig{
			Addr:     cfg.Credentials.Redis.Addr,
			Password: cfg.Credentials.Redis.Password,
			DB:       cfg.Credentials.Redis.DB,
			Prefix:   cfg.Credentials.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create credential store: %w", err)
	}

	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	mgr, err := session.New(client, store, session.Config{
		SessionTTL:    cfg.Session.TTL,
		CheckInterval: cfg.Session.CheckInterval,
		Logger:        logger,
		Audit:         audit.NewLogger(cfg.ActivityLogFile),
	})
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	client.SetOnUnauthorized(mgr.HandleUnauthorized)

	return &App{
		cfg:     cfg,
		log:     logger,
		client:  client,
		books:   googlebooks.New(cfg.GoogleBooksBaseURL),
		store:   store,
		session: mgr,
		out:     os.Stdout,
	}, nil
}

// Run restores any persisted session, keeps it under expiry watch for the
// duration of the command, and dispatches to the named subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.Close()

	if err := a.session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	a.session.StartWatch()

	if len(args) == 0 {
		a.printUsage()
		return fmt.Errorf("no command given")
	}
	return a.dispatch(ctx, args[0], args[1:])
}

func (a *App) Close() {
	a.session.Close()
	if closer, ok := a.store.(io.Closer); ok {
		_ = closer.Close()
	}
}
