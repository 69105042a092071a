package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/pkordes/eventer/internal/bot"
	"github.com/pkordes/eventer/internal/config"
	"github.com/pkordes/eventer/internal/dates"
	"github.com/pkordes/eventer/internal/handler"
	"github.com/pkordes/eventer/internal/places"
	"github.com/pkordes/eventer/internal/repo"
	"github.com/pkordes/eventer/internal/service"
	"github.com/pkordes/eventer/internal/slackbot"
	"github.com/pkordes/eventer/migrations"
)

// app holds the long-lived dependencies shared by the subcommands.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	pool     *pgxpool.Pool
	installs repo.InstallationRepo
	states   repo.OAuthStateRepo
	events   *service.EventService
	notifier *slackbot.Notifier
}

// newApp connects to the database and builds the services.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	// A nil *places.Client must not end up inside the interface.
	var finder service.PlaceFinder
	if cfg.PlacesAPIKey != "" {
		client, err := places.NewClient(cfg.PlacesAPIKey)
		if err != nil {
			pool.Close()
			return nil, err
		}
		finder = client
	}

	installs := repo.NewInstallationRepo(pool)
	resolver := dates.NewResolver(dates.NewWhenParser(), cfg.Timezone, nil)

	return &app{
		cfg:      cfg,
		log:      logger,
		pool:     pool,
		installs: installs,
		states:   repo.NewOAuthStateRepo(pool),
		events: service.NewEventService(repo.NewEventRepo(pool), resolver, finder,
			service.WithDefaultTime(cfg.DefaultEventTime), service.WithLogger(logger)),
		notifier: slackbot.NewNotifier(installs, cfg.SlackBotToken, cfg.SlackChannelName),
	}, nil
}

func (a *app) close() { a.pool.Close() }

func (a *app) botOptions() []bot.Option {
	return []bot.Option{bot.WithLogger(a.log), bot.WithDefaultTime(a.cfg.DefaultEventTime)}
}

func (a *app) reminder() *bot.Reminder {
	var extra []string
	if a.cfg.SlackTeamID != "" {
		extra = append(extra, a.cfg.SlackTeamID)
	}
	return bot.NewReminder(a.events, a.notifier, a.installs, extra, a.botOptions()...)
}

// server assembles the HTTP surface.
func (a *app) server() *handler.Server {
	opts := []handler.Option{
		handler.WithLogger(a.log),
		handler.WithHealthCheck(a.pool),
		handler.WithInstallations(a.installs),
		handler.WithMaxBodyBytes(a.cfg.MaxBodyBytes),
	}
	if a.cfg.RemindToken != "" {
		opts = append(opts, handler.WithReminder(a.reminder(), a.cfg.RemindToken))
	}
	if a.cfg.InstallEnabled() {
		opts = append(opts, handler.WithInstaller(handler.NewInstaller(
			a.cfg.SlackClientID, a.cfg.SlackClientSecret, a.cfg.SlackRedirectURL,
			a.states, a.installs, a.cfg.OAuthStateTTL, handler.WithInstallLogger(a.log))))
	}

	return handler.NewServer(
		bot.NewDispatcher(a.events, a.notifier, a.botOptions()...),
		bot.NewRouter(a.events, a.notifier, a.botOptions()...),
		a.cfg.SlackSigningSecret,
		opts...,
	)
}

// openMigrations opens a database/sql handle for goose, which does not
// speak pgx natively.
func openMigrations(databaseURL string) (*sql.DB, *goose.Provider, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create goose provider: %w", err)
	}
	return db, provider, nil
}
