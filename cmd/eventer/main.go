// Package main is the entry point for the Eventer bot.
// One binary serves the Slack endpoints and runs the one-shot maintenance
// jobs. Its sole responsibility is wiring dependencies together; no business
// logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v2"

	"github.com/pkordes/eventer/internal/config"
	"github.com/pkordes/eventer/internal/middleware"
)

func main() {
	app := &cli.App{
		Name:  "eventer",
		Usage: "Plan team events from Slack.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			remindCommand(),
			cleanupStatesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("eventer failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the JSON logger as the default.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("configuration error: %w", err)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the Slack endpoints.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			// RequestID → RealIP → SlogLogger → Recoverer → Timeout.
			r := chi.NewRouter()
			r.Use(chimiddleware.RequestID)
			r.Use(chimiddleware.RealIP)
			r.Use(middleware.NewSlogLogger(logger))
			r.Use(chimiddleware.Recoverer)
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
			r.Mount("/", a.server().Routes())

			srv := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      r,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: cfg.RequestTimeout + 5*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Info("server starting", "addr", srv.Addr, "install_enabled", cfg.InstallEnabled(), "places_enabled", cfg.PlacesAPIKey != "")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
			}
			logger.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	run := func(do func(ctx context.Context, p *goose.Provider, c *cli.Context) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			db, provider, err := openMigrations(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			return do(c.Context, provider, c)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema.",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations.",
				Action: run(func(ctx context.Context, p *goose.Provider, c *cli.Context) error {
					results, err := p.Up(ctx)
					if err != nil {
						return fmt.Errorf("migrate up: %w", err)
					}
					for _, r := range results {
						fmt.Fprintf(c.App.Writer, "applied %s (%s)\n", filepath.Base(r.Source.Path), r.Duration.Round(time.Millisecond))
					}
					if len(results) == 0 {
						fmt.Fprintln(c.App.Writer, "nothing to apply")
					}
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration.",
				Action: run(func(ctx context.Context, p *goose.Provider, c *cli.Context) error {
					r, err := p.Down(ctx)
					if err != nil {
						return fmt.Errorf("migrate down: %w", err)
					}
					fmt.Fprintf(c.App.Writer, "rolled back %s\n", filepath.Base(r.Source.Path))
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "List migrations and whether they are applied.",
				Action: run(func(ctx context.Context, p *goose.Provider, c *cli.Context) error {
					statuses, err := p.Status(ctx)
					if err != nil {
						return fmt.Errorf("migrate status: %w", err)
					}
					for _, s := range statuses {
						fmt.Fprintf(c.App.Writer, "%-8s %s\n", s.State, filepath.Base(s.Source.Path))
					}
					return nil
				}),
			},
		},
	}
}

func remindCommand() *cli.Command {
	return &cli.Command{
		Name:  "remind",
		Usage: "Post today's event reminder to every installed team.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.reminder().RemindAll(c.Context)
			fmt.Fprintf(c.App.Writer, "sent %d reminder(s), %d failed\n", stats.Sent, stats.Failed)
			return err
		},
	}
}

func cleanupStatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup-states",
		Usage: "Delete expired install links.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.states.DeleteExpired(c.Context)
			if err != nil {
				return fmt.Errorf("cleanup-states: %w", err)
			}
			logger.Info("expired oauth states deleted", "count", n)
			return nil
		},
	}
}
