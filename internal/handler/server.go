// Package handler implements the HTTP endpoints Slack calls: slash commands,
// interactive components and the Events API, plus the install flow, the
// reminder trigger and the health check. Handlers only decode requests and
// encode replies; everything else happens in package bot.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/bot"
	"github.com/pkordes/eventer/internal/middleware"
	"github.com/pkordes/eventer/internal/repo"
)

// CommandDispatcher answers slash commands. Implemented by *bot.Dispatcher.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, cmd bot.Command) bot.Response
}

// InteractionHandler handles interactive payloads and App Home opens.
// Implemented by *bot.Router.
type InteractionHandler interface {
	Handle(ctx context.Context, cb slack.InteractionCallback) any
	HomeOpened(ctx context.Context, teamID, user string)
}

// ReminderRunner posts today's reminders. Implemented by *bot.Reminder.
type ReminderRunner interface {
	RemindAll(ctx context.Context) (bot.RemindStats, error)
}

// Pinger reports whether the database is reachable. Implemented by
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ CommandDispatcher  = (*bot.Dispatcher)(nil)
	_ InteractionHandler = (*bot.Router)(nil)
	_ ReminderRunner     = (*bot.Reminder)(nil)
)

// Server holds the dependencies of every endpoint.
type Server struct {
	commands      CommandDispatcher
	interactions  InteractionHandler
	reminder      ReminderRunner
	installs      repo.InstallationRepo
	installer     *Installer
	db            Pinger
	log           *slog.Logger
	signingSecret string
	remindToken   string
	maxBodyBytes  int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithReminder enables POST /tasks/remind, protected by token.
func WithReminder(r ReminderRunner, token string) Option {
	return func(s *Server) {
		s.reminder = r
		s.remindToken = token
	}
}

// WithInstaller enables the OAuth install routes.
func WithInstaller(i *Installer) Option {
	return func(s *Server) { s.installer = i }
}

// WithInstallations lets app_uninstalled events remove the stored token.
func WithInstallations(installs repo.InstallationRepo) Option {
	return func(s *Server) { s.installs = installs }
}

// WithHealthCheck makes /healthz ping the database.
func WithHealthCheck(db Pinger) Option {
	return func(s *Server) { s.db = db }
}

// WithMaxBodyBytes caps request bodies. The default is 1 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// NewServer constructs the Server with all its dependencies.
func NewServer(commands CommandDispatcher, interactions InteractionHandler, signingSecret string, opts ...Option) *Server {
	s := &Server{
		commands:      commands,
		interactions:  interactions,
		signingSecret: signingSecret,
		log:           slog.Default(),
		maxBodyBytes:  1 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes mounts every endpoint on a chi router. Cross-cutting middleware
// (request ids, request logging, panic recovery, timeouts) is the caller's
// to add around it.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewMaxBodySizeHandler(s.maxBodyBytes))

	r.Get("/healthz", s.health)

	r.Route("/slack", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSlackVerifier(s.signingSecret, s.log))
			r.Post("/commands", s.slashCommand)
			r.Post("/interactions", s.interaction)
			r.Post("/events", s.event)
		})
		if s.installer != nil {
			r.Get("/install", s.installer.start)
			r.Get("/oauth/callback", s.installer.callback)
		}
	})

	if s.reminder != nil {
		r.With(middleware.NewBearerTokenHandler(s.remindToken)).Post("/tasks/remind", s.remind)
	}
	return r
}
