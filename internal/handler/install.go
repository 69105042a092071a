package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/slack-go/slack"
	"golang.org/x/oauth2"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
)

// BotScopes are the bot token scopes requested on install.
var BotScopes = []string{"commands", "chat:write", "channels:read"}

// SlackEndpoint is Slack's OAuth v2 endpoint.
var SlackEndpoint = oauth2.Endpoint{
	AuthURL:  "https://slack.com/oauth/v2/authorize",
	TokenURL: "https://slack.com/api/oauth.v2.access",
}

// Installer runs the "Add to Slack" flow: /slack/install redirects to Slack
// with a one-time state, and /slack/oauth/callback exchanges the code for a
// bot token and stores it.
type Installer struct {
	oauth      oauth2.Config
	states     repo.OAuthStateRepo
	installs   repo.InstallationRepo
	stateTTL   time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithInstallHTTPClient sets the client used for the code exchange.
func WithInstallHTTPClient(c *http.Client) InstallerOption {
	return func(i *Installer) { i.httpClient = c }
}

// WithInstallLogger sets the logger. The default is slog.Default().
func WithInstallLogger(l *slog.Logger) InstallerOption {
	return func(i *Installer) { i.log = l }
}

// NewInstaller constructs an Installer for the given app credentials.
func NewInstaller(clientID, clientSecret, redirectURL string, states repo.OAuthStateRepo, installs repo.InstallationRepo, stateTTL time.Duration, opts ...InstallerOption) *Installer {
	i := &Installer{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     SlackEndpoint,
		},
		states:     states,
		installs:   installs,
		stateTTL:   stateTTL,
		httpClient: http.DefaultClient,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// start handles GET /slack/install.
func (i *Installer) start(w http.ResponseWriter, r *http.Request) {
	state, err := gonanoid.New()
	if err != nil {
		i.log.ErrorContext(r.Context(), "generate oauth state failed", "op", "install", "error", err)
		writeError(w, i.log, http.StatusInternalServerError, "internal", "could not start the installation")
		return
	}
	if err := i.states.Issue(r.Context(), state, i.stateTTL); err != nil {
		i.log.ErrorContext(r.Context(), "store oauth state failed", "op", "install", "error", err)
		writeError(w, i.log, http.StatusInternalServerError, "internal", "could not start the installation")
		return
	}

	// Slack wants comma separated scopes; oauth2.Config.Scopes joins with spaces.
	url := i.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("scope", strings.Join(BotScopes, ",")))
	http.Redirect(w, r, url, http.StatusFound)
}

// callback handles GET /slack/oauth/callback.
func (i *Installer) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		i.log.InfoContext(r.Context(), "installation cancelled", "op", "install", "reason", e)
		badRequest(w, i.log, "the installation was cancelled")
		return
	}

	ok, err := i.states.Consume(r.Context(), q.Get("state"))
	if err != nil {
		i.log.ErrorContext(r.Context(), "consume oauth state failed", "op", "install", "error", err)
		writeError(w, i.log, http.StatusInternalServerError, "internal", "could not finish the installation")
		return
	}
	if !ok {
		badRequest(w, i.log, "this install link is invalid or has expired, please start again")
		return
	}

	code := q.Get("code")
	if code == "" {
		badRequest(w, i.log, "missing code")
		return
	}

	resp, err := slack.GetOAuthV2ResponseContext(r.Context(), i.httpClient,
		i.oauth.ClientID, i.oauth.ClientSecret, code, i.oauth.RedirectURL)
	if err != nil {
		i.log.ErrorContext(r.Context(), "oauth code exchange failed", "op", "install", "error", err)
		writeError(w, i.log, http.StatusBadGateway, "exchange_failed", "Slack did not accept the installation")
		return
	}

	inst, err := i.installs.Save(r.Context(), domain.Installation{
		TeamID:    resp.Team.ID,
		TeamName:  resp.Team.Name,
		BotToken:  resp.AccessToken,
		BotUserID: resp.BotUserID,
	})
	if err != nil {
		i.log.ErrorContext(r.Context(), "save installation failed", "team", resp.Team.ID, "op", "install", "error", err)
		writeError(w, i.log, http.StatusInternalServerError, "internal", "could not finish the installation")
		return
	}

	i.log.InfoContext(r.Context(), "app installed", "team", inst.TeamID, "team_name", inst.TeamName)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Eventer is installed in " + inst.TeamName + ". Type /eventer in any channel to get started."))
}
