// Package slackbot talks to the Slack Web API on behalf of an installed team.
package slackbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
)

// ErrNoToken is returned when neither an installation nor a fallback bot
// token exists for a team.
var ErrNoToken = errors.New("no bot token for team")

// ErrChannelNotFound is returned by ChannelID when the configured channel
// name does not exist in the team.
var ErrChannelNotFound = errors.New("channel not found")

// Notifier sends messages and views to Slack. Each team is addressed with the
// bot token stored for its installation; a single-workspace deployment can
// instead configure one fallback token.
type Notifier struct {
	installs      repo.InstallationRepo
	fallbackToken string
	channelName   string
	apiURL        string
	httpClient    *http.Client

	mu       sync.Mutex
	channels map[string]string // team id -> channel id
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAPIURL points the client at a different Slack API base URL. The URL
// must end in a slash.
func WithAPIURL(u string) Option {
	return func(n *Notifier) { n.apiURL = u }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.httpClient = c }
}

// NewNotifier constructs a Notifier. installs may be nil when only the
// fallback token is used. channelName is the public channel for
// announcements, with or without a leading '#'.
func NewNotifier(installs repo.InstallationRepo, fallbackToken, channelName string, opts ...Option) *Notifier {
	n := &Notifier{
		installs:      installs,
		fallbackToken: fallbackToken,
		channelName:   strings.TrimPrefix(channelName, "#"),
		channels:      map[string]string{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// client returns an API client authorised for teamID.
func (n *Notifier) client(ctx context.Context, teamID string) (*slack.Client, error) {
	token := n.fallbackToken
	if n.installs != nil {
		inst, err := n.installs.Get(ctx, teamID)
		switch {
		case err == nil:
			token = inst.BotToken
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("load installation: %w", err)
		}
	}
	if token == "" {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNoToken)
	}

	var opts []slack.Option
	if n.apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(n.apiURL))
	}
	if n.httpClient != nil {
		opts = append(opts, slack.OptionHTTPClient(n.httpClient))
	}
	return slack.New(token, opts...), nil
}

// ChannelID resolves the announcement channel name to its id in teamID.
// Successful lookups are cached for the life of the Notifier.
func (n *Notifier) ChannelID(ctx context.Context, teamID string) (string, error) {
	n.mu.Lock()
	id, ok := n.channels[teamID]
	n.mu.Unlock()
	if ok {
		return id, nil
	}

	api, err := n.client(ctx, teamID)
	if err != nil {
		return "", fmt.Errorf("slackbot.Notifier.ChannelID: %w", err)
	}

	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           200,
		Types:           []string{"public_channel"},
	}
	for {
		channels, cursor, err := api.GetConversationsContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("slackbot.Notifier.ChannelID: %w", err)
		}
		for _, ch := range channels {
			if ch.Name == n.channelName {
				n.mu.Lock()
				n.channels[teamID] = ch.ID
				n.mu.Unlock()
				return ch.ID, nil
			}
		}
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}
	return "", fmt.Errorf("slackbot.Notifier.ChannelID: #%s: %w", n.channelName, ErrChannelNotFound)
}

// PostPublic posts to the team's announcement channel.
func (n *Notifier) PostPublic(ctx context.Context, teamID, text string, blocks ...slack.Block) error {
	channel, err := n.ChannelID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("slackbot.Notifier.PostPublic: %w", err)
	}
	api, err := n.client(ctx, teamID)
	if err != nil {
		return fmt.Errorf("slackbot.Notifier.PostPublic: %w", err)
	}
	if _, _, err := api.PostMessageContext(ctx, channel, messageOptions(text, blocks)...); err != nil {
		return fmt.Errorf("slackbot.Notifier.PostPublic: %w", err)
	}
	return nil
}

// PostEphemeral shows a message only user can see in channel.
func (n *Notifier) PostEphemeral(ctx context.Context, teamID, channel, user, text string, blocks ...slack.Block) error {
	api, err := n.client(ctx, teamID)
	if err != nil {
		return fmt.Errorf("slackbot.Notifier.PostEphemeral: %w", err)
	}
	if _, err := api.PostEphemeralContext(ctx, channel, user, messageOptions(text, blocks)...); err != nil {
		return fmt.Errorf("slackbot.Notifier.PostEphemeral: %w", err)
	}
	return nil
}

// OpenForm opens a modal in response to the interaction identified by triggerID.
func (n *Notifier) OpenForm(ctx context.Context, teamID, triggerID string, view slack.ModalViewRequest) error {
	api, err := n.client(ctx, teamID)
	if err != nil {
		return fmt.Errorf("slackbot.Notifier.OpenForm: %w", err)
	}
	if _, err := api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("slackbot.Notifier.OpenForm: %w", err)
	}
	return nil
}

// PublishHome replaces user's App Home tab with view.
func (n *Notifier) PublishHome(ctx context.Context, teamID, user string, view slack.HomeTabViewRequest) error {
	api, err := n.client(ctx, teamID)
	if err != nil {
		return fmt.Errorf("slackbot.Notifier.PublishHome: %w", err)
	}
	if _, err := api.PublishViewContext(ctx, user, view, ""); err != nil {
		return fmt.Errorf("slackbot.Notifier.PublishHome: %w", err)
	}
	return nil
}

func messageOptions(text string, blocks []slack.Block) []slack.MsgOption {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	return opts
}
