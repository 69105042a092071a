// Package bot turns slash commands and interactive component payloads into
// event operations and Block Kit replies. Dispatcher handles the text
// commands, Router the button clicks, form submissions and App Home; both
// funnel into the same operations below.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/service"
)

// Events is the subset of service.EventService the bot needs.
type Events interface {
	Create(ctx context.Context, in service.CreateInput) (domain.Event, error)
	ResolveDay(day string) (time.Time, error)
	List(ctx context.Context, teamID string) ([]domain.Event, error)
	FindByDay(ctx context.Context, teamID, day string) (domain.Event, error)
	Today(ctx context.Context, teamID string) (domain.Event, error)
	Join(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error)
	Leave(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error)
	Delete(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, error)
	Suggest(ctx context.Context, query string) ([]domain.Place, error)
	SuggestDetailed(ctx context.Context, query string) ([]domain.Place, error)
}

var _ Events = (*service.EventService)(nil)

// Chat sends messages and views to the workspace.
type Chat interface {
	PostPublic(ctx context.Context, teamID, text string, blocks ...slack.Block) error
	PostEphemeral(ctx context.Context, teamID, channel, user, text string, blocks ...slack.Block) error
	OpenForm(ctx context.Context, teamID, triggerID string, view slack.ModalViewRequest) error
	PublishHome(ctx context.Context, teamID, user string, view slack.HomeTabViewRequest) error
}

// Response is a reply shown only to the user who asked.
type Response struct {
	Text   string
	Blocks []slack.Block
}

func reply(s string) Response { return Response{Text: s} }

// caller identifies who triggered an operation, for replies and logs.
type caller struct {
	team    string
	user    string
	channel string
}

// core holds the operations shared by Dispatcher and Router.
type core struct {
	events      Events
	chat        Chat
	log         *slog.Logger
	defaultTime string
}

// Option configures a Dispatcher, Router or Reminder.
type Option func(*core)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *core) { c.log = l }
}

// WithDefaultTime sets the time prefilled in the create form.
func WithDefaultTime(hhmm string) Option {
	return func(c *core) { c.defaultTime = hhmm }
}

func newCore(events Events, chat Chat, opts []Option) core {
	c := core{events: events, chat: chat, log: slog.Default(), defaultTime: service.DefaultEventTime}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// join adds the caller to the event and returns the reply text. Only
// unexpected failures come back as errors.
func (c *core) join(ctx context.Context, who caller, id uuid.UUID) (string, error) {
	_, changed, err := c.events.Join(ctx, who.team, id, who.user)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return msgNoEventThatDay, nil
	case err != nil:
		return "", err
	case !changed:
		return msgAlreadyJoined, nil
	}
	return msgJoined, nil
}

func (c *core) leave(ctx context.Context, who caller, id uuid.UUID) (string, error) {
	_, changed, err := c.events.Leave(ctx, who.team, id, who.user)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return msgNoEventThatDay, nil
	case err != nil:
		return "", err
	case !changed:
		return msgNotJoined, nil
	}
	return msgLeft, nil
}

// remove deletes the event if the caller wrote it and tells the channel.
func (c *core) remove(ctx context.Context, who caller, id uuid.UUID) (string, error) {
	deleted, err := c.events.Delete(ctx, who.team, id, who.user)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return msgNoEventThatDay, nil
	case errors.Is(err, domain.ErrNotAuthor):
		return msgNotAuthor, nil
	case err != nil:
		return "", err
	}

	summary := eventSummary(deleted)
	c.announce(ctx, who, "delete", msgEventDeleted+summary, slack.NewSectionBlock(mrkdwn(msgEventDeleted+summary), nil, nil), footer())
	return msgDeletedPrefix + summary, nil
}

// announce posts to the public channel. A failed announcement is logged and
// does not fail the operation that triggered it.
func (c *core) announce(ctx context.Context, who caller, op, text string, blocks ...slack.Block) {
	if err := c.chat.PostPublic(ctx, who.team, text, blocks...); err != nil {
		c.log.ErrorContext(ctx, "public announcement failed",
			"team", who.team, "user", who.user, "op", op, "error", err)
	}
}

// createErrorText maps an expected Create failure to its reply. ok is false
// for failures that are not the user's fault.
func createErrorText(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return msgOccupied, true
	case errors.Is(err, domain.ErrPastDate):
		return msgPastDate, true
	case errors.Is(err, domain.ErrInvalidTime):
		return msgBadTime, true
	case errors.Is(err, domain.ErrValidation):
		return msgBadDay, true
	}
	return "", false
}

// refreshHome republishes the caller's App Home. Failures are logged only.
func (c *core) refreshHome(ctx context.Context, who caller) {
	events, err := c.events.List(ctx, who.team)
	if err != nil {
		c.log.ErrorContext(ctx, "home refresh: list events failed", "team", who.team, "user", who.user, "error", err)
		return
	}
	if err := c.chat.PublishHome(ctx, who.team, who.user, homeView(events, who.user)); err != nil {
		c.log.ErrorContext(ctx, "home refresh: publish failed", "team", who.team, "user", who.user, "error", err)
	}
}
