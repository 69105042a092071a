package bot_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/bot"
	"github.com/pkordes/eventer/internal/dates"
	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo/repotest"
	"github.com/pkordes/eventer/internal/service"
)

const team = "T1"

// Wednesday 2030-03-13; "friday" is 2030-03-15.
var now = time.Date(2030, time.March, 13, 9, 0, 0, 0, time.UTC)

type message struct {
	team, channel, user, text string
	blocks                    []slack.Block
}

// fakeChat is a hand-written test double for bot.Chat that records calls.
type fakeChat struct {
	mu        sync.Mutex
	public    []message
	ephemeral []message
	forms     []slack.ModalViewRequest
	triggers  []string
	homes     map[string]slack.HomeTabViewRequest
	err       error
}

var _ bot.Chat = (*fakeChat)(nil)

func newFakeChat() *fakeChat {
	return &fakeChat{homes: map[string]slack.HomeTabViewRequest{}}
}

func (f *fakeChat) PostPublic(_ context.Context, teamID, text string, blocks ...slack.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.public = append(f.public, message{team: teamID, text: text, blocks: blocks})
	return f.err
}

func (f *fakeChat) PostEphemeral(_ context.Context, teamID, channel, user, text string, blocks ...slack.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemeral = append(f.ephemeral, message{team: teamID, channel: channel, user: user, text: text, blocks: blocks})
	return f.err
}

func (f *fakeChat) OpenForm(_ context.Context, _ string, triggerID string, view slack.ModalViewRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms = append(f.forms, view)
	f.triggers = append(f.triggers, triggerID)
	return f.err
}

func (f *fakeChat) PublishHome(_ context.Context, _ string, user string, view slack.HomeTabViewRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.homes[user] = view
	return f.err
}

func (f *fakeChat) lastEphemeral() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ephemeral) == 0 {
		return ""
	}
	return f.ephemeral[len(f.ephemeral)-1].text
}

// fakePlaces is a hand-written test double for service.PlaceFinder.
type fakePlaces struct {
	places []domain.Place
	err    error
}

var _ service.PlaceFinder = (*fakePlaces)(nil)

func (f *fakePlaces) Search(context.Context, string) ([]domain.Place, error) { return f.places, f.err }

func (f *fakePlaces) Details(_ context.Context, id string) (domain.Place, error) {
	for _, p := range f.places {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Place{}, domain.ErrNotFound
}

// newEvents returns a real EventService over an in-memory store, with the
// clock fixed at now.
func newEvents(places service.PlaceFinder) *service.EventService {
	resolver := dates.NewResolver(dates.NewWhenParser(), time.UTC, func() time.Time { return now })
	return service.NewEventService(repotest.NewEventRepo(), resolver, places)
}

// newLogger returns a JSON logger writing into the returned buffer.
func newLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

// brokenEvents fails every call that is overridden and panics on the rest,
// because the embedded interface is nil.
type brokenEvents struct {
	bot.Events
	err error
}

func (b brokenEvents) List(context.Context, string) ([]domain.Event, error) { return nil, b.err }

func (b brokenEvents) FindByDay(context.Context, string, string) (domain.Event, error) {
	return domain.Event{}, b.err
}
