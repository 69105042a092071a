package slackbot_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo/repotest"
	"github.com/pkordes/eventer/internal/slackbot"
)

// fakeSlack records the API calls it receives.
type fakeSlack struct {
	mu        sync.Mutex
	calls     []string
	forms     map[string]string // method -> raw body
	tokens    map[string]string // method -> where the token may appear
	listCalls atomic.Int32
}

func newFakeSlack(t *testing.T) (*fakeSlack, *httptest.Server) {
	t.Helper()
	f := &fakeSlack{forms: map[string]string{}, tokens: map[string]string{}}

	mux := http.NewServeMux()
	record := func(method string, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, method)
		f.forms[method] = string(body)
		// Form endpoints carry the token in the body, JSON ones in the header.
		f.tokens[method] = r.Header.Get("Authorization") + " " + string(body)
	}
	reply := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}

	mux.HandleFunc("/conversations.list", func(w http.ResponseWriter, r *http.Request) {
		record("conversations.list", r)
		// Two pages: the wanted channel is on the second one.
		if f.listCalls.Add(1)%2 == 1 {
			reply(w, `{"ok":true,"channels":[{"id":"C0","name":"random"}],"response_metadata":{"next_cursor":"page2"}}`)
			return
		}
		reply(w, `{"ok":true,"channels":[{"id":"C1","name":"general"}],"response_metadata":{"next_cursor":""}}`)
	})
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		record("chat.postMessage", r)
		reply(w, `{"ok":true,"channel":"C1","ts":"1.0"}`)
	})
	mux.HandleFunc("/chat.postEphemeral", func(w http.ResponseWriter, r *http.Request) {
		record("chat.postEphemeral", r)
		reply(w, `{"ok":true,"message_ts":"1.0"}`)
	})
	mux.HandleFunc("/views.open", func(w http.ResponseWriter, r *http.Request) {
		record("views.open", r)
		reply(w, `{"ok":true,"view":{"id":"V1"}}`)
	})
	mux.HandleFunc("/views.publish", func(w http.ResponseWriter, r *http.Request) {
		record("views.publish", r)
		reply(w, `{"ok":true,"view":{"id":"V2"}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSlack) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeSlack) body(method string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[method]
}

func (f *fakeSlack) token(method string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[method]
}

func TestNotifier_ChannelID_PaginatesAndCaches(t *testing.T) {
	f, srv := newFakeSlack(t)
	n := slackbot.NewNotifier(nil, "xoxb-fallback", "#general", slackbot.WithAPIURL(srv.URL+"/"))
	ctx := context.Background()

	id, err := n.ChannelID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "C1", id)
	assert.Equal(t, 2, f.count("conversations.list"))

	id, err = n.ChannelID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "C1", id)
	assert.Equal(t, 2, f.count("conversations.list"), "second lookup is served from cache")
}

func TestNotifier_ChannelID_NotFound(t *testing.T) {
	_, srv := newFakeSlack(t)
	n := slackbot.NewNotifier(nil, "xoxb-fallback", "events", slackbot.WithAPIURL(srv.URL+"/"))

	_, err := n.ChannelID(context.Background(), "T1")

	assert.ErrorIs(t, err, slackbot.ErrChannelNotFound)
}

func TestNotifier_PostPublic(t *testing.T) {
	f, srv := newFakeSlack(t)
	n := slackbot.NewNotifier(nil, "xoxb-fallback", "general", slackbot.WithAPIURL(srv.URL+"/"))

	err := n.PostPublic(context.Background(), "T1", "A new event was created!",
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*Friday*", false, false), nil, nil))

	require.NoError(t, err)
	body := f.body("chat.postMessage")
	assert.Contains(t, body, "channel=C1")
	assert.Contains(t, body, "A+new+event+was+created")
	assert.Contains(t, body, "blocks=")
}

func TestNotifier_UsesInstallationToken(t *testing.T) {
	f, srv := newFakeSlack(t)
	installs := repotest.NewInstallationRepo(domain.Installation{TeamID: "T1", BotToken: "xoxb-team"})
	n := slackbot.NewNotifier(installs, "xoxb-fallback", "general", slackbot.WithAPIURL(srv.URL+"/"))
	ctx := context.Background()

	require.NoError(t, n.PostEphemeral(ctx, "T1", "C9", "U1", "only you"))
	assert.Contains(t, f.token("chat.postEphemeral"), "xoxb-team")

	require.NoError(t, n.PostEphemeral(ctx, "T2", "C9", "U1", "only you"))
	assert.Contains(t, f.token("chat.postEphemeral"), "xoxb-fallback", "unknown team falls back")
	assert.NotContains(t, f.token("chat.postEphemeral"), "xoxb-team")
}

func TestNotifier_NoToken(t *testing.T) {
	_, srv := newFakeSlack(t)
	n := slackbot.NewNotifier(repotest.NewInstallationRepo(), "", "general", slackbot.WithAPIURL(srv.URL+"/"))

	err := n.PostEphemeral(context.Background(), "T1", "C1", "U1", "hi")

	assert.ErrorIs(t, err, slackbot.ErrNoToken)
}

func TestNotifier_OpenFormAndPublishHome(t *testing.T) {
	f, srv := newFakeSlack(t)
	n := slackbot.NewNotifier(nil, "xoxb-fallback", "general", slackbot.WithAPIURL(srv.URL+"/"))
	ctx := context.Background()

	modal := slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: "create_event_dialog",
		Title:      slack.NewTextBlockObject(slack.PlainTextType, "Create event", false, false),
	}
	require.NoError(t, n.OpenForm(ctx, "T1", "trigger-1", modal))
	assert.Contains(t, f.body("views.open"), "trigger-1")
	assert.Contains(t, f.body("views.open"), "create_event_dialog")

	home := slack.HomeTabViewRequest{Type: slack.VTHomeTab}
	require.NoError(t, n.PublishHome(ctx, "T1", "U1", home))
	assert.Contains(t, f.body("views.publish"), "U1")
}
