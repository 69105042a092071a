package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/bot"
	"github.com/pkordes/eventer/internal/handler"
)

const signingSecret = "test-signing-secret"

// mockDispatcher is a test double for handler.CommandDispatcher.
type mockDispatcher struct {
	dispatch func(ctx context.Context, cmd bot.Command) bot.Response
}

func (m *mockDispatcher) Dispatch(ctx context.Context, cmd bot.Command) bot.Response {
	return m.dispatch(ctx, cmd)
}

// mockInteractions is a test double for handler.InteractionHandler.
type mockInteractions struct {
	handle     func(ctx context.Context, cb slack.InteractionCallback) any
	homeOpened func(ctx context.Context, teamID, user string)
}

func (m *mockInteractions) Handle(ctx context.Context, cb slack.InteractionCallback) any {
	return m.handle(ctx, cb)
}

func (m *mockInteractions) HomeOpened(ctx context.Context, teamID, user string) {
	m.homeOpened(ctx, teamID, user)
}

// mockReminder is a test double for handler.ReminderRunner.
type mockReminder struct {
	remindAll func(ctx context.Context) (bot.RemindStats, error)
}

func (m *mockReminder) RemindAll(ctx context.Context) (bot.RemindStats, error) {
	return m.remindAll(ctx)
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

var (
	_ handler.CommandDispatcher  = (*mockDispatcher)(nil)
	_ handler.InteractionHandler = (*mockInteractions)(nil)
	_ handler.ReminderRunner     = (*mockReminder)(nil)
	_ handler.Pinger             = mockPinger{}
)

// signedRequest builds a request carrying a valid Slack signature.
func signedRequest(method, target, contentType, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func signedForm(target string, form url.Values) *http.Request {
	return signedRequest(http.MethodPost, target, "application/x-www-form-urlencoded", form.Encode())
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
