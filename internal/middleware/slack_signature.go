package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
)

// NewSlackVerifier returns a middleware that rejects requests not signed with
// the app's signing secret (the X-Slack-Signature and
// X-Slack-Request-Timestamp headers). Requests older than five minutes fail
// as replays. The body is restored so the next handler can parse it.
//
// Wire it after NewMaxBodySizeHandler: the whole body is buffered here.
func NewSlackVerifier(signingSecret string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sv, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				log.WarnContext(r.Context(), "slack signature rejected", "path", r.URL.Path, "error", err)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			if _, err := sv.Write(body); err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if err := sv.Ensure(); err != nil {
				log.WarnContext(r.Context(), "slack signature rejected", "path", r.URL.Path, "error", err)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
