package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/pkordes/eventer/internal/bot"
	"github.com/pkordes/eventer/internal/domain"
)

// commandReply is the response body of a slash command. Blocks is omitted
// when empty; Slack rejects "blocks":null.
type commandReply struct {
	ResponseType string        `json:"response_type"`
	Text         string        `json:"text"`
	Blocks       []slack.Block `json:"blocks,omitempty"`
}

// slashCommand handles POST /slack/commands. The reply is ephemeral: only the
// caller sees it.
func (s *Server) slashCommand(w http.ResponseWriter, r *http.Request) {
	sc, err := slack.SlashCommandParse(r)
	if err != nil {
		badRequest(w, s.log, "malformed slash command")
		return
	}

	resp := s.commands.Dispatch(r.Context(), bot.Command{
		TeamID:    sc.TeamID,
		ChannelID: sc.ChannelID,
		UserID:    sc.UserID,
		Text:      sc.Text,
		TriggerID: sc.TriggerID,
	})
	writeJSON(w, s.log, http.StatusOK, commandReply{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         resp.Text,
		Blocks:       resp.Blocks,
	})
}

// interaction handles POST /slack/interactions. Slack sends the callback as
// JSON in the "payload" form field and accepts an empty 200 as ack.
func (s *Server) interaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, s.log, "malformed form")
		return
	}
	payload := r.PostForm.Get("payload")
	if payload == "" {
		badRequest(w, s.log, "missing payload")
		return
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &cb); err != nil {
		s.log.WarnContext(r.Context(), "malformed interaction payload", "error", err)
		badRequest(w, s.log, "malformed payload")
		return
	}

	if resp := s.interactions.Handle(r.Context(), cb); resp != nil {
		writeJSON(w, s.log, http.StatusOK, resp)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// event handles POST /slack/events: the URL verification handshake, App Home
// opens and uninstalls. Other events are acknowledged and ignored.
func (s *Server) event(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		badRequest(w, s.log, "unreadable body")
		return
	}

	// The request signature was already checked by middleware.
	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.log.WarnContext(r.Context(), "malformed event", "error", err)
		badRequest(w, s.log, "malformed event")
		return
	}

	switch ev.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			badRequest(w, s.log, "malformed challenge")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, challenge.Challenge)
		return

	case slackevents.CallbackEvent:
		switch inner := ev.InnerEvent.Data.(type) {
		case *slackevents.AppHomeOpenedEvent:
			if inner.Tab == "home" {
				s.interactions.HomeOpened(r.Context(), ev.TeamID, inner.User)
			}
		case *slackevents.AppUninstalledEvent:
			s.uninstall(r, ev.TeamID)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) uninstall(r *http.Request, teamID string) {
	if s.installs == nil {
		return
	}
	err := s.installs.Delete(r.Context(), teamID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		s.log.ErrorContext(r.Context(), "remove installation failed", "team", teamID, "op", "uninstall", "error", err)
	default:
		s.log.InfoContext(r.Context(), "app uninstalled", "team", teamID)
	}
}
