package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/service"
)

// OptionsResponse answers a block_suggestion request from an external select.
type OptionsResponse struct {
	Options []*slack.OptionBlockObject `json:"options"`
}

// Router handles interactive component payloads: button clicks, the create
// form submission, place search suggestions and the App Home tab.
type Router struct {
	core
}

// NewRouter constructs a Router.
func NewRouter(events Events, chat Chat, opts ...Option) *Router {
	return &Router{core: newCore(events, chat, opts)}
}

// Handle routes one interaction payload. The returned value, when not nil, is
// the JSON body Slack expects in the HTTP response.
func (r *Router) Handle(ctx context.Context, cb slack.InteractionCallback) any {
	who := caller{team: cb.Team.ID, user: cb.User.ID, channel: cb.Channel.ID}
	if who.channel == "" {
		who.channel = cb.Container.ChannelID
	}

	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		r.blockActions(ctx, who, cb)
		return nil
	case slack.InteractionTypeViewSubmission:
		if cb.View.CallbackID != callbackCreateDialog {
			return nil
		}
		if resp := r.submitCreate(ctx, who, cb.View); resp != nil {
			return resp
		}
		return nil
	case slack.InteractionTypeBlockSuggestion:
		return r.suggestPlaces(ctx, who, cb.Value)
	}
	return nil
}

func (r *Router) blockActions(ctx context.Context, who caller, cb slack.InteractionCallback) {
	fromHome := cb.View.Type == slack.VTHomeTab

	for _, action := range cb.ActionCallback.BlockActions {
		msg, err := r.blockAction(ctx, who, cb.TriggerID, action)
		if err != nil {
			r.log.ErrorContext(ctx, "interaction failed",
				"team", who.team, "user", who.user, "op", action.ActionID, "arg", action.Value, "error", err)
			msg = msgOops
		}
		if msg != "" && who.channel != "" {
			if err := r.chat.PostEphemeral(ctx, who.team, who.channel, who.user, msg); err != nil {
				r.log.ErrorContext(ctx, "ephemeral reply failed", "team", who.team, "user", who.user, "error", err)
			}
		}
	}

	if fromHome {
		r.refreshHome(ctx, who)
	}
}

// blockAction runs a single button click and returns the reply text, which
// is empty for actions that answer with a view instead.
func (r *Router) blockAction(ctx context.Context, who caller, triggerID string, action *slack.BlockAction) (msg string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	switch action.ActionID {
	case actionJoin, actionLeave, actionDelete:
		op, id, err := parseActionValue(action.Value)
		if err != nil {
			return "", err
		}
		switch op {
		case actionJoin:
			return r.join(ctx, who, id)
		case actionLeave:
			return r.leave(ctx, who, id)
		case actionDelete:
			return r.remove(ctx, who, id)
		}
		return "", fmt.Errorf("unknown operation %q", op)

	case actionCreate:
		return "", r.chat.OpenForm(ctx, who.team, triggerID, createModal("", "", r.defaultTime))

	case actionCreateSuggest:
		placeID, name, _ := strings.Cut(action.Value, valueSep)
		return "", r.chat.OpenForm(ctx, who.team, triggerID, createModal(placeID, name, r.defaultTime))

	case actionSuggestPlace:
		return "", nil
	}
	return "", fmt.Errorf("unknown action %q", action.ActionID)
}

// submitCreate handles the create form. A non-nil response keeps the form
// open with errors next to the offending fields.
func (r *Router) submitCreate(ctx context.Context, who caller, view slack.View) *slack.ViewSubmissionResponse {
	in := createInputFromView(who, view)

	event, err := r.events.Create(ctx, in)
	if err != nil {
		field := fieldDay
		if errors.Is(err, domain.ErrInvalidTime) {
			field = fieldTime
		}
		msg, ok := createErrorText(err)
		if !ok {
			r.log.ErrorContext(ctx, "create from form failed",
				"team", who.team, "user", who.user, "op", "create", "arg", in.Day, "error", err)
			msg = msgOops
		}
		return slack.NewErrorsViewSubmissionResponse(map[string]string{field: stripMarkup(msg)})
	}

	r.announce(ctx, who, "create", msgNewEvent, announcementBlocks(msgNewEvent, event)...)
	r.refreshHome(ctx, who)
	return nil
}

func createInputFromView(who caller, view slack.View) service.CreateInput {
	in := service.CreateInput{TeamID: who.team, Author: who.user}
	if view.State == nil {
		return in
	}
	values := view.State.Values

	in.Day = values[fieldDay][fieldDay].SelectedDate
	in.Time = values[fieldTime][fieldTime].SelectedTime
	in.Description = values[fieldDescription][fieldDescription].Value

	if view.PrivateMetadata != "" {
		in.PlaceID, in.PlaceQuery, _ = strings.Cut(view.PrivateMetadata, valueSep)
		return in
	}

	opt := values[fieldPlace][fieldPlace].SelectedOption
	if query, ok := strings.CutPrefix(opt.Value, freeTextPrefix); ok {
		in.PlaceQuery = query
		return in
	}
	in.PlaceID, in.PlaceQuery, _ = strings.Cut(opt.Value, valueSep)
	return in
}

// suggestPlaces answers the place search in the create form. The typed text
// is always offered as the last option so the form works without the places
// API.
func (r *Router) suggestPlaces(ctx context.Context, who caller, query string) OptionsResponse {
	query = strings.TrimSpace(query)
	resp := OptionsResponse{Options: []*slack.OptionBlockObject{}}
	if query == "" {
		return resp
	}

	places, err := r.events.Suggest(ctx, query)
	if err != nil && !errors.Is(err, service.ErrPlacesUnavailable) {
		r.log.WarnContext(ctx, "place suggestions failed",
			"team", who.team, "user", who.user, "op", "suggest", "arg", query, "error", err)
	}
	for _, p := range places {
		label := p.Name
		if p.Rating > 0 {
			label = fmt.Sprintf("%s (%.1f)", p.Name, p.Rating)
		}
		resp.Options = append(resp.Options,
			slack.NewOptionBlockObject(truncate(placeOptionValue(p), 150), plain(truncate(label, 75)), nil))
	}
	resp.Options = append(resp.Options,
		slack.NewOptionBlockObject(truncate(freeTextPrefix+query, 150), plain(truncate(`Use "`+query+`"`, 75)), nil))
	return resp
}

// HomeOpened publishes the App Home tab for user.
func (r *Router) HomeOpened(ctx context.Context, teamID, user string) {
	r.refreshHome(ctx, caller{team: teamID, user: user})
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// stripMarkup drops mrkdwn emphasis, which form errors do not render.
func stripMarkup(s string) string {
	return strings.NewReplacer("*", "", "_", "").Replace(s)
}
