package bot

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/domain"
)

// Action, block and callback ids shared by the views built here and the
// Router that receives their interactions.
const (
	actionJoin          = "join_event"
	actionLeave         = "leave_event"
	actionDelete        = "delete_event"
	actionCreate        = "create_event_action"
	actionCreateSuggest = "create_event_suggest"
	actionSuggestPlace  = "suggest_place"

	callbackCreateDialog = "create_event_dialog"

	fieldDay         = "event_day"
	fieldTime        = "event_time"
	fieldDescription = "event_description"
	fieldPlace       = "suggest_place"
)

// valueSep separates the operation from the event id in button values.
const valueSep = "|"

// freeTextPrefix marks a place option that carries typed text instead of a
// place id.
const freeTextPrefix = "q:"

func mrkdwn(s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, s, false, false)
}

func plain(s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, s, true, false)
}

func actionValue(op string, id uuid.UUID) string {
	return op + valueSep + id.String()
}

// parseActionValue splits a button value built by actionValue.
func parseActionValue(v string) (op string, id uuid.UUID, err error) {
	op, rawID, ok := strings.Cut(v, valueSep)
	if !ok {
		return "", uuid.Nil, fmt.Errorf("malformed action value %q", v)
	}
	id, err = uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("malformed event id in %q: %w", v, err)
	}
	return op, id, nil
}

// eventSummary is the one-line form of an event used in confirmations.
func eventSummary(e domain.Event) string {
	s := fmt.Sprintf("%s %s at %s", e.Weekday(), e.DateString(), e.Time)
	if e.Location.Name != "" {
		s += " @ " + e.Location.Name
	}
	return s
}

func placeLine(name, mapsURL string) string {
	switch {
	case name == "":
		return "_Place to be decided_"
	case mapsURL != "":
		return fmt.Sprintf("*<%s|%s>*", mapsURL, name)
	default:
		return "*" + name + "*"
	}
}

func participantsLine(users []string) string {
	if len(users) == 0 {
		return "Nobody has joined yet."
	}
	mentions := make([]string, len(users))
	for i, u := range users {
		mentions[i] = "<@" + u + ">"
	}
	return fmt.Sprintf("Participants (%d): %s", len(users), strings.Join(mentions, ", "))
}

// eventBlocks renders one event. viewer decides which buttons show: join for
// non-participants, leave for participants, delete for the author. An empty
// viewer renders no buttons, for public announcements.
func eventBlocks(e domain.Event, viewer string) []slack.Block {
	lines := []string{
		fmt.Sprintf("*%s, %s* at *%s*", e.Weekday(), e.DateString(), e.Time),
		placeLine(e.Location.Name, e.Location.MapsURL),
	}
	if e.Location.Address != "" {
		lines = append(lines, e.Location.Address)
	}
	if e.Location.Rating > 0 {
		lines = append(lines, fmt.Sprintf("Rating: %.1f :star:", e.Location.Rating))
	}
	if e.Description != "" {
		lines = append(lines, "_"+e.Description+"_")
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(strings.Join(lines, "\n")), nil, nil, slack.SectionBlockOptionBlockID("event_"+e.ID.String())),
		slack.NewContextBlock("", mrkdwn(participantsLine(e.Participants))),
	}

	if viewer == "" {
		return blocks
	}

	var buttons []slack.BlockElement
	if e.HasParticipant(viewer) {
		buttons = append(buttons, slack.NewButtonBlockElement(actionLeave, actionValue(actionLeave, e.ID), plain("Leave")))
	} else {
		buttons = append(buttons, slack.NewButtonBlockElement(actionJoin, actionValue(actionJoin, e.ID), plain("Join")).WithStyle(slack.StylePrimary))
	}
	if e.Author == viewer {
		buttons = append(buttons, slack.NewButtonBlockElement(actionDelete, actionValue(actionDelete, e.ID), plain("Delete")).WithStyle(slack.StyleDanger))
	}
	return append(blocks, slack.NewActionBlock("actions_"+e.ID.String(), buttons...))
}

func footer() slack.Block {
	return slack.NewContextBlock("", mrkdwn(msgFooter))
}

func createButton() *slack.ButtonBlockElement {
	return slack.NewButtonBlockElement(actionCreate, "create", plain("Create event")).WithStyle(slack.StylePrimary)
}

// listBlocks renders the upcoming events for viewer, or the empty state
// with a create button.
func listBlocks(events []domain.Event, viewer string) []slack.Block {
	if len(events) == 0 {
		return []slack.Block{
			slack.NewSectionBlock(mrkdwn(msgNoUpcoming), nil, slack.NewAccessory(createButton())),
			footer(),
		}
	}

	blocks := []slack.Block{slack.NewHeaderBlock(plain("Upcoming events"))}
	for _, e := range events {
		blocks = append(blocks, slack.NewDividerBlock())
		blocks = append(blocks, eventBlocks(e, viewer)...)
	}
	return append(blocks, slack.NewDividerBlock(), footer())
}

// announcementBlocks is the public message for a newly created event.
func announcementBlocks(headline string, e domain.Event) []slack.Block {
	blocks := []slack.Block{slack.NewSectionBlock(mrkdwn(headline), nil, nil)}
	blocks = append(blocks, eventBlocks(e, "")...)
	blocks = append(blocks, slack.NewActionBlock("",
		slack.NewButtonBlockElement(actionJoin, actionValue(actionJoin, e.ID), plain("Join")).WithStyle(slack.StylePrimary)))
	return append(blocks, footer())
}

func placeOptionValue(p domain.Place) string {
	return p.ID + valueSep + p.Name
}

// placeBlocks renders suggestions, each with a button that opens the create
// form with that place chosen.
func placeBlocks(places []domain.Place) []slack.Block {
	blocks := []slack.Block{slack.NewSectionBlock(mrkdwn(msgSuggestions), nil, nil)}
	for _, p := range places {
		lines := []string{placeLine(p.Name, p.MapsURL) + " (" + openStatus(p.OpenNow) + ")"}
		if len(p.Hours) > 0 {
			lines = append(lines, strings.Join(p.Hours, ", "))
		}
		if p.Address != "" {
			lines = append(lines, p.Address)
		}
		if p.Website != "" {
			lines = append(lines, fmt.Sprintf("<%s|Website>", p.Website))
		}
		if p.Rating > 0 {
			lines = append(lines, fmt.Sprintf("Rating: %.1f :star:", p.Rating))
		}
		if len(p.Types) > 0 {
			lines = append(lines, "_"+strings.ReplaceAll(strings.Join(p.Types, ", "), "_", " ")+"_")
		}
		button := slack.NewButtonBlockElement(actionCreateSuggest, placeOptionValue(p), plain("Create event"))
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(mrkdwn(strings.Join(lines, "\n")), nil, slack.NewAccessory(button)))
	}
	return append(blocks, footer())
}

func openStatus(open *bool) string {
	switch {
	case open == nil:
		return "Unknown"
	case *open:
		return "Open"
	default:
		return "Closed"
	}
}

// createModal builds the event form. When placeID is set the place is
// already chosen and shown as text; otherwise the form has a place search.
func createModal(placeID, placeName, defaultTime string) slack.ModalViewRequest {
	day := slack.NewDatePickerBlockElement(fieldDay)
	day.Placeholder = plain("Pick a day")

	at := slack.NewTimePickerBlockElement(fieldTime)
	at.InitialTime = defaultTime

	description := slack.NewPlainTextInputBlockElement(plain("What are we doing?"), fieldDescription)
	description.Multiline = true

	descriptionBlock := slack.NewInputBlock(fieldDescription, plain("Description"), nil, description)
	descriptionBlock.Optional = true

	blocks := []slack.Block{
		slack.NewInputBlock(fieldDay, plain("Day"), plain("One event per day."), day),
		slack.NewInputBlock(fieldTime, plain("Time"), nil, at),
	}

	if placeID != "" {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn("Place: "+placeLine(placeName, "")), nil, nil))
	} else {
		minLen := 3
		search := slack.NewOptionsSelectBlockElement(slack.OptTypeExternal, plain("Search for a place"), fieldPlace)
		search.MinQueryLength = &minLen
		blocks = append(blocks, slack.NewInputBlock(fieldPlace, plain("Place"), nil, search))
	}
	blocks = append(blocks, descriptionBlock)

	modal := slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: callbackCreateDialog,
		Title:      plain("Create event"),
		Submit:     plain("Create"),
		Close:      plain("Cancel"),
		Blocks:     slack.Blocks{BlockSet: blocks},
	}
	if placeID != "" {
		modal.PrivateMetadata = placeID + valueSep + placeName
	}
	return modal
}

// homeView is the App Home tab for user.
func homeView(events []domain.Event, user string) slack.HomeTabViewRequest {
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(msgWelcome), nil, nil),
		slack.NewActionBlock("home_actions", createButton()),
	}
	blocks = append(blocks, listBlocks(events, user)...)
	return slack.HomeTabViewRequest{
		Type:   slack.VTHomeTab,
		Blocks: slack.Blocks{BlockSet: blocks},
	}
}
