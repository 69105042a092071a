package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/service"
)

// Command is one slash command invocation.
type Command struct {
	TeamID    string
	ChannelID string
	UserID    string
	Text      string
	TriggerID string
}

type commandFunc func(d *Dispatcher, ctx context.Context, who caller, cmd Command, args []string) (Response, error)

type verb struct {
	name  string
	usage string
	run   commandFunc
}

// verbs is the command vocabulary in help order.
var verbs = []verb{
	{"list", "list", (*Dispatcher).list},
	{"create", "create [<day> <time> <place>]", (*Dispatcher).create},
	{"join", "join <day>", (*Dispatcher).join},
	{"leave", "leave <day>", (*Dispatcher).leave},
	{"delete", "delete <day>", (*Dispatcher).delete},
	{"suggest", "suggest <place>", (*Dispatcher).suggest},
}

var commands = func() map[string]commandFunc {
	m := make(map[string]commandFunc, len(verbs))
	for _, v := range verbs {
		m[v.name] = v.run
	}
	return m
}()

// HelpText lists every command with its arguments.
var HelpText = func() string {
	var b strings.Builder
	b.WriteString("Possible commands are:")
	for _, v := range verbs {
		b.WriteString("\n")
		b.WriteString(v.usage)
	}
	return b.String()
}()

var timeArg = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// Dispatcher answers slash commands. It is stateless and safe for
// concurrent use.
type Dispatcher struct {
	core
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(events Events, chat Chat, opts ...Option) *Dispatcher {
	return &Dispatcher{core: newCore(events, chat, opts)}
}

// Dispatch runs cmd and returns the reply for the caller. It never fails: any
// unexpected error or panic is logged and answered with a generic apology.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (resp Response) {
	fields := strings.Fields(cmd.Text)
	if len(fields) == 0 {
		return reply("No command given, " + HelpText)
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]
	who := caller{team: cmd.TeamID, user: cmd.UserID, channel: cmd.ChannelID}

	run, ok := commands[name]
	if !ok {
		return reply("Invalid command given, " + HelpText)
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.fail(ctx, who, name, args, fmt.Errorf("panic: %v", rec))
			resp = reply(msgOops)
		}
	}()

	resp, err := run(d, ctx, who, cmd, args)
	if err != nil {
		d.fail(ctx, who, name, args, err)
		return reply(msgOops)
	}
	return resp
}

func (d *Dispatcher) fail(ctx context.Context, who caller, op string, args []string, err error) {
	d.log.ErrorContext(ctx, "command failed",
		"team", who.team, "user", who.user, "op", op, "arg", strings.Join(args, " "), "error", err)
}

func (d *Dispatcher) list(ctx context.Context, who caller, _ Command, _ []string) (Response, error) {
	events, err := d.events.List(ctx, who.team)
	if err != nil {
		return Response{}, err
	}
	if len(events) == 0 {
		return Response{Text: msgNoUpcoming, Blocks: listBlocks(nil, who.user)}, nil
	}
	return Response{Text: "Upcoming events", Blocks: listBlocks(events, who.user)}, nil
}

// create with no arguments opens the form; otherwise the arguments are
// <day> [time] [place...].
func (d *Dispatcher) create(ctx context.Context, who caller, cmd Command, args []string) (Response, error) {
	if len(args) == 0 {
		if cmd.TriggerID == "" {
			return reply(msgCreateUsage), nil
		}
		if err := d.chat.OpenForm(ctx, who.team, cmd.TriggerID, createModal("", "", d.defaultTime)); err != nil {
			return Response{}, err
		}
		return reply(msgFollowDialog), nil
	}

	day, rest := d.splitDay(args)
	in := service.CreateInput{TeamID: who.team, Day: day, Author: who.user}
	if len(rest) > 0 && timeArg.MatchString(rest[0]) {
		in.Time = rest[0]
		rest = rest[1:]
	}
	in.PlaceQuery = strings.Join(rest, " ")

	event, err := d.events.Create(ctx, in)
	if err != nil {
		if msg, ok := createErrorText(err); ok {
			if errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrPastDate) {
				msg += " " + msgCreateUsage
			}
			return reply(msg), nil
		}
		return Response{}, err
	}

	d.announce(ctx, who, "create", msgNewEvent, announcementBlocks(msgNewEvent, event)...)
	return Response{Text: msgCreated + eventSummary(event), Blocks: eventBlocks(event, who.user)}, nil
}

// splitDay separates the day words at the front of create's arguments from
// the rest. A time ends the day; without one the longest prefix that reads as
// a day wins, so "next friday Pub" keeps "Pub" as the place.
func (d *Dispatcher) splitDay(args []string) (string, []string) {
	for i, arg := range args {
		if i > 0 && timeArg.MatchString(arg) {
			return strings.Join(args[:i], " "), args[i:]
		}
	}
	for n := len(args); n > 1; n-- {
		day := strings.Join(args[:n], " ")
		if _, err := d.events.ResolveDay(day); err == nil || errors.Is(err, domain.ErrPastDate) {
			return day, args[n:]
		}
	}
	return args[0], args[1:]
}

// target finds the event a join/leave/delete argument refers to: an event id
// addresses it directly, anything else is a day. A non-empty msg is the reply
// when there is no such event.
func (d *Dispatcher) target(ctx context.Context, who caller, op string, args []string) (id uuid.UUID, msg string, err error) {
	if len(args) == 0 {
		return uuid.Nil, fmt.Sprintf(msgNeedDay, op), nil
	}
	if len(args) == 1 {
		if id, err := uuid.Parse(args[0]); err == nil {
			return id, "", nil
		}
	}

	event, err := d.events.FindByDay(ctx, who.team, strings.Join(args, " "))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return uuid.Nil, msgNoEventThatDay, nil
	case errors.Is(err, domain.ErrPastDate):
		return uuid.Nil, msgDayOver, nil
	case errors.Is(err, domain.ErrValidation):
		return uuid.Nil, msgBadDay, nil
	case err != nil:
		return uuid.Nil, "", err
	}
	return event.ID, "", nil
}

func (d *Dispatcher) join(ctx context.Context, who caller, _ Command, args []string) (Response, error) {
	return d.onTarget(ctx, who, "join", args, d.core.join)
}

func (d *Dispatcher) leave(ctx context.Context, who caller, _ Command, args []string) (Response, error) {
	return d.onTarget(ctx, who, "leave", args, d.core.leave)
}

func (d *Dispatcher) delete(ctx context.Context, who caller, _ Command, args []string) (Response, error) {
	return d.onTarget(ctx, who, "delete", args, d.core.remove)
}

func (d *Dispatcher) onTarget(ctx context.Context, who caller, op string, args []string,
	do func(context.Context, caller, uuid.UUID) (string, error),
) (Response, error) {
	id, msg, err := d.target(ctx, who, op, args)
	if err != nil {
		return Response{}, err
	}
	if msg != "" {
		return reply(msg), nil
	}
	msg, err = do(ctx, who, id)
	if err != nil {
		return Response{}, err
	}
	return reply(msg), nil
}

func (d *Dispatcher) suggest(ctx context.Context, _ caller, _ Command, args []string) (Response, error) {
	if len(args) == 0 {
		return reply(msgNeedPlace), nil
	}

	places, err := d.events.SuggestDetailed(ctx, strings.Join(args, " "))
	switch {
	case errors.Is(err, service.ErrPlacesUnavailable):
		return reply(msgPlacesOff), nil
	case err != nil:
		return Response{}, err
	case len(places) == 0:
		return reply(msgNoPlaces), nil
	}
	return Response{Text: msgSuggestions, Blocks: placeBlocks(places)}, nil
}
