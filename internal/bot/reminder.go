package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
)

// Reminder announces today's event in every installed team. It is run once a
// day by an external scheduler.
type Reminder struct {
	core
	installs   repo.InstallationRepo
	extraTeams []string
}

// NewReminder constructs a Reminder. extraTeams are reminded in addition to
// the stored installations, for deployments running on a single
// preconfigured bot token.
func NewReminder(events Events, chat Chat, installs repo.InstallationRepo, extraTeams []string, opts ...Option) *Reminder {
	return &Reminder{core: newCore(events, chat, opts), installs: installs, extraTeams: extraTeams}
}

// RemindStats summarises one RemindAll run.
type RemindStats struct {
	Teams  int
	Sent   int
	Failed int
}

// RemindAll posts today's reminder to each team. A failing team is logged
// and skipped; the returned error joins all such failures, and the stats
// still count what was sent.
func (r *Reminder) RemindAll(ctx context.Context) (RemindStats, error) {
	teams, err := r.teams(ctx)
	if err != nil {
		return RemindStats{}, fmt.Errorf("bot.Reminder.RemindAll: %w", err)
	}

	stats := RemindStats{Teams: len(teams)}
	var errs []error
	for _, team := range teams {
		ok, err := r.Remind(ctx, team)
		if err != nil {
			r.log.ErrorContext(ctx, "reminder failed", "team", team, "op", "remind", "error", err)
			errs = append(errs, fmt.Errorf("team %s: %w", team, err))
			continue
		}
		if ok {
			stats.Sent++
		}
	}
	stats.Failed = len(errs)
	r.log.InfoContext(ctx, "reminders done", "teams", stats.Teams, "sent", stats.Sent, "failed", stats.Failed)
	return stats, errors.Join(errs...)
}

// Remind posts today's reminder for one team. It reports false when the team
// has nothing planned today.
func (r *Reminder) Remind(ctx context.Context, teamID string) (bool, error) {
	event, err := r.events.Today(ctx, teamID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	headline := msgRemindEvent
	if len(event.Participants) == 0 {
		headline = msgRemindEmpty
	}

	blocks := []slack.Block{slack.NewSectionBlock(mrkdwn(headline), nil, nil)}
	blocks = append(blocks, eventBlocks(event, "")...)
	if len(event.Participants) > 0 {
		blocks = append(blocks, slack.NewActionBlock("",
			slack.NewButtonBlockElement(actionJoin, actionValue(actionJoin, event.ID), plain("Join")).WithStyle(slack.StylePrimary)))
	}
	blocks = append(blocks, footer())

	if err := r.chat.PostPublic(ctx, teamID, headline, blocks...); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reminder) teams(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var teams []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			teams = append(teams, t)
		}
	}

	if r.installs != nil {
		insts, err := r.installs.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, inst := range insts {
			add(inst.TeamID)
		}
	}
	for _, t := range r.extraTeams {
		add(t)
	}
	return teams, nil
}
