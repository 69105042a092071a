// Package service contains the event planning logic shared by slash commands
// and interactive components. Services validate input, resolve days and
// places, and call the repo; no SQL and no chat formatting live here.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
)

// SuggestLimit is the number of places Suggest returns at most.
const SuggestLimit = 5

// DefaultEventTime is used when an event is created without a time.
const DefaultEventTime = "17:30"

// ErrPlacesUnavailable is returned by Suggest when no places client is
// configured.
var ErrPlacesUnavailable = errors.New("places search unavailable")

// DateResolver turns user-typed days into calendar dates. Resolve only
// accepts days after today; ResolveUpcoming accepts today too.
type DateResolver interface {
	Resolve(input string) (time.Time, error)
	ResolveUpcoming(input string) (time.Time, error)
	Today() time.Time
}

// PlaceFinder looks venues up in an external places API.
type PlaceFinder interface {
	Search(ctx context.Context, query string) ([]domain.Place, error)
	Details(ctx context.Context, placeID string) (domain.Place, error)
}

// CreateInput is everything a user can supply when creating an event.
// Day is either a DateLayout date (from a date picker) or free text such as
// "friday". PlaceID wins over PlaceQuery when both are set.
type CreateInput struct {
	TeamID      string
	Day         string
	Time        string
	PlaceID     string
	PlaceQuery  string
	Description string
	Author      string
}

// EventService implements the event operations.
type EventService struct {
	events      repo.EventRepo
	dates       DateResolver
	places      PlaceFinder
	defaultTime string
	log         *slog.Logger
}

// Option configures an EventService.
type Option func(*EventService)

// WithDefaultTime overrides DefaultEventTime. The value is stored zero
// padded, so "9:30" becomes "09:30"; an unreadable value is ignored.
func WithDefaultTime(hhmm string) Option {
	return func(s *EventService) {
		if t, err := time.Parse(domain.TimeLayout, strings.TrimSpace(hhmm)); err == nil {
			s.defaultTime = t.Format(domain.TimeLayout)
		}
	}
}

// WithLogger sets the logger used for degraded paths such as a failed place
// lookup. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *EventService) { s.log = l }
}

// NewEventService constructs an EventService. places may be nil, in which
// case events keep the place text as typed and Suggest is unavailable.
func NewEventService(events repo.EventRepo, dates DateResolver, places PlaceFinder, opts ...Option) *EventService {
	s := &EventService{
		events:      events,
		dates:       dates,
		places:      places,
		defaultTime: DefaultEventTime,
		log:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, resolves day and place, then persists the
// event with the author as its first participant.
// Returns domain.ErrValidation (or domain.ErrPastDate) for bad input and
// domain.ErrConflict if the team already has an event that day.
func (s *EventService) Create(ctx context.Context, in CreateInput) (domain.Event, error) {
	if strings.TrimSpace(in.Author) == "" {
		return domain.Event{}, fmt.Errorf("service.EventService.Create: %w: author is required", domain.ErrValidation)
	}

	date, err := s.dates.Resolve(in.Day)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.Create: %w", err)
	}

	at, err := s.normalizeTime(in.Time)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.Create: %w", err)
	}

	event := domain.Event{
		TeamID:      in.TeamID,
		Date:        date,
		Time:        at,
		Location:    s.resolveLocation(ctx, in),
		Description: strings.TrimSpace(in.Description),
		Author:      in.Author,
	}

	created, err := s.events.Insert(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.Create: %w", err)
	}
	return created, nil
}

// List returns the team's events from today on, ordered by date and time.
func (s *EventService) List(ctx context.Context, teamID string) ([]domain.Event, error) {
	events, err := s.events.List(ctx, teamID, s.dates.Today())
	if err != nil {
		return nil, fmt.Errorf("service.EventService.List: %w", err)
	}
	if events == nil {
		return []domain.Event{}, nil
	}
	return events, nil
}

// Get returns a single event.
// Returns domain.ErrNotFound if the team has no such event.
func (s *EventService) Get(ctx context.Context, teamID string, id uuid.UUID) (domain.Event, error) {
	event, err := s.events.Get(ctx, teamID, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.Get: %w", err)
	}
	return event, nil
}

// ResolveDay reports the date Create would use for day.
// Returns domain.ErrPastDate or domain.ErrValidation like Create does.
func (s *EventService) ResolveDay(day string) (time.Time, error) {
	date, err := s.dates.Resolve(day)
	if err != nil {
		return time.Time{}, fmt.Errorf("service.EventService.ResolveDay: %w", err)
	}
	return date, nil
}

// FindByDay resolves day and returns the team's event on that date. Today
// counts, so today's event can still be joined, left or deleted.
// Returns the resolver's validation errors unchanged and domain.ErrNotFound
// if nothing is planned that day.
func (s *EventService) FindByDay(ctx context.Context, teamID, day string) (domain.Event, error) {
	date, err := s.dates.ResolveUpcoming(day)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.FindByDay: %w", err)
	}
	event, err := s.events.GetByDate(ctx, teamID, date)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.FindByDay: %w", err)
	}
	return event, nil
}

// Today returns the team's event for the current date.
// Returns domain.ErrNotFound if nothing is planned today.
func (s *EventService) Today(ctx context.Context, teamID string) (domain.Event, error) {
	event, err := s.events.GetByDate(ctx, teamID, s.dates.Today())
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.Today: %w", err)
	}
	return event, nil
}

// Join adds user to the event. changed is false when the user was already a
// participant.
func (s *EventService) Join(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	event, changed, err := s.events.Join(ctx, teamID, id, user)
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("service.EventService.Join: %w", err)
	}
	return event, changed, nil
}

// Leave removes user from the event. changed is false when the user was not
// a participant.
func (s *EventService) Leave(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	event, changed, err := s.events.Leave(ctx, teamID, id, user)
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("service.EventService.Leave: %w", err)
	}
	return event, changed, nil
}

// Delete removes the event if user is its author and returns what was deleted.
// Returns domain.ErrNotAuthor or domain.ErrNotFound otherwise.
func (s *EventService) Delete(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, error) {
	event, err := s.events.Delete(ctx, teamID, id, user)
	if err != nil {
		return domain.Event{}, fmt.Errorf("service.EventService.Delete: %w", err)
	}
	return event, nil
}

// Suggest searches for places matching query and returns the best rated,
// at most SuggestLimit of them.
func (s *EventService) Suggest(ctx context.Context, query string) ([]domain.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("service.EventService.Suggest: %w: query is required", domain.ErrValidation)
	}
	if s.places == nil {
		return nil, fmt.Errorf("service.EventService.Suggest: %w", ErrPlacesUnavailable)
	}

	found, err := s.places.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("service.EventService.Suggest: %w", err)
	}
	return topRated(found, SuggestLimit), nil
}

// SuggestDetailed is Suggest with every place completed from the details
// API, which is the only source of opening hours and websites. A failed
// lookup keeps that place as the search returned it.
func (s *EventService) SuggestDetailed(ctx context.Context, query string) ([]domain.Place, error) {
	found, err := s.Suggest(ctx, query)
	if err != nil {
		return nil, err
	}
	for i, p := range found {
		if p.ID == "" {
			continue
		}
		detailed, err := s.places.Details(ctx, p.ID)
		if err != nil {
			s.log.WarnContext(ctx, "place details lookup failed", "place_id", p.ID, "error", err)
			continue
		}
		if detailed.OpenNow == nil {
			detailed.OpenNow = p.OpenNow
		}
		found[i] = detailed
	}
	return found, nil
}

// topRated sorts a copy of places by rating, highest first, keeping API order
// among equal ratings, and truncates it to n.
func topRated(places []domain.Place, n int) []domain.Place {
	sorted := slices.Clone(places)
	slices.SortStableFunc(sorted, func(a, b domain.Place) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		return []domain.Place{}
	}
	return sorted
}

func (s *EventService) normalizeTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.defaultTime, nil
	}
	t, err := time.Parse(domain.TimeLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%q: %w", raw, domain.ErrInvalidTime)
	}
	return t.Format(domain.TimeLayout), nil
}

// resolveLocation never fails: if the places API cannot help, the event keeps
// the place text the user typed.
func (s *EventService) resolveLocation(ctx context.Context, in CreateInput) domain.Location {
	query := strings.TrimSpace(in.PlaceQuery)
	fallback := domain.Location{Name: query}

	if s.places == nil {
		return fallback
	}

	if in.PlaceID != "" {
		p, err := s.places.Details(ctx, in.PlaceID)
		if err != nil {
			s.log.WarnContext(ctx, "place details lookup failed",
				"team", in.TeamID, "user", in.Author, "place_id", in.PlaceID, "error", err)
			if query == "" {
				fallback.PlaceID = in.PlaceID
			}
			return fallback
		}
		return p.Snapshot()
	}

	if query == "" {
		return fallback
	}

	found, err := s.places.Search(ctx, query)
	if err != nil {
		s.log.WarnContext(ctx, "place search failed",
			"team", in.TeamID, "user", in.Author, "query", query, "error", err)
		return fallback
	}
	if best := topRated(found, 1); len(best) == 1 {
		return best[0].Snapshot()
	}
	return fallback
}
