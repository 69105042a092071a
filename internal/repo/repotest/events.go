// Package repotest provides in-memory repo implementations for tests in
// other packages.
package repotest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
)

// EventRepo is an in-memory repo.EventRepo with the same conditional
// semantics as the Postgres implementation. Safe for concurrent use.
type EventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]domain.Event
}

// NewEventRepo returns an empty EventRepo.
func NewEventRepo() *EventRepo {
	return &EventRepo{events: map[uuid.UUID]domain.Event{}}
}

var _ repo.EventRepo = (*EventRepo)(nil)

func (m *EventRepo) Insert(_ context.Context, e domain.Event) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.events {
		if existing.TeamID == e.TeamID && existing.Date.Equal(e.Date) {
			return domain.Event{}, domain.ErrConflict
		}
	}
	e.ID = uuid.New()
	e.Participants = []string{e.Author}
	e.CreatedAt = time.Now()
	m.events[e.ID] = e
	return clone(e), nil
}

func (m *EventRepo) List(_ context.Context, teamID string, from time.Time) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Event{}
	for _, e := range m.events {
		if e.TeamID == teamID && !e.Date.Before(from) {
			out = append(out, clone(e))
		}
	}
	slices.SortFunc(out, func(a, b domain.Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *EventRepo) Get(_ context.Context, teamID string, id uuid.UUID) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.TeamID != teamID {
		return domain.Event{}, domain.ErrNotFound
	}
	return clone(e), nil
}

func (m *EventRepo) GetByDate(_ context.Context, teamID string, date time.Time) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.TeamID == teamID && e.Date.Equal(date) {
			return clone(e), nil
		}
	}
	return domain.Event{}, domain.ErrNotFound
}

func (m *EventRepo) Join(_ context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.TeamID != teamID {
		return domain.Event{}, false, domain.ErrNotFound
	}
	if e.HasParticipant(user) {
		return clone(e), false, nil
	}
	e.Participants = append(slices.Clone(e.Participants), user)
	m.events[id] = e
	return clone(e), true, nil
}

func (m *EventRepo) Leave(_ context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.TeamID != teamID {
		return domain.Event{}, false, domain.ErrNotFound
	}
	if !e.HasParticipant(user) {
		return clone(e), false, nil
	}
	e.Participants = slices.DeleteFunc(slices.Clone(e.Participants), func(p string) bool { return p == user })
	m.events[id] = e
	return clone(e), true, nil
}

func (m *EventRepo) Delete(_ context.Context, teamID string, id uuid.UUID, author string) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.TeamID != teamID {
		return domain.Event{}, domain.ErrNotFound
	}
	if e.Author != author {
		return domain.Event{}, domain.ErrNotAuthor
	}
	delete(m.events, id)
	return clone(e), nil
}

func clone(e domain.Event) domain.Event {
	e.Participants = slices.Clone(e.Participants)
	return e
}
