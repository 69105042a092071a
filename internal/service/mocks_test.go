package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
	"github.com/pkordes/eventer/internal/service"
)

// mockEventRepo is a hand-written test double for repo.EventRepo.
// Each method is a function field; set only the ones your test needs.
type mockEventRepo struct {
	insert    func(ctx context.Context, e domain.Event) (domain.Event, error)
	list      func(ctx context.Context, teamID string, from time.Time) ([]domain.Event, error)
	get       func(ctx context.Context, teamID string, id uuid.UUID) (domain.Event, error)
	getByDate func(ctx context.Context, teamID string, date time.Time) (domain.Event, error)
	join      func(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error)
	leave     func(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error)
	delete    func(ctx context.Context, teamID string, id uuid.UUID, author string) (domain.Event, error)
}

func (m *mockEventRepo) Insert(ctx context.Context, e domain.Event) (domain.Event, error) {
	return m.insert(ctx, e)
}
func (m *mockEventRepo) List(ctx context.Context, teamID string, from time.Time) ([]domain.Event, error) {
	return m.list(ctx, teamID, from)
}
func (m *mockEventRepo) Get(ctx context.Context, teamID string, id uuid.UUID) (domain.Event, error) {
	return m.get(ctx, teamID, id)
}
func (m *mockEventRepo) GetByDate(ctx context.Context, teamID string, date time.Time) (domain.Event, error) {
	return m.getByDate(ctx, teamID, date)
}
func (m *mockEventRepo) Join(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	return m.join(ctx, teamID, id, user)
}
func (m *mockEventRepo) Leave(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	return m.leave(ctx, teamID, id, user)
}
func (m *mockEventRepo) Delete(ctx context.Context, teamID string, id uuid.UUID, author string) (domain.Event, error) {
	return m.delete(ctx, teamID, id, author)
}

var _ repo.EventRepo = (*mockEventRepo)(nil)

// mockPlaces is a hand-written test double for service.PlaceFinder.
type mockPlaces struct {
	search  func(ctx context.Context, query string) ([]domain.Place, error)
	details func(ctx context.Context, placeID string) (domain.Place, error)
}

func (m *mockPlaces) Search(ctx context.Context, query string) ([]domain.Place, error) {
	return m.search(ctx, query)
}
func (m *mockPlaces) Details(ctx context.Context, placeID string) (domain.Place, error) {
	return m.details(ctx, placeID)
}

var _ service.PlaceFinder = (*mockPlaces)(nil)
