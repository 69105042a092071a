package repotest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
)

// InstallationRepo is an in-memory repo.InstallationRepo.
type InstallationRepo struct {
	mu    sync.Mutex
	teams map[string]domain.Installation
}

// NewInstallationRepo returns an InstallationRepo holding insts.
func NewInstallationRepo(insts ...domain.Installation) *InstallationRepo {
	r := &InstallationRepo{teams: map[string]domain.Installation{}}
	for _, inst := range insts {
		r.teams[inst.TeamID] = inst
	}
	return r
}

var _ repo.InstallationRepo = (*InstallationRepo)(nil)

func (r *InstallationRepo) Save(_ context.Context, inst domain.Installation) (domain.Installation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst.InstalledAt = time.Now()
	r.teams[inst.TeamID] = inst
	return inst, nil
}

func (r *InstallationRepo) Get(_ context.Context, teamID string) (domain.Installation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.teams[teamID]
	if !ok {
		return domain.Installation{}, domain.ErrNotFound
	}
	return inst, nil
}

func (r *InstallationRepo) List(_ context.Context) ([]domain.Installation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Installation, 0, len(r.teams))
	for _, inst := range r.teams {
		out = append(out, inst)
	}
	slices.SortFunc(out, func(a, b domain.Installation) int { return strings.Compare(a.TeamID, b.TeamID) })
	return out, nil
}

func (r *InstallationRepo) Delete(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[teamID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.teams, teamID)
	return nil
}

// OAuthStateRepo is an in-memory repo.OAuthStateRepo. Now defaults to
// time.Now and can be replaced to move the clock.
type OAuthStateRepo struct {
	Now func() time.Time

	mu     sync.Mutex
	states map[string]time.Time
}

// NewOAuthStateRepo returns an empty OAuthStateRepo.
func NewOAuthStateRepo() *OAuthStateRepo {
	return &OAuthStateRepo{Now: time.Now, states: map[string]time.Time{}}
}

var _ repo.OAuthStateRepo = (*OAuthStateRepo)(nil)

func (r *OAuthStateRepo) Issue(_ context.Context, state string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state] = r.Now().Add(ttl)
	return nil
}

func (r *OAuthStateRepo) Consume(_ context.Context, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expires, ok := r.states[state]
	if !ok {
		return false, nil
	}
	delete(r.states, state)
	return r.Now().Before(expires), nil
}

func (r *OAuthStateRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := r.Now()
	for s, expires := range r.states {
		if !now.Before(expires) {
			delete(r.states, s)
			n++
		}
	}
	return n, nil
}
