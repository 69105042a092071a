package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/eventer/internal/domain"
)

// InstallationRepo defines the persistence operations for workspace
// installations (one row per team holding its bot token).
type InstallationRepo interface {
	// Save inserts the installation or replaces the stored token for the team.
	Save(ctx context.Context, inst domain.Installation) (domain.Installation, error)

	// Get returns the installation for teamID.
	// Returns domain.ErrNotFound if the team never installed the app.
	Get(ctx context.Context, teamID string) (domain.Installation, error)

	// List returns every installation ordered by team id.
	List(ctx context.Context) ([]domain.Installation, error)

	// Delete removes the installation for teamID.
	// Returns domain.ErrNotFound if there is none.
	Delete(ctx context.Context, teamID string) error
}

// pgInstallationRepo is the Postgres implementation of InstallationRepo.
type pgInstallationRepo struct {
	db db
}

// NewInstallationRepo constructs an InstallationRepo backed by the provided db connection.
func NewInstallationRepo(db db) InstallationRepo {
	return &pgInstallationRepo{db: db}
}

// Save upserts by team id. Reinstalling rotates the token and refreshes
// installed_at.
func (r *pgInstallationRepo) Save(ctx context.Context, inst domain.Installation) (domain.Installation, error) {
	const q = `
		INSERT INTO installations (team_id, team_name, bot_token, bot_user_id)
		VALUES (@team_id, @team_name, @bot_token, @bot_user_id)
		ON CONFLICT (team_id) DO UPDATE
		SET team_name    = EXCLUDED.team_name,
		    bot_token    = EXCLUDED.bot_token,
		    bot_user_id  = EXCLUDED.bot_user_id,
		    installed_at = now()
		RETURNING team_id, team_name, bot_token, bot_user_id, installed_at`

	args := pgx.NamedArgs{
		"team_id":     inst.TeamID,
		"team_name":   inst.TeamName,
		"bot_token":   inst.BotToken,
		"bot_user_id": inst.BotUserID,
	}

	result, err := scanInstallation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Installation{}, fmt.Errorf("repo.InstallationRepo.Save: %w", err)
	}
	return result, nil
}

// Get retrieves the installation for a team.
func (r *pgInstallationRepo) Get(ctx context.Context, teamID string) (domain.Installation, error) {
	const q = `
		SELECT team_id, team_name, bot_token, bot_user_id, installed_at
		FROM installations
		WHERE team_id = @team_id`

	result, err := scanInstallation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"team_id": teamID}))
	if err != nil {
		return domain.Installation{}, fmt.Errorf("repo.InstallationRepo.Get: %w", err)
	}
	return result, nil
}

// List returns all installations.
func (r *pgInstallationRepo) List(ctx context.Context) ([]domain.Installation, error) {
	const q = `
		SELECT team_id, team_name, bot_token, bot_user_id, installed_at
		FROM installations
		ORDER BY team_id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.InstallationRepo.List: %w", err)
	}
	defer rows.Close()

	out := []domain.Installation{}
	for rows.Next() {
		inst, err := scanInstallation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.InstallationRepo.List: scan: %w", err)
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.InstallationRepo.List: rows: %w", err)
	}
	return out, nil
}

// Delete removes a team's installation.
func (r *pgInstallationRepo) Delete(ctx context.Context, teamID string) error {
	const q = `DELETE FROM installations WHERE team_id = @team_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"team_id": teamID})
	if err != nil {
		return fmt.Errorf("repo.InstallationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.InstallationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanInstallation maps a single database row into a domain.Installation.
func scanInstallation(s scanner) (domain.Installation, error) {
	var inst domain.Installation
	err := s.Scan(&inst.TeamID, &inst.TeamName, &inst.BotToken, &inst.BotUserID, &inst.InstalledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Installation{}, domain.ErrNotFound
		}
		return domain.Installation{}, err
	}
	return inst, nil
}
