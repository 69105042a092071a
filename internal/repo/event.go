package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/eventer/internal/domain"
)

// EventRepo defines the persistence operations for Events.
// Every operation is scoped to one team; an event belonging to another team
// behaves exactly like a missing one.
//
// Participant changes and author-gated deletes are each a single conditional
// statement. Nothing here reads a row, decides in Go, and writes it back, so
// concurrent button clicks on the same event serialize on the row lock.
type EventRepo interface {
	// Insert creates a new event with the author as its only participant and
	// returns the persisted record (with DB-generated id and created_at).
	// Returns domain.ErrConflict if the team already has an event that day.
	Insert(ctx context.Context, event domain.Event) (domain.Event, error)

	// List returns the team's events dated on or after from, ordered by
	// date then time ascending.
	List(ctx context.Context, teamID string, from time.Time) ([]domain.Event, error)

	// Get retrieves a single event by id.
	// Returns domain.ErrNotFound if no such event exists for the team.
	Get(ctx context.Context, teamID string, id uuid.UUID) (domain.Event, error)

	// GetByDate retrieves the team's event on the given calendar date.
	// Returns domain.ErrNotFound if the team has no event that day.
	GetByDate(ctx context.Context, teamID string, date time.Time) (domain.Event, error)

	// Join adds user to the participant set. Joining twice is a no-op: the
	// current event is returned with changed=false.
	// Returns domain.ErrNotFound if the event does not exist.
	Join(ctx context.Context, teamID string, id uuid.UUID, user string) (event domain.Event, changed bool, err error)

	// Leave removes user from the participant set. Leaving an event the user
	// never joined is a no-op: the current event is returned with changed=false.
	// Returns domain.ErrNotFound if the event does not exist.
	Leave(ctx context.Context, teamID string, id uuid.UUID, user string) (event domain.Event, changed bool, err error)

	// Delete removes the event only if author matches the stored author, and
	// returns the deleted record.
	// Returns domain.ErrNotAuthor if the event exists but belongs to someone
	// else, and domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, teamID string, id uuid.UUID, author string) (domain.Event, error)
}

// pgEventRepo is the Postgres implementation of EventRepo.
type pgEventRepo struct {
	db db
}

// NewEventRepo constructs an EventRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewEventRepo(db db) EventRepo {
	return &pgEventRepo{db: db}
}

const eventColumns = `id, team_id, date, time, location, description, participants, author, created_at`

// Insert stores a new event. Participants is always initialised to the author
// in SQL, whatever the caller put in event.Participants.
func (r *pgEventRepo) Insert(ctx context.Context, event domain.Event) (domain.Event, error) {
	const q = `
		INSERT INTO events (team_id, date, time, location, description, participants, author)
		VALUES (@team_id, @date, @time, @location, @description, ARRAY[@author::text], @author)
		RETURNING ` + eventColumns

	args := pgx.NamedArgs{
		"team_id":     event.TeamID,
		"date":        event.Date,
		"time":        event.Time,
		"location":    event.Location,
		"description": event.Description,
		"author":      event.Author,
	}

	result, err := scanEvent(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Event{}, fmt.Errorf("repo.EventRepo.Insert: %w", domain.ErrConflict)
		}
		return domain.Event{}, fmt.Errorf("repo.EventRepo.Insert: %w", err)
	}
	return result, nil
}

// List returns upcoming events for the team ordered by (date, time).
func (r *pgEventRepo) List(ctx context.Context, teamID string, from time.Time) ([]domain.Event, error) {
	const q = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE team_id = @team_id AND date >= @from
		ORDER BY date, time`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"team_id": teamID, "from": from})
	if err != nil {
		return nil, fmt.Errorf("repo.EventRepo.List: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.EventRepo.List: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.EventRepo.List: rows: %w", err)
	}
	return events, nil
}

// Get retrieves an event by id within the team.
func (r *pgEventRepo) Get(ctx context.Context, teamID string, id uuid.UUID) (domain.Event, error) {
	const q = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE team_id = @team_id AND id = @id`

	result, err := scanEvent(r.db.QueryRow(ctx, q, pgx.NamedArgs{"team_id": teamID, "id": id}))
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.Get: %w", err)
	}
	return result, nil
}

// GetByDate retrieves the single event the team has on date.
func (r *pgEventRepo) GetByDate(ctx context.Context, teamID string, date time.Time) (domain.Event, error) {
	const q = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE team_id = @team_id AND date = @date`

	result, err := scanEvent(r.db.QueryRow(ctx, q, pgx.NamedArgs{"team_id": teamID, "date": date}))
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.GetByDate: %w", err)
	}
	return result, nil
}

// Join appends user to participants unless already present.
// The guard and the append are one statement; when it matches no row the
// follow-up Get only classifies the outcome and writes nothing.
func (r *pgEventRepo) Join(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	const q = `
		UPDATE events
		SET participants = array_append(participants, @user::text)
		WHERE team_id = @team_id
		  AND id = @id
		  AND NOT (@user::text = ANY(participants))
		RETURNING ` + eventColumns

	return r.updateParticipants(ctx, "Join", q, teamID, id, user)
}

// Leave removes user from participants if present.
func (r *pgEventRepo) Leave(ctx context.Context, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	const q = `
		UPDATE events
		SET participants = array_remove(participants, @user::text)
		WHERE team_id = @team_id
		  AND id = @id
		  AND @user::text = ANY(participants)
		RETURNING ` + eventColumns

	return r.updateParticipants(ctx, "Leave", q, teamID, id, user)
}

// updateParticipants runs a guarded participant update. No matching row means
// either the guard failed (no-op, event returned unchanged) or the event does
// not exist (domain.ErrNotFound).
func (r *pgEventRepo) updateParticipants(ctx context.Context, op, q, teamID string, id uuid.UUID, user string) (domain.Event, bool, error) {
	args := pgx.NamedArgs{"team_id": teamID, "id": id, "user": user}

	result, err := scanEvent(r.db.QueryRow(ctx, q, args))
	if err == nil {
		return result, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Event{}, false, fmt.Errorf("repo.EventRepo.%s: %w", op, err)
	}

	current, err := r.Get(ctx, teamID, id)
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("repo.EventRepo.%s: %w", op, err)
	}
	return current, false, nil
}

// Delete removes the event when author matches, in a single statement.
func (r *pgEventRepo) Delete(ctx context.Context, teamID string, id uuid.UUID, author string) (domain.Event, error) {
	const q = `
		DELETE FROM events
		WHERE team_id = @team_id AND id = @id AND author = @author
		RETURNING ` + eventColumns

	args := pgx.NamedArgs{"team_id": teamID, "id": id, "author": author}

	deleted, err := scanEvent(r.db.QueryRow(ctx, q, args))
	if err == nil {
		return deleted, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.Delete: %w", err)
	}

	if _, err := r.Get(ctx, teamID, id); err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.Delete: %w", err)
	}
	return domain.Event{}, fmt.Errorf("repo.EventRepo.Delete: %w", domain.ErrNotAuthor)
}

// scanEvent maps a single database row into a domain.Event.
// It handles the UUID, date and JSONB location conversions.
func scanEvent(s scanner) (domain.Event, error) {
	var (
		e    domain.Event
		id   pgtype.UUID
		date pgtype.Date
	)

	err := s.Scan(&id, &e.TeamID, &date, &e.Time, &e.Location, &e.Description, &e.Participants, &e.Author, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.Date = date.Time
	if e.Participants == nil {
		e.Participants = []string{}
	}
	return e, nil
}
