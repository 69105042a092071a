package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// OAuthStateRepo stores the one-time state tokens that guard the OAuth
// install handshake against CSRF. A state is valid once and only until it
// expires.
type OAuthStateRepo interface {
	// Issue stores state, valid for ttl from now.
	Issue(ctx context.Context, state string, ttl time.Duration) error

	// Consume deletes state and reports whether it existed and had not
	// expired. A second Consume of the same state always reports false.
	Consume(ctx context.Context, state string) (bool, error)

	// DeleteExpired removes states past their expiry and returns how many
	// were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// pgOAuthStateRepo is the Postgres implementation of OAuthStateRepo.
type pgOAuthStateRepo struct {
	db db
}

// NewOAuthStateRepo constructs an OAuthStateRepo backed by the provided db connection.
func NewOAuthStateRepo(db db) OAuthStateRepo {
	return &pgOAuthStateRepo{db: db}
}

// Issue inserts a new state row.
func (r *pgOAuthStateRepo) Issue(ctx context.Context, state string, ttl time.Duration) error {
	const q = `
		INSERT INTO oauth_states (state, expires_at)
		VALUES (@state, now() + make_interval(secs => @ttl_seconds::float8))`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"state": state, "ttl_seconds": ttl.Seconds()})
	if err != nil {
		return fmt.Errorf("repo.OAuthStateRepo.Issue: %w", err)
	}
	return nil
}

// Consume deletes the row and checks expiry in one statement, so two
// callbacks racing with the same state cannot both succeed.
func (r *pgOAuthStateRepo) Consume(ctx context.Context, state string) (bool, error) {
	const q = `
		DELETE FROM oauth_states
		WHERE state = @state
		RETURNING expires_at > now()`

	var valid bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"state": state}).Scan(&valid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("repo.OAuthStateRepo.Consume: %w", err)
	}
	return valid, nil
}

// DeleteExpired purges stale states.
func (r *pgOAuthStateRepo) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM oauth_states WHERE expires_at <= now()`

	tag, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("repo.OAuthStateRepo.DeleteExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}
