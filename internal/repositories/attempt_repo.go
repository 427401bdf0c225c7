package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/mwarner/loginguard/internal/database"
	"github.com/mwarner/loginguard/internal/models"
)

// AttemptRepository is the append-only ledger of login attempts.
type AttemptRepository struct {
	db *database.DB
}

// NewAttemptRepository creates a new AttemptRepository
func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Append durably records an attempt and returns its assigned id. The row is
// visible to the next QueryWindow as soon as Append returns.
func (r *AttemptRepository) Append(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	query := `
		INSERT INTO login_attempts (attempt_time, address, username, success, user_agent, application)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.Pool.QueryRow(ctx, query,
		attempt.AttemptTime,
		attempt.Address,
		attempt.Username,
		attempt.Success,
		attempt.UserAgent,
		attempt.Application,
	).Scan(&id)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return id, nil
}

// QueryWindow returns the attempts for an address with attempt_time >=
// windowStart, ascending by timestamp.
func (r *AttemptRepository) QueryWindow(ctx context.Context, address string, windowStart int64) ([]models.AttemptSample, error) {
	query := `
		SELECT attempt_time, username, success FROM login_attempts
		WHERE address = $1 AND attempt_time >= $2
		ORDER BY attempt_time ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, address, windowStart)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	var samples []models.AttemptSample
	for rows.Next() {
		var s models.AttemptSample
		if err := rows.Scan(&s.Timestamp, &s.Username, &s.Success); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// RecentAttempts returns the most recent attempts across all addresses,
// newest first, for the administrative view.
func (r *AttemptRepository) RecentAttempts(ctx context.Context, limit int) ([]models.LoginAttempt, error) {
	query := `
		SELECT id, attempt_time, address, username, success, user_agent, application
		FROM login_attempts
		ORDER BY attempt_time DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	var attempts []models.LoginAttempt
	for rows.Next() {
		var a models.LoginAttempt
		if err := rows.Scan(&a.ID, &a.AttemptTime, &a.Address, &a.Username, &a.Success, &a.UserAgent, &a.Application); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// PruneOlderThan deletes every attempt older than the cutoff, across all
// addresses. Used by the retention sweep.
func (r *AttemptRepository) PruneOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE attempt_time < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

// Purge removes all ledger rows for an address. An empty application purges
// every application; otherwise only rows carrying that tag are removed.
func (r *AttemptRepository) Purge(ctx context.Context, address, application string) error {
	if application == "" {
		_, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE address = $1`, address)
		return database.MapPostgresError(err)
	}

	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM login_attempts WHERE address = $1 AND application = $2`,
		address, application)
	return database.MapPostgresError(err)
}

// PurgeTx is Purge inside an existing transaction.
func (r *AttemptRepository) PurgeTx(ctx context.Context, tx pgx.Tx, address, application string) error {
	if application == "" {
		_, err := tx.Exec(ctx, `DELETE FROM login_attempts WHERE address = $1`, address)
		return database.MapPostgresError(err)
	}

	_, err := tx.Exec(ctx,
		`DELETE FROM login_attempts WHERE address = $1 AND application = $2`,
		address, application)
	return database.MapPostgresError(err)
}
