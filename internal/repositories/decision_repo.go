package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/mwarner/loginguard/internal/database"
	"github.com/mwarner/loginguard/internal/models"
)

// DecisionRepository is the per-address cache of the most recently computed
// decision. One row per address, upsert semantics.
type DecisionRepository struct {
	db *database.DB
}

// NewDecisionRepository creates a new DecisionRepository
func NewDecisionRepository(db *database.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// Upsert atomically inserts or replaces the decision for an address. The
// single ON CONFLICT statement is what makes concurrent upserts for the
// same address last-writer-wins instead of a lost update.
func (r *DecisionRepository) Upsert(ctx context.Context, address string, decision models.Decision, now int64) error {
	query := `
		INSERT INTO address_decisions (address, decision, last_update)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE
		SET decision = EXCLUDED.decision, last_update = EXCLUDED.last_update
	`

	_, err := r.db.Pool.Exec(ctx, query, address, decision.String(), now)
	return database.MapPostgresError(err)
}

// Read returns the cached decision for an address. A missing row means
// allow; the default is never block.
func (r *DecisionRepository) Read(ctx context.Context, address string) (models.Decision, error) {
	query := `SELECT decision FROM address_decisions WHERE address = $1`

	var raw string
	err := r.db.Pool.QueryRow(ctx, query, address).Scan(&raw)
	if err == pgx.ErrNoRows {
		return models.DecisionAllow, nil
	}
	if err != nil {
		return models.DecisionAllow, database.MapPostgresError(err)
	}

	return models.ParseDecision(raw)
}

// ListBlocked returns every address currently cached as block, with the
// application tag and timestamp of its most recent attempt.
func (r *DecisionRepository) ListBlocked(ctx context.Context) ([]models.BlockedAddress, error) {
	query := `
		SELECT d.address, d.last_update,
		       COALESCE(a.application, ''), COALESCE(a.attempt_time, 0)
		FROM address_decisions d
		LEFT JOIN LATERAL (
			SELECT application, attempt_time FROM login_attempts
			WHERE address = d.address
			ORDER BY attempt_time DESC, id DESC
			LIMIT 1
		) a ON true
		WHERE d.decision = 'block'
		ORDER BY d.last_update DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	var blocked []models.BlockedAddress
	for rows.Next() {
		var b models.BlockedAddress
		if err := rows.Scan(&b.Address, &b.LastUpdate, &b.Application, &b.LastSeen); err != nil {
			return nil, err
		}
		blocked = append(blocked, b)
	}

	return blocked, rows.Err()
}

// Purge deletes the decision row for an address, reverting it to the
// implicit allow default.
func (r *DecisionRepository) Purge(ctx context.Context, address string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM address_decisions WHERE address = $1`, address)
	return database.MapPostgresError(err)
}

// PurgeTx is Purge inside an existing transaction.
func (r *DecisionRepository) PurgeTx(ctx context.Context, tx pgx.Tx, address string) error {
	_, err := tx.Exec(ctx, `DELETE FROM address_decisions WHERE address = $1`, address)
	return database.MapPostgresError(err)
}
