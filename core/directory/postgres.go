package directory

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"fleet-admin/core/tier"
	"fleet-admin/internal/errors"
)

// PostgresDirectory is a Directory backed by PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE operators (
//	    id                     TEXT PRIMARY KEY,
//	    name                   TEXT NOT NULL,
//	    tier                   TEXT NOT NULL,
//	    region                 TEXT NOT NULL,
//	    score                  DOUBLE PRECISION,
//	    tenure_months          INTEGER,
//	    payment_consistency    DOUBLE PRECISION,
//	    utilization_percentile DOUBLE PRECISION,
//	    commission_base        NUMERIC(14,2) NOT NULL DEFAULT 0
//	);
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory wraps an open database handle
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// Get returns the operator snapshot
func (d *PostgresDirectory) Get(ctx context.Context, id string) (*OperatorSnapshot, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, tier, region,
		       score, tenure_months, payment_consistency, utilization_percentile,
		       commission_base
		FROM operators WHERE id = $1`, id)

	var (
		snap     OperatorSnapshot
		tierName string
		base     string
	)
	err := row.Scan(&snap.ID, &snap.Name, &tierName, &snap.Region,
		&snap.Metrics.Score, &snap.Metrics.TenureMonths,
		&snap.Metrics.PaymentConsistency, &snap.Metrics.UtilizationPercentile,
		&base)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("operator", id)
	}
	if err != nil {
		return nil, errors.Persistence("loading operator "+id, err)
	}

	snap.CurrentTier, err = tier.Parse(tierName)
	if err != nil {
		return nil, errors.Persistence("operator "+id+" has invalid stored tier "+tierName, err)
	}
	snap.CommissionBase, err = decimal.NewFromString(base)
	if err != nil {
		return nil, errors.Persistence("operator "+id+" has invalid commission base", err)
	}
	return &snap, nil
}

// UpdateTier applies a compare-and-swap tier update. The WHERE clause on
// the current tier makes the update atomic: zero rows affected means a
// concurrent change won.
func (d *PostgresDirectory) UpdateTier(ctx context.Context, id string, from, to tier.Tier) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE operators SET tier = $1 WHERE id = $2 AND tier = $3`,
		to.String(), id, from.String())
	if err != nil {
		return errors.Persistence("updating tier for operator "+id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Persistence("checking tier update for operator "+id, err)
	}
	if affected == 0 {
		return errors.Persistence("tier changed concurrently for operator "+id, nil).
			WithContext("expected", from.String())
	}
	return nil
}
