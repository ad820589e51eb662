package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/lib/pq"

	"fleet-admin/internal/errors"
	"fleet-admin/internal/retry"
)

// PostgresSink appends audit entries to PostgreSQL. Insert-only: nothing
// in this package updates or deletes rows.
//
// Expected schema:
//
//	CREATE TABLE tier_audit (
//	    id             TEXT PRIMARY KEY,
//	    ts             TIMESTAMPTZ NOT NULL,
//	    operator_id    TEXT NOT NULL,
//	    actor_id       TEXT NOT NULL,
//	    previous_tier  TEXT NOT NULL,
//	    new_tier       TEXT NOT NULL,
//	    outcome        TEXT NOT NULL,
//	    reason_code    TEXT,
//	    qualification  JSONB,
//	    policy_version TEXT,
//	    notes          TEXT
//	);
type PostgresSink struct {
	db    *sql.DB
	retry retry.Config
}

// NewPostgresSink wraps an open database handle
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db, retry: retry.DefaultConfig()}
}

// Append inserts the entry, retrying transient failures before surfacing
func (s *PostgresSink) Append(ctx context.Context, entry Entry) error {
	var qual []byte
	if entry.Qualification != nil {
		var err error
		qual, err = json.Marshal(entry.Qualification)
		if err != nil {
			return errors.Internal("marshaling qualification snapshot", err)
		}
	}

	err := retry.Do(s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO tier_audit
			    (id, ts, operator_id, actor_id, previous_tier, new_tier,
			     outcome, reason_code, qualification, policy_version, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			entry.ID, entry.Timestamp, entry.OperatorID, entry.ActorID,
			entry.PreviousTier.String(), entry.NewTier.String(),
			string(entry.Outcome), nullable(entry.ReasonCode), nullableBytes(qual),
			nullable(entry.PolicyVersion), nullable(entry.Notes))
		return err
	})
	if err != nil {
		return errors.Persistence("appending audit entry "+entry.ID, err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
