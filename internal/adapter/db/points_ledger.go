package db

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"typeb/internal/core/ports"
)

const mysqlErrDuplicateEntry = 1062

// PointsLedger records awards in the points_ledger table. The unique key on
// (member_id, reason) makes the award idempotent at the storage layer: a
// retried award for the same task is swallowed, not double-counted.
type PointsLedger struct {
	db *sqlx.DB
}

var _ ports.PointsLedger = (*PointsLedger)(nil)

func NewPointsLedger(db *sqlx.DB) *PointsLedger {
	return &PointsLedger{db: db}
}

func (l *PointsLedger) Award(ctx context.Context, memberID string, points int, reason string) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO points_ledger (member_id, points, reason, awarded_at) VALUES (?, ?, ?, ?)",
		memberID, points, reason, time.Now().UTC())
	if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == mysqlErrDuplicateEntry {
		return nil
	}
	return err
}
