package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/CatchLog_Go/internal/logger"
)

// SafeRollback rolls back a transaction and logs any error that isn't ErrTxClosed
func SafeRollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
	}
}

// hashAccount creates a consistent int64 advisory lock key for an account
func hashAccount(accountID string) int64 {
	h := sha256.Sum256([]byte(AccountLockNamespace + accountID))
	return int64(binary.BigEndian.Uint64(h[:8]) & HashMaskPositiveInt64)
}

// zoneOffset returns t's UTC offset in seconds
func zoneOffset(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

// inOffset restores a stored instant to the fixed zone it was recorded in
func inOffset(t time.Time, offset int) time.Time {
	if offset == 0 {
		return t.UTC()
	}
	return t.In(time.FixedZone("", offset))
}

// nilIfNoRows maps pgx.ErrNoRows to a nil error for optional lookups
func nilIfNoRows(err error) (bool, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
