package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/2019tarikul/notify-server/internal/errs"
)

// classify maps a driver error onto the store error taxonomy so callers can
// match with errors.Is. The driver error stays in the chain for diagnostics.
// Context cancellation passes through untouched: the caller gave up, the store
// did not fail.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%w: %w", errs.ErrConflict, err)
		case isTransientCode(pgErr.Code):
			return fmt.Errorf("%w: %w", errs.ErrStoreTransient, err)
		default:
			return fmt.Errorf("%w: %w", errs.ErrStoreFatal, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", errs.ErrStoreTransient, err)
	}
	return fmt.Errorf("%w: %w", errs.ErrStoreFatal, err)
}

// isTransientCode reports whether a SQLSTATE names a condition that can succeed
// on retry: connection failures (class 08), serialization failure, deadlock,
// admin shutdown, connection slots exhausted.
func isTransientCode(code string) bool {
	switch code {
	case "40001", "40P01", "57P01", "57P02", "57P03", "53300":
		return true
	}
	return strings.HasPrefix(code, "08")
}
