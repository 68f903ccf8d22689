package limiter

import (
	"context"
	"crypto/sha256"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is a PostgreSQL-backed limiter with a fixed window per (project, ip).
type PG struct {
	pool        pgxQuerier
	window      time.Duration
	maxAttempts int
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(pool *pgxpool.Pool, window time.Duration, maxAttempts int) *PG {
	return &PG{pool: pool, window: window, maxAttempts: maxAttempts}
}

// NewPGWithQuerier constructs a PostgreSQL-backed limiter.
func NewPGWithQuerier(q pgxQuerier, window time.Duration, maxAttempts int) *PG {
	return &PG{pool: q, window: window, maxAttempts: maxAttempts}
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Allow reports whether registration is currently allowed and a retry-after
// duration when it is not.
func (l *PG) Allow(ctx context.Context, projectID string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT attempt_count, window_started FROM registration_limiter WHERE project_id=$1 AND ip_hash=$2`
	var count int
	var started time.Time
	err := l.pool.QueryRow(ctx, q, projectID, ipHash).Scan(&count, &started)
	switch err {
	case nil:
		windowEnd := started.Add(l.window)
		if time.Now().After(windowEnd) {
			return true, 0, nil
		}
		if count >= l.maxAttempts {
			return false, time.Until(windowEnd), nil
		}
		return true, 0, nil
	case pgx.ErrNoRows:
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Record counts an attempt for (project, ip), starting a fresh window when the
// previous one has lapsed.
func (l *PG) Record(ctx context.Context, projectID string, ipHash []byte) error {
	const q = `
INSERT INTO registration_limiter (project_id, ip_hash, attempt_count, window_started, updated_at)
VALUES ($1,$2,1,now(),now())
ON CONFLICT (project_id, ip_hash) DO UPDATE
SET
  attempt_count = CASE WHEN now() - registration_limiter.window_started > $3::interval THEN 1 ELSE registration_limiter.attempt_count + 1 END,
  window_started = CASE WHEN now() - registration_limiter.window_started > $3::interval THEN now() ELSE registration_limiter.window_started END,
  updated_at = now()`
	_, err := l.pool.Exec(ctx, q, projectID, ipHash, l.window)
	return err
}
