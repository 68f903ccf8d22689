package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// WatcherRepo implements WatcherRepository using PostgreSQL.
type WatcherRepo struct{ db *DB }

// NewWatcherRepo constructs a subscription watcher repository.
func NewWatcherRepo(db *DB) *WatcherRepo { return &WatcherRepo{db: db} }

// Upsert creates or refreshes a watcher keyed by its did key. A nil project
// registers a watcher covering every app.
func (r *WatcherRepo) Upsert(
	ctx context.Context, account model.AccountID, project *uuid.UUID,
	didKey, symKey string, expiry time.Time,
) error {
	const q = `
INSERT INTO subscription_watcher (
    account,
    project,
    did_key,
    sym_key,
    expiry
)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (did_key) DO UPDATE SET
    updated_at=now(),
    account=$1,
    project=$2,
    sym_key=$4,
    expiry=$5`

	if _, err := r.db.Pool.Exec(ctx, q, string(account), project, didKey, symKey, expiry); err != nil {
		return classify(err)
	}
	return nil
}

// GetActiveForAccount returns unexpired watchers of an account that are either
// global or bound to a project with the given app domain. Expired rows are
// invisible here even before the sweep removes them.
func (r *WatcherRepo) GetActiveForAccount(
	ctx context.Context, account model.AccountID, appDomain string,
) ([]model.WatcherSession, error) {
	const q = `
SELECT subscription_watcher.project, did_key, sym_key
FROM subscription_watcher
LEFT JOIN project ON project.id=subscription_watcher.project
WHERE expiry > now() AND account=$1 AND (subscription_watcher.project IS NULL OR project.app_domain=$2)`

	rows, err := r.db.Pool.Query(ctx, q, string(account), appDomain)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.WatcherSession
	for rows.Next() {
		var w model.WatcherSession
		if err := rows.Scan(&w.Project, &w.DidKey, &w.SymKey); err != nil {
			return nil, classify(err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// SweepExpired hard-deletes every watcher whose expiry has passed and reports
// how many rows went away.
func (r *WatcherRepo) SweepExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM subscription_watcher WHERE expiry <= now()`
	tag, err := r.db.Pool.Exec(ctx, q)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}
