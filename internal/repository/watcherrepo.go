package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// WatcherRepository persists ephemeral subscription watchers. A watcher is
// visible only while its expiry is in the future; expired rows stay stored
// until the sweep removes them.
type WatcherRepository interface {
	// Upsert creates or refreshes a watcher keyed by its did key. A nil project
	// registers a global watcher covering every app.
	Upsert(ctx context.Context, account model.AccountID, project *uuid.UUID, didKey, symKey string, expiry time.Time) error
	// GetActiveForAccount returns unexpired watchers of an account that are
	// global or scoped to a project with the given app domain.
	GetActiveForAccount(ctx context.Context, account model.AccountID, appDomain string) ([]model.WatcherSession, error)
	// SweepExpired hard-deletes every watcher whose expiry has passed and
	// returns the number removed.
	SweepExpired(ctx context.Context) (int64, error)
}
