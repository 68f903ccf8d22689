package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// replaceScopes swaps a subscriber's scope rows for the given set. It runs on
// the caller's transaction so the delete and insert land atomically with the
// subscriber write itself.
func replaceScopes(ctx context.Context, tx pgx.Tx, subscriber uuid.UUID, scope model.ScopeSet) error {
	const del = `DELETE FROM subscriber_scope WHERE subscriber=$1`
	if _, err := tx.Exec(ctx, del, subscriber); err != nil {
		return classify(err)
	}
	if len(scope) == 0 {
		return nil
	}

	const ins = `
INSERT INTO subscriber_scope (subscriber, name)
SELECT $1, unnest($2::text[])`
	if _, err := tx.Exec(ctx, ins, subscriber, scope.Strings()); err != nil {
		return classify(err)
	}
	return nil
}
