package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// SubscriberRepo implements SubscriberRepository using PostgreSQL.
type SubscriberRepo struct{ db *DB }

// NewSubscriberRepo constructs a subscriber repository.
func NewSubscriberRepo(db *DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

// Upsert creates or refreshes a subscription and replaces its scope set in one
// transaction. On conflict on (project, account) the sym key, topic and expiry
// are overwritten.
func (r *SubscriberRepo) Upsert(
	ctx context.Context, project uuid.UUID, account model.AccountID,
	scope model.ScopeSet, symKey string, topic model.Topic,
) (id uuid.UUID, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = classify(e)
		}
	}()

	const q = `
INSERT INTO subscriber (
    project,
    account,
    sym_key,
    topic,
    expiry
)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (project, account) DO UPDATE SET
    updated_at=now(),
    sym_key=$3,
    topic=$4,
    expiry=$5
RETURNING id`

	expiry := time.Now().Add(model.SubscriptionTTL)
	if err = tx.QueryRow(ctx, q, project, string(account), symKey, string(topic), expiry).Scan(&id); err != nil {
		return uuid.Nil, classify(err)
	}
	if err = replaceScopes(ctx, tx, id, scope); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Update renews a subscription's expiry and replaces its scope set without
// touching key material. Returns errs.ErrNotFound when (project, account) has
// no subscription.
func (r *SubscriberRepo) Update(
	ctx context.Context, project uuid.UUID, account model.AccountID, scope model.ScopeSet,
) (sub *model.Subscriber, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = classify(e)
		}
	}()

	const q = `
UPDATE subscriber
SET updated_at=now(),
    expiry=$1
WHERE project=$2 AND account=$3
RETURNING id, project, account, sym_key, topic, expiry, created_at, updated_at`

	var (
		s             model.Subscriber
		acc, topicStr string
	)
	expiry := time.Now().Add(model.SubscriptionTTL)
	err = tx.QueryRow(ctx, q, expiry, project, string(account)).Scan(
		&s.ID, &s.Project, &acc, &s.SymKey, &topicStr,
		&s.Expiry, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	s.Account = model.AccountID(acc)
	s.Topic = model.Topic(topicStr)

	if err = replaceScopes(ctx, tx, s.ID, scope); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a subscription. Scope rows cascade with the subscriber row.
// Deleting an id that does not exist is not an error.
func (r *SubscriberRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM subscriber WHERE id=$1`
	if _, err := r.db.Pool.Exec(ctx, q, id); err != nil {
		return classify(err)
	}
	return nil
}
