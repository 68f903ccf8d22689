package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// Scope names are aggregated per subscriber and decoded leniently: values
// that are not UUIDs are dropped rather than failing the whole row.

const subscriberWithScopeColumns = `subscriber.id, project, account, sym_key, ` +
	`array_agg(subscriber_scope.name) as scope, topic, expiry`

// GetByTopic loads the single subscription bound to a notify topic.
func (r *SubscriberRepo) GetByTopic(ctx context.Context, topic model.Topic) (*model.SubscriberWithScope, error) {
	const q = `
SELECT ` + subscriberWithScopeColumns + `
FROM subscriber
JOIN subscriber_scope ON subscriber_scope.subscriber=subscriber.id
WHERE topic=$1
GROUP BY subscriber.id, project, account, sym_key, topic, expiry`

	s, err := scanSubscriberWithScope(r.db.Pool.QueryRow(ctx, q, string(topic)))
	if err != nil {
		return nil, classify(err)
	}
	return s, nil
}

// GetForProjectIn returns a project's subscriptions restricted to the given
// accounts.
func (r *SubscriberRepo) GetForProjectIn(
	ctx context.Context, project uuid.UUID, accounts []model.AccountID,
) ([]model.SubscriberWithScope, error) {
	const q = `
SELECT ` + subscriberWithScopeColumns + `
FROM subscriber
JOIN subscriber_scope ON subscriber_scope.subscriber=subscriber.id
WHERE project=$1 AND account = ANY($2)
GROUP BY subscriber.id, project, account, sym_key, topic, expiry`

	rows, err := r.db.Pool.Query(ctx, q, project, accountStrings(accounts))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.SubscriberWithScope
	for rows.Next() {
		s, err := scanSubscriberWithScope(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

const subscriberWithProjectColumns = `app_domain, project.authentication_public_key, ` +
	`account, sym_key, array_agg(subscriber_scope.name) as scope, expiry`

// GetByAccount returns every subscription of an account across projects.
func (r *SubscriberRepo) GetByAccount(ctx context.Context, account model.AccountID) ([]model.SubscriberWithProject, error) {
	const q = `
SELECT ` + subscriberWithProjectColumns + `
FROM subscriber
JOIN project ON project.id=subscriber.project
JOIN subscriber_scope ON subscriber_scope.subscriber=subscriber.id
WHERE account=$1
GROUP BY app_domain, project.authentication_public_key, account, sym_key, expiry`

	return r.queryWithProject(ctx, q, string(account))
}

// GetByAccountAndApp returns an account's subscriptions for one app domain.
func (r *SubscriberRepo) GetByAccountAndApp(
	ctx context.Context, account model.AccountID, appDomain string,
) ([]model.SubscriberWithProject, error) {
	const q = `
SELECT ` + subscriberWithProjectColumns + `
FROM subscriber
JOIN project ON project.id=subscriber.project
JOIN subscriber_scope ON subscriber_scope.subscriber=subscriber.id
WHERE account=$1 AND project.app_domain=$2
GROUP BY app_domain, project.authentication_public_key, account, sym_key, expiry`

	return r.queryWithProject(ctx, q, string(account), appDomain)
}

// ListAccountsByProject returns the accounts subscribed to a project.
func (r *SubscriberRepo) ListAccountsByProject(ctx context.Context, projectID model.ProjectID) ([]model.AccountID, error) {
	const q = `
SELECT account
FROM subscriber
JOIN project ON project.id=subscriber.project
WHERE project.project_id=$1`

	rows, err := r.db.Pool.Query(ctx, q, string(projectID))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.AccountID
	for rows.Next() {
		var acc string
		if err := rows.Scan(&acc); err != nil {
			return nil, classify(err)
		}
		out = append(out, model.AccountID(acc))
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ListAccountScopesByProject returns subscribed accounts with their scope sets.
func (r *SubscriberRepo) ListAccountScopesByProject(ctx context.Context, projectID model.ProjectID) ([]model.AccountScopes, error) {
	const q = `
SELECT account, array_agg(subscriber_scope.name) as scope
FROM subscriber
JOIN project ON project.id=subscriber.project
JOIN subscriber_scope ON subscriber_scope.subscriber=subscriber.id
WHERE project.project_id=$1
GROUP BY account`

	rows, err := r.db.Pool.Query(ctx, q, string(projectID))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.AccountScopes
	for rows.Next() {
		var (
			acc   string
			scope []string
		)
		if err := rows.Scan(&acc, &scope); err != nil {
			return nil, classify(err)
		}
		out = append(out, model.AccountScopes{
			Account: model.AccountID(acc),
			Scope:   model.ParseScopeNames(scope),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ListTopics returns every subscriber notify topic, unordered.
func (r *SubscriberRepo) ListTopics(ctx context.Context) ([]model.Topic, error) {
	const q = `SELECT topic FROM subscriber`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.Topic
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, classify(err)
		}
		out = append(out, model.Topic(t))
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *SubscriberRepo) queryWithProject(ctx context.Context, q string, args ...any) ([]model.SubscriberWithProject, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.SubscriberWithProject
	for rows.Next() {
		var (
			s     model.SubscriberWithProject
			acc   string
			scope []string
		)
		err := rows.Scan(&s.AppDomain, &s.AuthenticationPublicKey, &acc, &s.SymKey, &scope, &s.Expiry)
		if err != nil {
			return nil, classify(err)
		}
		s.Account = model.AccountID(acc)
		s.Scope = model.ParseScopeNames(scope)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func scanSubscriberWithScope(row pgx.Row) (*model.SubscriberWithScope, error) {
	var (
		s          model.SubscriberWithScope
		acc, topic string
		scope      []string
	)
	err := row.Scan(&s.ID, &s.Project, &acc, &s.SymKey, &scope, &topic, &s.Expiry)
	if err != nil {
		return nil, err
	}
	s.Account = model.AccountID(acc)
	s.Topic = model.Topic(topic)
	s.Scope = model.ParseScopeNames(scope)
	return &s, nil
}

func accountStrings(accounts []model.AccountID) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, string(a))
	}
	return out
}
