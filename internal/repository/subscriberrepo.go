package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// SubscriberRepository persists subscriptions and their scope sets. Every
// mutation that touches both the subscriber row and its scope rows happens in
// one transaction.
type SubscriberRepository interface {
	// Upsert creates or refreshes a subscription keyed by (project, account):
	// sym key and topic are overwritten, expiry moves to now plus the
	// subscription TTL, and the scope set is replaced atomically. Returns the
	// subscriber row id.
	Upsert(ctx context.Context, project uuid.UUID, account model.AccountID, scope model.ScopeSet, symKey string, topic model.Topic) (uuid.UUID, error)
	// Update renews a subscription's expiry and replaces its scope set without
	// touching key material. Returns errs.ErrNotFound when no subscription
	// exists for (project, account).
	Update(ctx context.Context, project uuid.UUID, account model.AccountID, scope model.ScopeSet) (*model.Subscriber, error)
	// Delete removes a subscription and its scope rows. Deleting an absent id
	// is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByTopic loads the single subscription bound to a notify topic.
	GetByTopic(ctx context.Context, topic model.Topic) (*model.SubscriberWithScope, error)
	// GetForProjectIn returns the subscriptions of a project restricted to the
	// given accounts.
	GetForProjectIn(ctx context.Context, project uuid.UUID, accounts []model.AccountID) ([]model.SubscriberWithScope, error)
	// GetByAccount returns every subscription of an account across projects.
	GetByAccount(ctx context.Context, account model.AccountID) ([]model.SubscriberWithProject, error)
	// GetByAccountAndApp returns an account's subscriptions for one app domain.
	GetByAccountAndApp(ctx context.Context, account model.AccountID, appDomain string) ([]model.SubscriberWithProject, error)
	// ListAccountsByProject returns the accounts subscribed to a project.
	ListAccountsByProject(ctx context.Context, projectID model.ProjectID) ([]model.AccountID, error)
	// ListAccountScopesByProject returns subscribed accounts together with
	// their scope sets.
	ListAccountScopesByProject(ctx context.Context, projectID model.ProjectID) ([]model.AccountScopes, error)
	// ListTopics returns every subscriber notify topic, unordered.
	ListTopics(ctx context.Context) ([]model.Topic, error)
}
