package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/keys"
	"github.com/2019tarikul/notify-server/internal/model"
	"github.com/2019tarikul/notify-server/internal/repository"
)

// SubscriptionService defines subscription lifecycle and lookup operations.
type SubscriptionService interface {
	// Subscribe creates or refreshes an account's subscription to a project.
	// A fresh notify key is generated on every call, so re-subscribing rotates
	// the key and the topic.
	Subscribe(ctx context.Context, projectID model.ProjectID, account model.AccountID, scope model.ScopeSet) (model.SubscriptionGrant, error)
	// Renew extends a subscription's expiry and replaces its scope without
	// touching the notify key. Fails with errs.ErrNotFound when the account
	// has no subscription to the project.
	Renew(ctx context.Context, projectID model.ProjectID, account model.AccountID, scope model.ScopeSet) (*model.Subscriber, error)
	// Unsubscribe removes a subscription by id. Removing an id that is already
	// gone succeeds.
	Unsubscribe(ctx context.Context, id uuid.UUID) error

	// GetByTopic returns the subscription listening on a notify topic.
	GetByTopic(ctx context.Context, topic model.Topic) (*model.SubscriberWithScope, error)
	// GetForProjectIn returns a project's subscriptions restricted to the
	// given accounts, for notification fan-out.
	GetForProjectIn(ctx context.Context, projectID model.ProjectID, accounts []model.AccountID) ([]model.SubscriberWithScope, error)
	// ListForAccount returns every subscription of an account.
	ListForAccount(ctx context.Context, account model.AccountID) ([]model.SubscriberWithProject, error)
	// ListForAccountAndApp returns an account's subscriptions for one app.
	ListForAccountAndApp(ctx context.Context, account model.AccountID, appDomain string) ([]model.SubscriberWithProject, error)
	// ListAccounts returns the accounts subscribed to a project.
	ListAccounts(ctx context.Context, projectID model.ProjectID) ([]model.AccountID, error)
	// ListAccountScopes returns subscribed accounts with their scope sets.
	ListAccountScopes(ctx context.Context, projectID model.ProjectID) ([]model.AccountScopes, error)
	// ListTopics returns every subscriber topic, for relay resubscription.
	ListTopics(ctx context.Context) ([]model.Topic, error)
}

type SubscriptionServiceImpl struct {
	projects    repository.ProjectRepository
	subscribers repository.SubscriberRepository
}

// NewSubscriptionService constructs SubscriptionService with required dependencies.
func NewSubscriptionService(projects repository.ProjectRepository, subscribers repository.SubscriberRepository) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{projects: projects, subscribers: subscribers}
}

// Subscribe generates a notify key, derives its topic and upserts the
// subscription in one store transaction together with the scope replace.
func (s *SubscriptionServiceImpl) Subscribe(
	ctx context.Context, projectID model.ProjectID, account model.AccountID, scope model.ScopeSet,
) (model.SubscriptionGrant, error) {
	if projectID == "" || account == "" {
		return model.SubscriptionGrant{}, errors.New("validation: empty project_id/account")
	}
	project, err := resolveProject(ctx, s.projects, projectID)
	if err != nil {
		return model.SubscriptionGrant{}, err
	}

	key, err := keys.GenerateNotifyKey()
	if err != nil {
		return model.SubscriptionGrant{}, err
	}
	symKey := keys.EncodeSymKey(key)
	topic := keys.TopicFromKey(key[:])

	id, err := s.subscribers.Upsert(ctx, project, account, scope, symKey, topic)
	if err != nil {
		return model.SubscriptionGrant{}, err
	}
	return model.SubscriptionGrant{ID: id, SymKey: symKey, Topic: topic}, nil
}

// Renew extends expiry and replaces scope, keeping key material intact.
func (s *SubscriptionServiceImpl) Renew(
	ctx context.Context, projectID model.ProjectID, account model.AccountID, scope model.ScopeSet,
) (*model.Subscriber, error) {
	if projectID == "" || account == "" {
		return nil, errors.New("validation: empty project_id/account")
	}
	project, err := resolveProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}
	return s.subscribers.Update(ctx, project, account, scope)
}

// Unsubscribe deletes a subscription by row id.
func (s *SubscriptionServiceImpl) Unsubscribe(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("validation: empty id")
	}
	return s.subscribers.Delete(ctx, id)
}

// GetByTopic fetches the subscription bound to a notify topic.
func (s *SubscriptionServiceImpl) GetByTopic(ctx context.Context, topic model.Topic) (*model.SubscriberWithScope, error) {
	if topic == "" {
		return nil, errors.New("validation: empty topic")
	}
	return s.subscribers.GetByTopic(ctx, topic)
}

// GetForProjectIn resolves the project and fetches its subscriptions for the
// given accounts. An empty account list short-circuits to no results.
func (s *SubscriptionServiceImpl) GetForProjectIn(
	ctx context.Context, projectID model.ProjectID, accounts []model.AccountID,
) ([]model.SubscriberWithScope, error) {
	if projectID == "" {
		return nil, errors.New("validation: empty project_id")
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	project, err := resolveProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}
	return s.subscribers.GetForProjectIn(ctx, project, accounts)
}

// ListForAccount returns the account's subscriptions across every project.
func (s *SubscriptionServiceImpl) ListForAccount(ctx context.Context, account model.AccountID) ([]model.SubscriberWithProject, error) {
	if account == "" {
		return nil, errors.New("validation: empty account")
	}
	return s.subscribers.GetByAccount(ctx, account)
}

// ListForAccountAndApp returns the account's subscriptions for one app domain.
func (s *SubscriptionServiceImpl) ListForAccountAndApp(
	ctx context.Context, account model.AccountID, appDomain string,
) ([]model.SubscriberWithProject, error) {
	if account == "" || appDomain == "" {
		return nil, errors.New("validation: empty account/app_domain")
	}
	return s.subscribers.GetByAccountAndApp(ctx, account, appDomain)
}

// ListAccounts returns subscribed accounts of a project.
func (s *SubscriptionServiceImpl) ListAccounts(ctx context.Context, projectID model.ProjectID) ([]model.AccountID, error) {
	if projectID == "" {
		return nil, errors.New("validation: empty project_id")
	}
	return s.subscribers.ListAccountsByProject(ctx, projectID)
}

// ListAccountScopes returns subscribed accounts of a project with scopes.
func (s *SubscriptionServiceImpl) ListAccountScopes(ctx context.Context, projectID model.ProjectID) ([]model.AccountScopes, error) {
	if projectID == "" {
		return nil, errors.New("validation: empty project_id")
	}
	return s.subscribers.ListAccountScopesByProject(ctx, projectID)
}

// ListTopics returns every subscriber topic.
func (s *SubscriptionServiceImpl) ListTopics(ctx context.Context) ([]model.Topic, error) {
	return s.subscribers.ListTopics(ctx)
}
