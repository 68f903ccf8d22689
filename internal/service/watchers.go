package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/model"
	"github.com/2019tarikul/notify-server/internal/repository"
)

// WatcherService defines delegated key-management session operations.
type WatcherService interface {
	// Watch registers or refreshes a watcher session for an account. An empty
	// appDomain registers a session covering every app; otherwise the session
	// is bound to the project serving that domain.
	Watch(ctx context.Context, account model.AccountID, appDomain, didKey, symKey string) error
	// Active returns the account's unexpired sessions that are global or bound
	// to the given app domain.
	Active(ctx context.Context, account model.AccountID, appDomain string) ([]model.WatcherSession, error)
	// SweepExpired removes every expired session and returns how many.
	SweepExpired(ctx context.Context) (int64, error)
}

type WatcherServiceImpl struct {
	projects repository.ProjectRepository
	watchers repository.WatcherRepository
	ttl      time.Duration
}

// NewWatcherService constructs WatcherService. ttl bounds how long a session
// stays active after each Watch call.
func NewWatcherService(projects repository.ProjectRepository, watchers repository.WatcherRepository, ttl time.Duration) *WatcherServiceImpl {
	if ttl <= 0 {
		ttl = model.SubscriptionTTL
	}
	return &WatcherServiceImpl{projects: projects, watchers: watchers, ttl: ttl}
}

// Watch upserts a session keyed by did key. Repeating the call pushes the
// expiry forward; a different account or app on the same did key takes the
// session over.
func (s *WatcherServiceImpl) Watch(ctx context.Context, account model.AccountID, appDomain, didKey, symKey string) error {
	if account == "" || didKey == "" || symKey == "" {
		return errors.New("validation: empty account/did_key/sym_key")
	}

	var project *uuid.UUID
	if appDomain != "" {
		p, err := s.projects.GetByAppDomain(ctx, appDomain)
		if err != nil {
			return err
		}
		project = &p.ID
	}

	expiry := time.Now().Add(s.ttl)
	return s.watchers.Upsert(ctx, account, project, didKey, symKey, expiry)
}

// Active lists the account's live sessions for an app domain.
func (s *WatcherServiceImpl) Active(ctx context.Context, account model.AccountID, appDomain string) ([]model.WatcherSession, error) {
	if account == "" {
		return nil, errors.New("validation: empty account")
	}
	return s.watchers.GetActiveForAccount(ctx, account, appDomain)
}

// SweepExpired delegates to the repository.
func (s *WatcherServiceImpl) SweepExpired(ctx context.Context) (int64, error) {
	return s.watchers.SweepExpired(ctx)
}
