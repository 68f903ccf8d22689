// Package service contains application services for projects, subscriptions
// and subscription watchers.
package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/errs"
	"github.com/2019tarikul/notify-server/internal/keys"
	"github.com/2019tarikul/notify-server/internal/limiter"
	"github.com/2019tarikul/notify-server/internal/model"
	"github.com/2019tarikul/notify-server/internal/repository"
)

// ProjectService defines project registration and lookup operations.
type ProjectService interface {
	// RegisterWithIP applies rate-limiting and registers a project. Key
	// material is generated here; on repeated registration the stored keys of
	// the first write are returned.
	RegisterWithIP(ctx context.Context, projectID model.ProjectID, appDomain, ip string) (model.ProjectKeys, error)
	// Get returns a project by external id.
	Get(ctx context.Context, projectID model.ProjectID) (*model.Project, error)
	// GetByAppDomain returns a project by app domain.
	GetByAppDomain(ctx context.Context, appDomain string) (*model.Project, error)
	// GetByTopic returns a project by relay topic.
	GetByTopic(ctx context.Context, topic model.Topic) (*model.Project, error)
	// ListTopics returns every project topic, for relay resubscription.
	ListTopics(ctx context.Context) ([]model.Topic, error)
}

type ProjectServiceImpl struct {
	projects repository.ProjectRepository
	lim      limiter.Limiter
}

// NewProjectService constructs ProjectService with required dependencies.
func NewProjectService(projects repository.ProjectRepository, lim limiter.Limiter) *ProjectServiceImpl {
	return &ProjectServiceImpl{projects: projects, lim: lim}
}

// RegisterWithIP rate-limits by (project, ip), generates fresh key material
// and upserts the project. The returned keys come from the store, so a rerun
// of an already registered project hands back the original keys, not the
// ones generated for this call.
func (s *ProjectServiceImpl) RegisterWithIP(ctx context.Context, projectID model.ProjectID, appDomain, ip string) (model.ProjectKeys, error) {
	if projectID == "" || appDomain == "" {
		return model.ProjectKeys{}, errors.New("validation: empty project_id/app_domain")
	}

	ipHash := limiter.HashIP(ip)
	allowed, _, err := s.lim.Allow(ctx, string(projectID), ipHash)
	if err != nil {
		return model.ProjectKeys{}, err
	}
	if !allowed {
		return model.ProjectKeys{}, errs.ErrRateLimited
	}
	// Count the attempt regardless of outcome (best-effort).
	_ = s.lim.Record(ctx, string(projectID), ipHash)

	authPub, authPriv, err := keys.GenerateAuthenticationKey()
	if err != nil {
		return model.ProjectKeys{}, err
	}
	subPub, subPriv, err := keys.GenerateSubscribeKey()
	if err != nil {
		return model.ProjectKeys{}, err
	}

	up := model.UpsertProject{
		ProjectID:                projectID,
		AppDomain:                appDomain,
		Topic:                    keys.TopicFromKey(subPub[:]),
		AuthenticationPublicKey:  keys.EncodeAuthenticationPublicKey(authPub),
		AuthenticationPrivateKey: keys.EncodeAuthenticationPrivateKey(authPriv),
		SubscribePublicKey:       keys.EncodeSubscribePublicKey(subPub),
		SubscribePrivateKey:      keys.EncodeSubscribePrivateKey(subPriv),
	}
	return s.projects.Upsert(ctx, up)
}

// Get fetches a project by external id.
func (s *ProjectServiceImpl) Get(ctx context.Context, projectID model.ProjectID) (*model.Project, error) {
	if projectID == "" {
		return nil, errors.New("validation: empty project_id")
	}
	return s.projects.GetByProjectID(ctx, projectID)
}

// GetByAppDomain fetches a project by app domain.
func (s *ProjectServiceImpl) GetByAppDomain(ctx context.Context, appDomain string) (*model.Project, error) {
	if appDomain == "" {
		return nil, errors.New("validation: empty app_domain")
	}
	return s.projects.GetByAppDomain(ctx, appDomain)
}

// GetByTopic fetches a project by relay topic.
func (s *ProjectServiceImpl) GetByTopic(ctx context.Context, topic model.Topic) (*model.Project, error) {
	if topic == "" {
		return nil, errors.New("validation: empty topic")
	}
	return s.projects.GetByTopic(ctx, topic)
}

// ListTopics returns every project topic.
func (s *ProjectServiceImpl) ListTopics(ctx context.Context) ([]model.Topic, error) {
	return s.projects.ListTopics(ctx)
}

// resolveProject turns an external project id into the stored row.
func resolveProject(ctx context.Context, projects repository.ProjectRepository, projectID model.ProjectID) (uuid.UUID, error) {
	p, err := projects.GetByProjectID(ctx, projectID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}
