// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// ProjectRepository persists project identity and key material.
type ProjectRepository interface {
	// Upsert inserts a project or, when the external id already exists, updates
	// only the app domain. Key material is first-write-wins. Returns the stored
	// public keys either way.
	Upsert(ctx context.Context, p model.UpsertProject) (model.ProjectKeys, error)
	// GetByID loads a project by row id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// GetByProjectID loads a project by external id.
	GetByProjectID(ctx context.Context, projectID model.ProjectID) (*model.Project, error)
	// GetByAppDomain loads a project by app domain.
	GetByAppDomain(ctx context.Context, appDomain string) (*model.Project, error)
	// GetByTopic loads a project by relay topic.
	GetByTopic(ctx context.Context, topic model.Topic) (*model.Project, error)
	// ListTopics returns every project topic, unordered.
	ListTopics(ctx context.Context) ([]model.Topic, error)
}
