package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

// ProjectRepo implements ProjectRepository using PostgreSQL.
type ProjectRepo struct{ db *DB }

// NewProjectRepo constructs a project repository.
func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

// Upsert registers a project. On conflict on the external id only app_domain
// and updated_at change: key material keeps its first written value, so a
// project's cryptographic identity survives repeated registrations. The
// returned public keys are the stored ones, not necessarily those supplied.
func (r *ProjectRepo) Upsert(ctx context.Context, p model.UpsertProject) (model.ProjectKeys, error) {
	const q = `
INSERT INTO project (
    project_id,
    app_domain,
    topic,
    authentication_public_key,
    authentication_private_key,
    subscribe_public_key,
    subscribe_private_key
)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (project_id) DO UPDATE SET
    updated_at=now(),
    app_domain=$2
RETURNING authentication_public_key, subscribe_public_key`

	var stored model.ProjectKeys
	err := r.db.Pool.QueryRow(ctx, q,
		string(p.ProjectID), p.AppDomain, string(p.Topic),
		p.AuthenticationPublicKey, p.AuthenticationPrivateKey,
		p.SubscribePublicKey, p.SubscribePrivateKey,
	).Scan(&stored.AuthenticationPublicKey, &stored.SubscribePublicKey)
	if err != nil {
		return model.ProjectKeys{}, classify(err)
	}
	return stored, nil
}

const projectColumns = `id, project_id, app_domain, topic, ` +
	`authentication_public_key, authentication_private_key, ` +
	`subscribe_public_key, subscribe_private_key, created_at, updated_at`

// GetByID loads a project by row id.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM project WHERE id=$1`
	return r.fetchOne(ctx, q, id)
}

// GetByProjectID loads a project by external id.
func (r *ProjectRepo) GetByProjectID(ctx context.Context, projectID model.ProjectID) (*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM project WHERE project_id=$1`
	return r.fetchOne(ctx, q, string(projectID))
}

// GetByAppDomain loads a project by app domain.
func (r *ProjectRepo) GetByAppDomain(ctx context.Context, appDomain string) (*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM project WHERE app_domain=$1`
	return r.fetchOne(ctx, q, appDomain)
}

// GetByTopic loads a project by relay topic.
func (r *ProjectRepo) GetByTopic(ctx context.Context, topic model.Topic) (*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM project WHERE topic=$1`
	return r.fetchOne(ctx, q, string(topic))
}

// ListTopics returns every project topic, unordered.
func (r *ProjectRepo) ListTopics(ctx context.Context) ([]model.Topic, error) {
	const q = `SELECT topic FROM project`
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

func (r *ProjectRepo) fetchOne(ctx context.Context, q string, arg any) (*model.Project, error) {
	var (
		p                model.Project
		projectID, topic string
	)
	err := r.db.Pool.QueryRow(ctx, q, arg).Scan(
		&p.ID, &projectID, &p.AppDomain, &topic,
		&p.AuthenticationPublicKey, &p.AuthenticationPrivateKey,
		&p.SubscribePublicKey, &p.SubscribePrivateKey,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	p.ProjectID = model.ProjectID(projectID)
	p.Topic = model.Topic(topic)
	return &p, nil
}
