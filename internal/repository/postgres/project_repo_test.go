package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/2019tarikul/notify-server/internal/errs"
	"github.com/2019tarikul/notify-server/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

const projectQuery = `SELECT id, project_id, app_domain, topic, ` +
	`authentication_public_key, authentication_private_key, ` +
	`subscribe_public_key, subscribe_private_key, created_at, updated_at FROM project`

func projectRows(id uuid.UUID, ts time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "project_id", "app_domain", "topic",
		"authentication_public_key", "authentication_private_key",
		"subscribe_public_key", "subscribe_private_key", "created_at", "updated_at",
	}).AddRow(id, "prj-id-1", "app.example.com", "topic-1",
		"auth-pub", "auth-priv", "sub-pub", "sub-priv", ts, ts)
}

func TestProjectRepo_Upsert_ReturnsStoredKeys(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	ctx := context.Background()
	up := model.UpsertProject{
		ProjectID:                "prj-id-1",
		AppDomain:                "app.example.com",
		Topic:                    "topic-1",
		AuthenticationPublicKey:  "new-auth-pub",
		AuthenticationPrivateKey: "new-auth-priv",
		SubscribePublicKey:       "new-sub-pub",
		SubscribePrivateKey:      "new-sub-priv",
	}

	// The row existed already, so the stored keys win over the supplied ones.
	mock.ExpectQuery(`INSERT INTO project \( project_id, app_domain, topic, authentication_public_key, authentication_private_key, subscribe_public_key, subscribe_private_key \) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\) ON CONFLICT \(project_id\) DO UPDATE SET updated_at=now\(\), app_domain=\$2 RETURNING authentication_public_key, subscribe_public_key`).
		WithArgs("prj-id-1", "app.example.com", "topic-1",
			"new-auth-pub", "new-auth-priv", "new-sub-pub", "new-sub-priv").
		WillReturnRows(pgxmock.NewRows([]string{"authentication_public_key", "subscribe_public_key"}).
			AddRow("auth-pub", "sub-pub"))

	keys, err := r.Upsert(ctx, up)
	require.NoError(t, err)
	require.Equal(t, "auth-pub", keys.AuthenticationPublicKey)
	require.Equal(t, "sub-pub", keys.SubscribePublicKey)
}

func TestProjectRepo_Upsert_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	// app_domain is unique too; a clash there surfaces as a conflict.
	mock.ExpectQuery(`INSERT INTO project`).
		WithArgs("prj-id-2", "app.example.com", "topic-2",
			"ap", "as", "sp", "ss").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "project_app_domain_key"})

	_, err := r.Upsert(context.Background(), model.UpsertProject{
		ProjectID: "prj-id-2", AppDomain: "app.example.com", Topic: "topic-2",
		AuthenticationPublicKey: "ap", AuthenticationPrivateKey: "as",
		SubscribePublicKey: "sp", SubscribePrivateKey: "ss",
	})
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestProjectRepo_GetByProjectID_OK_And_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	mock.ExpectQuery(projectQuery + ` WHERE project_id=\$1`).
		WithArgs("prj-id-1").
		WillReturnRows(projectRows(id, ts))
	p, err := r.GetByProjectID(ctx, "prj-id-1")
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
	require.Equal(t, model.ProjectID("prj-id-1"), p.ProjectID)
	require.Equal(t, "app.example.com", p.AppDomain)
	require.Equal(t, model.Topic("topic-1"), p.Topic)
	require.Equal(t, "auth-pub", p.AuthenticationPublicKey)

	mock.ExpectQuery(projectQuery + ` WHERE project_id=\$1`).
		WithArgs("prj-id-9").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByProjectID(ctx, "prj-id-9")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProjectRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(projectQuery + ` WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(projectRows(id, time.Now().UTC()))

	p, err := r.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
}

func TestProjectRepo_GetByAppDomain(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(projectQuery + ` WHERE app_domain=\$1`).
		WithArgs("app.example.com").
		WillReturnRows(projectRows(id, time.Now().UTC()))

	p, err := r.GetByAppDomain(context.Background(), "app.example.com")
	require.NoError(t, err)
	require.Equal(t, "app.example.com", p.AppDomain)
}

func TestProjectRepo_GetByTopic(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(projectQuery + ` WHERE topic=\$1`).
		WithArgs("topic-1").
		WillReturnRows(projectRows(id, time.Now().UTC()))

	p, err := r.GetByTopic(context.Background(), "topic-1")
	require.NoError(t, err)
	require.Equal(t, model.Topic("topic-1"), p.Topic)
}

func TestProjectRepo_ListTopics(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	mock.ExpectQuery(`SELECT topic FROM project`).
		WillReturnRows(pgxmock.NewRows([]string{"topic"}).
			AddRow("topic-1").
			AddRow("topic-2"))

	topics, err := r.ListTopics(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Topic{"topic-1", "topic-2"}, topics)
}

func TestProjectRepo_ListTopics_QueryErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProjectRepo(db)

	mock.ExpectQuery(`SELECT topic FROM project`).
		WillReturnError(errors.New("q-fail"))

	_, err := r.ListTopics(context.Background())
	require.ErrorIs(t, err, errs.ErrStoreFatal)
}
