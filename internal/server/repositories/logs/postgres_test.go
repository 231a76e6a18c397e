package logs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var cols = []string{"id", "username", "type", "type_id", "action", "status_code", "created_at"}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	id := int64(3)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+logs\s*\(username,\s*type,\s*type_id,\s*action,\s*status_code\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at$`).
		WithArgs("alice", models.LogTypeBaby, int64(3), "CREATE", "201").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+logs`).
		WithArgs("UNKNOWN", models.LogTypeAuth, nil, "SIGNIN", "401").
		WillReturnError(errors.New("boom"))

	l, err := repo.Create(context.Background(), &models.Log{Username: "alice", Type: models.LogTypeBaby, TypeID: &id, Action: "CREATE", StatusCode: "201"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.ID)

	_, err = repo.Create(context.Background(), &models.Log{Username: "UNKNOWN", Type: models.LogTypeAuth, Action: "SIGNIN", StatusCode: "401"})
	assert.ErrorContains(t, err, "db error: boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_OrderedAndNullTypeID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,.*FROM\s+logs\s+ORDER\s+BY\s+created_at,\s*id$`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "alice", "AUTH", nil, "SIGNIN", "200", now).
			AddRow(int64(2), "alice", "BABY", int64(1), "CREATE", "201", now))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].TypeID)
	require.NotNil(t, got[1].TypeID)
	assert.Equal(t, int64(1), *got[1].TypeID)
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+logs\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "alice", "AUTH", nil, "SIGNIN", "200", time.Now()))
	mock.ExpectQuery(q).WithArgs(int64(2)).WillReturnError(sql.ErrNoRows)

	l, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "SIGNIN", l.Action)

	_, err = repo.GetByID(context.Background(), 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
