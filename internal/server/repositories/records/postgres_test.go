package records

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

var cols = []string{"id", "baby_id", "author", "type", "sub_type", "note", "start_time", "end_time", "created_at", "updated_at"}

var ts = time.Date(2025, 4, 1, 22, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+records\s*\(baby_id,\s*author,\s*type,.*\)\s*VALUES\s*\(\$1,.*\$7\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`).
		WithArgs(int64(1), "alice", "SLEEP", "", "night", ts, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), ts, ts))

	rec, err := repo.Create(context.Background(), &models.Record{BabyID: 1, Author: "alice", Type: "SLEEP", Note: "night", StartTime: ts})
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.ID)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+records`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Record{BabyID: 99, Type: "FEED"})
	assert.ErrorContains(t, err, "db error: fk violation")
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	end := ts.Add(8 * time.Hour)
	q := `(?s)^SELECT\s+id,\s*baby_id,.*FROM\s+records\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(5), int64(1), "alice", "SLEEP", "", "night", ts, end, ts, ts))
	mock.ExpectQuery(q).WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(6), int64(1), "alice", "FEED", "BOTTLE", "", ts, nil, ts, ts))
	mock.ExpectQuery(q).WithArgs(int64(7)).WillReturnError(sql.ErrNoRows)

	rec, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, rec.EndTime)
	assert.True(t, rec.EndTime.Equal(end))

	rec, err = repo.GetByID(context.Background(), 6)
	require.NoError(t, err)
	assert.Nil(t, rec.EndTime)
	assert.Equal(t, "BOTTLE", rec.SubType)

	_, err = repo.GetByID(context.Background(), 7)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+records\s+WHERE\s+author\s*=\s*\$1\s+ORDER\s+BY\s+start_time,\s*id$`).WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(`(?s)FROM\s+records\s+WHERE\s+baby_id\s*=\s*\$1`).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(5), int64(1), "alice", "SLEEP", "", "", ts, nil, ts, ts))
	mock.ExpectQuery(`(?s)FROM\s+records\s+ORDER\s+BY\s+id$`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(5), int64(1), "alice", "SLEEP", "", "", ts, nil, ts, ts).RowError(0, errors.New("bad row")))

	got, err := repo.ListByAuthor(context.Background(), "bob")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = repo.ListByBaby(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = repo.ListAll(context.Background())
	assert.Error(t, err)
}

func TestUpdateAndDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	upd := `(?s)^UPDATE\s+records\s+SET\s+type\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s+RETURNING\s+updated_at$`
	mock.ExpectQuery(upd).WithArgs(int64(5), "FEED", "", "", ts, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(ts))
	mock.ExpectQuery(upd).WithArgs(int64(6), "FEED", "", "", ts, sqlmock.AnyArg()).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`^DELETE\s+FROM\s+records\s+WHERE\s+id\s*=\s*\$1$`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE\s+FROM\s+records\s+WHERE\s+id\s*=\s*\$1$`).WithArgs(int64(6)).WillReturnError(errors.New("boom"))

	require.NoError(t, repo.Update(context.Background(), &models.Record{ID: 5, Type: "FEED", StartTime: ts}))
	assert.ErrorIs(t, repo.Update(context.Background(), &models.Record{ID: 6, Type: "FEED", StartTime: ts}), common.ErrorNotFound)
	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.ErrorContains(t, repo.Delete(context.Background(), 6), "db error: boom")
	require.NoError(t, mock.ExpectationsWereMet())
}
