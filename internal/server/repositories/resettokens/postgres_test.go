package resettokens

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

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+password_reset_tokens\s*\(token,\s*user_id,\s*expiry_date\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id$`).
		WithArgs("tok", int64(1), exp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	tok, err := repo.Create(context.Background(), &models.PasswordResetToken{Token: "tok", UserID: 1, ExpiryDate: exp})
	require.NoError(t, err)
	assert.Equal(t, int64(7), tok.ID)
}

func TestGetByToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	q := `(?s)^SELECT\s+id,\s*token,\s*user_id,\s*expiry_date,\s*used\s+FROM\s+password_reset_tokens\s+WHERE\s+token\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_id", "expiry_date", "used"}).AddRow(int64(7), "tok", int64(1), exp, false))
	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("err").WillReturnError(errors.New("boom"))

	tok, err := repo.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, tok.Used)

	_, err = repo.GetByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = repo.GetByToken(context.Background(), "err")
	assert.ErrorContains(t, err, "db error: boom")
}

func TestMarkUsed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+password_reset_tokens\s+SET\s+used\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1\s+AND\s+used\s*=\s*FALSE$`
	mock.ExpectExec(q).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkUsed(context.Background(), 7))
	assert.ErrorIs(t, repo.MarkUsed(context.Background(), 7), common.ErrResetTokenUsed)
}
