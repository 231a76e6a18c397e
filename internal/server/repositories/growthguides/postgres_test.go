package growthguides

import (
	"context"
	"database/sql"
	"testing"

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

var cols = []string{"id", "month_range", "age_description", "physical_development", "cognitive_social", "motor_skills"}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*month_range,.*FROM\s+growth_guides\s+ORDER\s+BY\s+id$`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "0-1", "Newborn", []byte(`["a","b"]`), []byte(`["c"]`), []byte(`[]`)))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.StringList{"a", "b"}, got[0].PhysicalDevelopment)
	assert.Empty(t, got[0].MotorSkills)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+growth_guides\s+WHERE\s+id\s*=\s*\$1$`).WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+growth_guides\s+SET\s+month_range\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs(int64(1), "0-1", "Newborn", `["x"]`, `[]`, `[]`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(9), "0-1", "Newborn", `[]`, `[]`, `[]`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.GrowthGuide{ID: 1, MonthRange: "0-1", AgeDescription: "Newborn", PhysicalDevelopment: models.StringList{"x"}})
	require.NoError(t, err)

	err = repo.Update(context.Background(), &models.GrowthGuide{ID: 9, MonthRange: "0-1", AgeDescription: "Newborn"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
