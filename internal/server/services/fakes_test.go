package services

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/memory"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// env bundles the collaborators shared by the services under test. The
// sqlmock DB only sees BEGIN/COMMIT from dbx.WithTx.
type env struct {
	store    *memory.Store
	db       *sql.DB
	mock     sqlmock.Sqlmock
	rm       *memory.Manager
	eval     *access.Evaluator
	recorder *audit.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := memory.NewRepositoryManager()
	return &env{
		store:    rm.Store(),
		db:       db,
		mock:     mock,
		rm:       rm,
		eval:     access.NewEvaluator(),
		recorder: audit.NewRecorder(rm.Logs(db), logging.Discard(), nil),
	}
}

var (
	alice = access.Actor{Username: "alice", Role: models.RoleUser}
	bob   = access.Actor{Username: "bob", Role: models.RoleUser}
	root  = access.Actor{Username: "root", Role: models.RoleAdmin}
)
