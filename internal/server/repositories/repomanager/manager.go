package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/babypal/internal/dbx"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/babies"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/growthguides"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/logs"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/measurements"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/records"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Babies(db dbx.DBTX) babies.Repository
	Measurements(db dbx.DBTX) measurements.Repository
	Records(db dbx.DBTX) records.Repository
	GrowthGuides(db dbx.DBTX) growthguides.Repository
	Logs(db dbx.DBTX) logs.Repository
}
