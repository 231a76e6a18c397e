// Package cli implements babypal-admin, the operator tool for schema
// migrations and account administration without going through the HTTP API.
package cli

import (
	"context"
	"database/sql"
	"os"

	"github.com/dmitrijs2005/babypal/internal/dbx"
	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/config"
	"github.com/dmitrijs2005/babypal/internal/server/mailer"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/babypal/internal/server/revocation"
	"github.com/dmitrijs2005/babypal/internal/server/services"
	"github.com/spf13/cobra"
)

// operator is the actor recorded in the audit log for CLI changes.
var operator = access.Actor{Username: "babypal-admin", Role: models.RoleAdmin}

// Opener connects to the database described by cfg.
type Opener func(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error)

// PostgresOpener opens cfg.DatabaseDSN with the pgx driver.
func PostgresOpener(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	db, err := dbx.Open(ctx, "pgx", cfg.DatabaseDSN, cfg.DatabasePingTimeout)
	if err != nil {
		return nil, nil, err
	}
	return db, repomanager.NewPostgresRepositoryManager(), nil
}

type App struct {
	config *config.Config
	open   Opener
	logger logging.Logger

	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewApp(cfg *config.Config, open Opener) *App {
	return &App{
		config: cfg,
		open:   open,
		logger: logging.NewJSONLogger(os.Stderr, cfg.LogLevel),
	}
}

// connect opens the database once per invocation.
func (a *App) connect(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	db, repos, err := a.open(ctx, a.config)
	if err != nil {
		return err
	}
	a.db, a.repos = db, repos
	return nil
}

// Close releases the database connection, if one was opened.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

func (a *App) recorder() *audit.Recorder {
	return audit.NewRecorder(a.repos.Logs(a.db), a.logger, nil)
}

func (a *App) users() *services.UserService {
	return services.NewUserService(a.db, a.repos, a.config, a.recorder(),
		revocation.NewMemoryStore(), mailer.NewLogSender(a.logger), nil)
}

func (a *App) admin() *services.AdminService {
	return services.NewAdminService(a.db, a.repos, access.NewEvaluator(), a.recorder(), a.config.BcryptCost)
}

// userID resolves a username to its id.
func (a *App) userID(ctx context.Context, username string) (int64, error) {
	u, err := a.repos.Users(a.db).GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// Command builds the root command. The database is opened before the first
// subcommand runs; callers release it with Close.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "babypal-admin",
		Short:         "Operator tool for the babypal server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
				a.config.DatabaseDSN = dsn
			}
			return a.connect(cmd.Context())
		},
	}
	root.PersistentFlags().String("dsn", "", "database DSN (overrides BABYPAL_DATABASE_DSN)")
	// read by config.LoadEnvConfig before cobra parses the command line
	root.PersistentFlags().StringP("config", "c", "", "path to config file (.json, .yaml)")

	root.AddCommand(
		a.migrateCmd(),
		a.createAdminCmd(),
		a.setRoleCmd(),
		a.lockCmd(),
		a.exportLogsCmd(),
	)
	return root
}
