// Package server wires configuration, storage and services together and runs
// the HTTP API alongside the gRPC health endpoint until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/babypal/internal/dbx"
	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/config"
	"github.com/dmitrijs2005/babypal/internal/server/httpapi"
	"github.com/dmitrijs2005/babypal/internal/server/mailer"
	"github.com/dmitrijs2005/babypal/internal/server/metrics"
	"github.com/dmitrijs2005/babypal/internal/server/oauth"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/babypal/internal/server/revocation"
	"github.com/dmitrijs2005/babypal/internal/server/services"
	"github.com/dmitrijs2005/babypal/internal/server/storage"

	gs "github.com/dmitrijs2005/babypal/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	http    *httpapi.Server
	health  *gs.HealthServer
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := dbx.Open(ctx, "pgx", c.DatabaseDSN, c.DatabasePingTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: c, logger: logger, db: db, closers: []func() error{db.Close}}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = app.close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	revoked, err := app.revocationStore(ctx)
	if err != nil {
		_ = app.close()
		return nil, err
	}

	m := metrics.New(c.MetricsNamespace)
	eval := access.NewEvaluator()
	rec := audit.NewRecorder(rm.Logs(db), logger, m)

	svc := httpapi.Services{
		Users:        services.NewUserService(db, rm, c, rec, revoked, app.mailSender(), m),
		Admin:        services.NewAdminService(db, rm, eval, rec, c.BcryptCost),
		Babies:       services.NewBabyService(db, rm, eval, rec, app.photoSigner()),
		Measurements: services.NewMeasurementService(db, rm, eval, rec),
		Records:      services.NewRecordService(db, rm, eval, rec),
		GrowthGuides: services.NewGrowthGuideService(db, rm, eval, rec),
	}

	ping := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.DatabasePingTimeout)
		defer cancel()
		return db.PingContext(ctx)
	}

	app.http = httpapi.NewServer(c.HTTPAddr, logger, svc, httpapi.Options{
		GinMode:     c.GinMode,
		FrontendURL: c.FrontendURL,
		Access:      eval,
		Metrics:     m,
		OAuth: oauth.NewManager(c.PublicBaseURL,
			oauth.Credentials{ClientID: c.GitHubClientID, ClientSecret: c.GitHubClientSecret},
			oauth.Credentials{ClientID: c.GoogleClientID, ClientSecret: c.GoogleClientSecret}),
		Health: ping,
	})
	app.health = gs.NewHealthServer(c.GRPCHealthAddr, logger, ping, c.HealthCheckInterval)

	return app, nil
}

// revocationStore uses Redis when REDIS_URL is set so sign-outs survive
// restarts and are shared between replicas.
func (app *App) revocationStore(ctx context.Context) (revocation.Store, error) {
	if app.config.RedisURL == "" {
		app.logger.Warn(ctx, "REDIS_URL not set, revoked tokens are kept in memory")
		return revocation.NewMemoryStore(), nil
	}
	client, err := revocation.NewRedisClient(ctx, app.config.RedisURL)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, client.Close)
	return revocation.NewRedisStore(client), nil
}

func (app *App) mailSender() mailer.Sender {
	c := app.config
	if c.SMTPHost == "" {
		return mailer.NewLogSender(app.logger)
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
		Timeout:  c.MailTimeout,
	}, app.logger)
}

func (app *App) photoSigner() services.PhotoSigner {
	c := app.config
	if c.S3Bucket == "" {
		return nil
	}
	return storage.NewPhotoStore(storage.S3Config{
		User:        c.S3RootUser,
		Password:    c.S3RootPassword,
		Bucket:      c.S3Bucket,
		Region:      c.S3Region,
		Endpoint:    c.S3BaseEndpoint,
		URLValidity: c.PhotoURLValidityDuration,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close() error {
	var first error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(context.Background(), "shutdown", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
