// Command server runs the medvault compliance core: encrypted file storage,
// PHI-aware contact intake, the audit ledger, and the retention sweeper,
// behind one rate-limited HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"medvault/internal/audit"
	"medvault/internal/breach"
	"medvault/internal/contact"
	"medvault/internal/crypto"
	"medvault/internal/files"
	"medvault/internal/files/blob"
	"medvault/internal/httpapi"
	"medvault/internal/phi"
	"medvault/internal/platform/config"
	"medvault/internal/platform/database"
	"medvault/internal/platform/httpserver"
	"medvault/internal/platform/logger"
	"medvault/internal/platform/metrics"
	platformredis "medvault/internal/platform/redis"
	"medvault/internal/ratelimit"
	"medvault/internal/retention"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	engine, err := crypto.New(cfg.EncryptionPassphrase, cfg.EncryptionSalt)
	if err != nil {
		return err
	}

	m := metrics.New()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		db             *sql.DB
		auditStore     audit.Store
		retentionStore retention.Store
		fileStore      files.MetadataStore
		fileAccess     files.AccessLogger
		contactStore   contact.Store
		breachStore    breach.Store
	)
	if cfg.DatabaseURL != "" {
		db, err = database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}

		auditStore = audit.NewPostgresStore(db)
		retentionStore = retention.NewPostgresStore(db)
		pgFiles := files.NewPostgresStore(db)
		fileStore, fileAccess = pgFiles, pgFiles
		contactStore = contact.NewPostgresStore(db)
		breachStore = breach.NewPostgresStore(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		auditStore = audit.NewInMemoryStore()
		retentionStore = retention.NewInMemoryStore()
		memFiles := files.NewInMemoryStore()
		fileStore, fileAccess = memFiles, memFiles
		contactStore = contact.NewInMemoryStore()
		breachStore = breach.NewInMemoryStore()
	}

	ledgerOpts := []audit.Option{audit.WithMetrics(m)}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		ledgerOpts = append(ledgerOpts, audit.WithSink(sink))
	}
	ledger := audit.NewLedger(auditStore, log, ledgerOpts...)

	blobs, err := blob.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	// The retention sweep calls back into the domain services to delete
	// subject rows, and those services schedule retention on create. The map
	// is filled after construction to close the loop.
	subjects := retention.FuncSubjectDeleter{}
	retentionSvc := retention.NewService(retentionStore, subjects, ledger, log, m,
		retention.WithDefaultYears(cfg.RetentionYears))

	filesSvc := files.NewService(files.NewValidator(cfg.MaxUploadBytes, cfg.AllowedExtensions...), blobs,
		fileStore, fileAccess, engine, ledger, retentionSvc, log, m)
	contactSvc := contact.NewService(contactStore, engine, phi.NewClassifier(), ledger, retentionSvc, log)
	breachSvc := breach.NewService(breachStore, ledger, log)

	subjects[files.RetentionTable] = filesSvc.DeleteSubject
	subjects[contact.RetentionTable] = contactSvc.DeleteSubject
	if db != nil {
		// Audit rows have no domain service; explicitly scheduled disposals go
		// straight to the table through the allow-listed SQL deleter.
		auditRows := retention.NewSQLSubjectDeleter(db, audit.RetentionTable)
		subjects[audit.RetentionTable] = func(ctx context.Context, id string) error {
			return auditRows.DeleteSubject(ctx, audit.RetentionTable, id)
		}
	}

	var windowStore ratelimit.WindowStore = ratelimit.NewInMemoryStore()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		windowStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.NewMiddleware(windowStore, cfg.CallsPerMinute, ledger, log, m)

	handlers := httpapi.NewHandlers(filesSvc, contactSvc, breachSvc, retentionSvc,
		ledger, log, cfg.MaxUploadBytes)
	guard := httpapi.NewAdminGuard(cfg.AdminJWTKey, ledger)
	router := httpapi.NewRouter(handlers, limiter, guard)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting medvault", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return retentionSvc.RunSweeper(ctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("medvault stopped")
	return nil
}
