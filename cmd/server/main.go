// Command server runs the POS onboarding intake service.
//
// External systems are selected by configuration: PostgreSQL when
// DATABASE_URL is set (in-memory stores otherwise), Redis for the staff
// token revocation list, Kafka for notification delivery. Unset URLs fall
// back to in-process implementations, so a bare `go run ./cmd/server`
// works for local development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminauth "posintake/internal/admin/auth"
	adminhandler "posintake/internal/admin/handler"
	"posintake/internal/admin/lockout"
	adminmodels "posintake/internal/admin/models"
	adminservice "posintake/internal/admin/service"
	adminstore "posintake/internal/admin/store"
	"posintake/internal/admin/store/revocation"
	apphandler "posintake/internal/application/handler"
	appmetrics "posintake/internal/application/metrics"
	appservice "posintake/internal/application/service"
	appstore "posintake/internal/application/store"
	"posintake/internal/blob"
	"posintake/internal/catalog"
	"posintake/internal/notify"
	"posintake/internal/platform/config"
	"posintake/internal/platform/httpserver"
	"posintake/internal/platform/logger"
	"posintake/internal/platform/metrics"
	"posintake/internal/platform/postgres"
	platformredis "posintake/internal/platform/redis"
	"posintake/internal/token"
	httptransport "posintake/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]httptransport.HealthCheck{}

	// Persistence.
	var (
		apps     appstore.Store
		users    adminstore.UserStore
		notifLog notify.LogStore
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		apps = appstore.NewPostgres(db)
		users = adminstore.NewPostgres(db)
		notifLog = notify.NewPostgresLogStore(db)
		health["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		log.Info("using postgres storage")
	} else {
		apps = appstore.NewMemory()
		users = adminstore.NewMemory()
		notifLog = notify.NewMemoryLogStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Blob storage for uploaded documents.
	var blobs blob.Store
	if cfg.UploadDir != "" {
		local, err := blob.NewLocal(cfg.UploadDir)
		if err != nil {
			return err
		}
		blobs = local
		log.Info("storing uploads on disk", "dir", cfg.UploadDir)
	} else {
		blobs = blob.NewMemory()
		log.Warn("UPLOAD_DIR not set, storing uploads in memory")
	}

	// Staff token revocation list.
	var trl revocation.TokenRevocationList = revocation.NewMemoryTRL()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		trl = revocation.NewRedisTRL(redisClient.Client)
		health["redis"] = redisClient.Health
		log.Info("using redis token revocation list")
	}

	// Notification sinks: Kafka when brokers are configured, log-only
	// otherwise.
	sinks := map[notify.Channel]notify.Sink{
		notify.ChannelEmail: notify.NewSlogSink(log),
		notify.ChannelSMS:   notify.NewSlogSink(log),
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := notify.NewPublisher(ctx, cfg.KafkaBrokers, cfg.NotifyTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks[notify.ChannelEmail] = publisher
		sinks[notify.ChannelSMS] = publisher
		log.Info("publishing notifications to kafka", "topic", cfg.NotifyTopic)
	}
	dispatcher := notify.NewDispatcher(sinks, notifLog, log)

	// Services.
	cat := catalog.Default()
	issuer := token.NewIssuer(cfg.JWTSigningKey, "posintake", cfg.ResubmissionTTL)
	workflow := appservice.New(apps, blobs, cat, issuer, dispatcher, cfg.BaseURL,
		appservice.WithLogger(log),
		appservice.WithMetrics(appmetrics.New()),
		appservice.WithStaffEmail(cfg.StaffEmail),
	)

	staffTokens := adminauth.NewTokenService(cfg.JWTSigningKey, "posintake", cfg.SessionTTL)
	admin := adminservice.New(users, staffTokens, trl, adminservice.ConsoleDeps{
		Apps:     apps,
		Blobs:    blobs,
		NotifLog: notifLog,
		Workflow: workflow,
		Catalog:  cat,
	}, adminservice.WithLogger(log), adminservice.WithLockout(lockout.New()))

	if err := bootstrapAdmin(ctx, admin, users, log); err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Public:  apphandler.New(workflow, log),
		Admin:   adminhandler.New(admin, staffTokens, trl, log),
		Metrics: metrics.New(),
		Logger:  log,
		Health:  health,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting posintake", "addr", cfg.Addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Let in-flight notification deliveries finish before the sinks close.
	dispatcher.Wait()
	log.Info("shutdown complete")
	return nil
}

// bootstrapAdmin ensures an initial staff account exists when ADMIN_EMAIL
// and ADMIN_PASSWORD are set. Without one there is no way to log in to a
// fresh deployment.
func bootstrapAdmin(ctx context.Context, admin *adminservice.Service, users adminstore.UserStore, log *slog.Logger) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	existing, err := users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	if _, err := admin.CreateUser(ctx, &adminmodels.CreateUserRequest{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     adminmodels.RoleAdmin,
	}); err != nil {
		return err
	}
	log.Info("bootstrap admin created", "email", email)
	return nil
}
