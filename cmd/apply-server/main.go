// cmd/apply-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"apply-portal/internal/common/aws"
	"apply-portal/internal/common/cdn"
	"apply-portal/internal/common/config"
	"apply-portal/internal/common/database"
	apphttp "apply-portal/internal/common/http"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/observability"
	"apply-portal/internal/events"
	"apply-portal/internal/i18n"
	"apply-portal/internal/ledger"
	"apply-portal/internal/server"
	"apply-portal/internal/storage"
	"apply-portal/internal/tenant/branding"
	"apply-portal/internal/tenant/job"
	"apply-portal/internal/tenant/theme"
	"apply-portal/internal/upstream"
	"apply-portal/migrations"

	rp "apply-portal/internal/handlers/render-page"
	sa "apply-portal/internal/handlers/submit-application"
)

const (
	serviceName     = "apply-server"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load(config.ProfileApplyServer)
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, serviceName)
	log.Info("starting apply server", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
		"port":        cfg.Server.Port,
	})

	obs, err := observability.New(serviceName)
	if err != nil {
		log.Warn("metrics exporter unavailable", map[string]interface{}{"error": err.Error()})
	}
	defer obs.Shutdown()
	if cfg.Tracing.JaegerEndpoint != "" {
		if err := obs.EnableTracing(serviceName, cfg.App.Version, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio); err != nil {
			log.Warn("tracing disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	ctx := context.Background()
	checks := map[string]server.Check{}

	// --- Optional Redis cache for CDN lookups ---
	var cache cdn.Cache
	if cfg.Database.Redis.Enabled() {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.Error("redis init failed, CDN caching disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer rdb.Close()
			cache = rdb
			checks["redis"] = rdb.Ping
		}
	}

	// --- Optional attribution ledger ---
	var led *ledger.Ledger
	if cfg.Database.Postgres.Enabled() {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			log.Error("postgres init failed, ledger disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer pg.Close()
			if applied, err := pg.Migrate(ctx, migrations.FS); err != nil {
				log.Error("ledger migration failed", map[string]interface{}{"error": err.Error()})
			} else {
				log.Info("ledger schema ready", map[string]interface{}{"migrations": applied})
			}
			led = ledger.New(pg.DB, log)
			checks["postgres"] = pg.Ping
		}
	}

	awsClients, err := aws.NewClients(ctx, cfg.AWS.Region)
	if err != nil {
		log.Error("aws config failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	bucket := cfg.AWS.Bucket
	checks["s3"] = func(ctx context.Context) error { return awsClients.S3.HeadBucket(ctx, bucket) }

	// --- CDN-backed tenant configuration ---
	fetcher := cdn.NewFetcher(
		apphttp.NewClient(config.GetDuration(cfg.CDN.Timeout)),
		cache,
		time.Duration(cfg.CDN.CacheTTL)*time.Second,
		config.GetDuration(cfg.CDN.Timeout),
		log,
	)
	catalog, err := i18n.NewCatalog(cfg.I18n.DefaultLanguage, cfg.I18n.SupportedLanguages, cfg.I18n.CookieName)
	if err != nil {
		log.Error("translations unavailable", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	pages := rp.NewHandler(
		rp.LoadConfig(cfg, sa.Route),
		i18n.NewLoader(catalog, fetcher, cfg.CDN.AssetBaseURL, log),
		theme.NewLoader(fetcher, cfg.CDN.ThemeBaseURL, cfg.Tenants.Default, cfg.Tenants.Global, log),
		branding.NewResolver(fetcher, cfg.CDN.AssetBaseURL, cfg.Tenants.Default),
		job.NewLoader(fetcher, cfg.CDN.AssetBaseURL, cfg.I18n.DefaultLanguage, cfg.I18n.SupportedLanguages, log),
		log,
	)

	// --- Submission pipeline ---
	publisher := events.NewPublisher(cfg.Events.PublishURL, config.GetDuration(cfg.Events.Timeout), log)
	submitCfg := sa.LoadConfig(cfg)
	submit := sa.NewHandler(
		submitCfg,
		sa.NewService(
			submitCfg,
			storage.NewUploader(awsClients.S3, bucket, cfg.Upload.KeyPrefix, log),
			upstream.NewClient(cfg.Upstream.RunsAPIURL, cfg.Upstream.APIKey, config.GetDuration(cfg.Upstream.Timeout), log),
			led,
			obs,
			log,
		),
		publisher,
		log,
	)

	limiter := server.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, log)
	stopCleanup := make(chan struct{})
	limiter.StartCleanup(time.Minute, stopCleanup)

	router := server.NewRouter(server.Deps{
		Pages:       pages,
		Static:      rp.Static(),
		Submit:      submit,
		SubmitRoute: sa.Route,
		Limiter:     limiter,
		Checks:      checks,
		Logger:      log,
		TrustProxy:  cfg.Server.TrustProxy,
	})
	srv := server.New(cfg.Server.Port, router,
		config.GetDuration(cfg.Server.ReadTimeout), config.GetDuration(cfg.Server.WriteTimeout))
	metricsSrv := server.NewMetricsServer(cfg.Server.MetricsPort, checks)

	go func() {
		log.Info("metrics server listening", map[string]interface{}{"addr": metricsSrv.Addr})
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining requests", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	close(stopCleanup)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := publisher.Wait(shutdownCtx); err != nil {
		log.Warn("pending events abandoned", map[string]interface{}{"error": err.Error()})
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("apply server stopped gracefully", nil)
}
