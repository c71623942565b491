package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tender-engine/internal/common/aws"
	"tender-engine/internal/common/config"
	"tender-engine/internal/common/database"
	"tender-engine/internal/common/logger"
	"tender-engine/internal/common/observability"
	"tender-engine/internal/directory"
	"tender-engine/internal/matching"
	"tender-engine/internal/notify"
	"tender-engine/internal/presence"
	"tender-engine/internal/ratings"
	"tender-engine/internal/repository"
	"tender-engine/internal/services"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}

	log.Info("starting matching engine", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		log.Error("postgres failed after retries", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer pg.Close()
	log.Info("PostgreSQL connected", nil)

	if err := database.RunMigrations(cfg.Database.Postgres); err != nil {
		log.Error("migrations failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("schema migrations applied", nil)

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		log.Error("redis failed after retries", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer redis.Close()
	log.Info("Redis connected", nil)

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		log.Error("elasticsearch failed after retries", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("Elasticsearch connected", nil)

	// --- Init AWS notification clients ---
	snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		log.Error("sns client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		log.Error("ses client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	transport := notify.NewAWSTransport(
		snsClient,
		sesClient,
		cfg.Notifications.SES.FromEmail,
		cfg.Notifications.SNS.DefaultSMSSenderID,
	)

	// --- Wire the engine ---
	tenderRepo := repository.NewTenderRepository(pg.DB)
	bidRepo := repository.NewBidRepository(pg.DB)
	notificationRepo := repository.NewNotificationRepository(pg.DB)

	proDirectory := directory.NewESDirectory(esClient.GetClient(), cfg.Matching.DirectoryIndex, log)
	presenceStore := presence.NewStore(redis.GetClient())
	ratingSource := ratings.NewCachedSource(pg.DB, redis.GetClient(), log)

	finder := matching.NewFinder(proDirectory, presenceStore, ratingSource, matching.Policy{
		IncludeUnrated: cfg.Matching.IncludeUnrated,
		MaxCandidates:  cfg.Matching.MaxCandidates,
	}, log)

	dispatcher := notify.NewDispatcher(
		notificationRepo,
		transport,
		cfg.Dispatch.Workers,
		cfg.Dispatch.Timeout,
		obs,
		log,
	)

	tenderService := services.NewTenderService(tenderRepo, finder, dispatcher, services.MatchingDefaults{
		RadiusKm:  cfg.Matching.RadiusKm,
		MinRating: cfg.Matching.MinRating,
	}, log)
	bidService := services.NewBidService(bidRepo, tenderRepo, ratingSource, proDirectory, log)
	notificationService := services.NewNotificationService(notificationRepo, log)

	// --- Operational HTTP listener ---
	// The engine is consumed as a library; this listener carries the
	// operational surface plus read-only inspection endpoints.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":%q,"version":%q}`, cfg.App.Name, cfg.App.Version)
	})
	registerInspectionRoutes(mux, tenderService, bidService, notificationService)

	adminServer := &http.Server{
		Addr:    cfg.Admin.Address,
		Handler: mux,
	}
	go func() {
		log.Info("admin listener started", map[string]interface{}{"address": cfg.Admin.Address})
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin listener failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	log.Info("matching engine ready", map[string]interface{}{
		"radiusKm":        cfg.Matching.RadiusKm,
		"minRating":       cfg.Matching.MinRating,
		"dispatchWorkers": cfg.Dispatch.Workers,
	})

	// --- Wait for shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("admin listener shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("matching engine stopped", nil)
}
