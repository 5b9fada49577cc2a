// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"valuation-workers/internal/common/aws"
	"valuation-workers/internal/common/camunda"
	"valuation-workers/internal/common/config"
	"valuation-workers/internal/common/database"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/observability"

	// Data Access Workers (2)
	qp "valuation-workers/internal/workers/data-access/query-postgresql"
	scl "valuation-workers/internal/workers/data-access/search-comparable-listings"

	// Valuation Workers (5)
	bma "valuation-workers/internal/workers/valuation/build-market-analysis"
	cmv "valuation-workers/internal/workers/valuation/calculate-market-value"
	sc "valuation-workers/internal/workers/valuation/score-comparables"
	svn "valuation-workers/internal/workers/valuation/send-valuation-notice"
	vc "valuation-workers/internal/workers/valuation/validate-comparable"
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

type registration struct {
	taskType string
	handle   camunda.HandlerFunc
}

func main() {
	envFile := config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"envFile":     envFile,
	})

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zc, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zc.Close()
	log.Info("Zeebe client connected successfully", nil)

	// --- PostgreSQL ---
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
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	log.Info("PostgreSQL connected successfully", nil)

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if ok, err := esClient.IndexExists(ctx, cfg.Valuation.ListingsIndex); err != nil || !ok {
		log.Warn("listings index unavailable, searches will fail until it exists", map[string]interface{}{
			"index": cfg.Valuation.ListingsIndex,
			"error": err,
		})
	}
	log.Info("Elasticsearch connected successfully", nil)

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("Redis connected successfully", nil)

	// --- AWS ---
	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			sesClient = aws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient = aws.NewSNSClient(awsCfg)
		}
	}

	health := database.NewHealthChecker(2 * time.Second)
	health.Register("zeebe", zc)
	health.Register("postgres", pg)
	health.Register("elasticsearch", esClient)
	health.Register("redis", rdb)

	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	registrations := []registration{
		{vc.TaskType, vc.NewHandler(&vc.Config{Timeout: timeout(vc.TaskType)}, log).Handle},
		{sc.TaskType, sc.NewHandler(&sc.Config{
			Timeout:         timeout(sc.TaskType),
			EquipmentValues: cfg.Valuation.EquipmentValues,
		}, log).Handle},
		{cmv.TaskType, cmv.NewHandler(&cmv.Config{Timeout: timeout(cmv.TaskType)}, obs, log).Handle},
		{bma.TaskType, bma.NewHandler(&bma.Config{
			Timeout:  timeout(bma.TaskType),
			CacheTTL: cfg.Valuation.SettlementCacheDuration(),
		}, pg.DB, rdb.Client, log).Handle},
		{svn.TaskType, svn.NewHandler(&svn.Config{
			EmailEnabled:     cfg.Notifications.Email.Enabled,
			SMSEnabled:       cfg.Notifications.SMS.Enabled,
			FromEmail:        cfg.Notifications.Email.FromEmail,
			ThresholdPercent: cfg.Valuation.NoticeThresholdPercent,
			SMSPriority:      cfg.Notifications.SMS.PriorityThreshold,
			Timeout:          timeout(svn.TaskType),
		}, pg.DB, sesClient, snsClient, log).Handle},
		{qp.TaskType, qp.NewHandler(&qp.Config{Timeout: timeout(qp.TaskType)}, pg.DB, log).Handle},
		{scl.TaskType, scl.NewHandler(&scl.Config{
			Timeout:     timeout(scl.TaskType),
			Index:       cfg.Valuation.ListingsIndex,
			YearWindow:  cfg.Valuation.SearchYearWindow,
			MaxDistance: cfg.Valuation.SearchRadiusMiles,
			MaxListings: cfg.Valuation.MaxListings,
		}, esClient.Client, log).Handle},
	}

	pool := &camunda.Pool{}
	for _, r := range registrations {
		if !config.IsWorkerEnabled(cfg, r.taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": r.taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, r.taskType)
		pool.Add(camunda.NewWorker(zc.GetClient(), camunda.WorkerOptions{
			TaskType:      r.taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, r.handle, log, tracing(obs)))
	}
	log.Info("workers registered", map[string]interface{}{"count": pool.Len()})

	// --- Health & Metrics Server ---
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks, ok := health.Check(r.Context())
		status, code := "ready", http.StatusOK
		if !ok {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	http.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers...", nil)
	pool.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped gracefully", map[string]interface{}{"postgres": pg.Stats()})
}

// tracing wraps every job in a span and records job count and duration.
func tracing(obs *observability.Observability) camunda.Middleware {
	return func(taskType string, next camunda.HandlerFunc) camunda.HandlerFunc {
		return func(client worker.JobClient, job entities.Job) {
			ctx, span := obs.StartSpan(context.Background(), taskType,
				attribute.Int64("job.key", job.Key),
				attribute.Int64("process.instance.key", job.ProcessInstanceKey),
			)
			defer span.End()

			start := time.Now()
			next(client, job)
			obs.RecordJobProcessed(ctx, taskType, "handled")
			obs.RecordJobDuration(ctx, taskType, time.Since(start), "handled")
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
