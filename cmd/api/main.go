package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appanalysis "github.com/questionlab/qscore/internal/application/analysis"
	appauditlog "github.com/questionlab/qscore/internal/application/auditlog"
	appkeys "github.com/questionlab/qscore/internal/application/keys"
	"github.com/questionlab/qscore/internal/application"
	"github.com/questionlab/qscore/internal/config"
	domain "github.com/questionlab/qscore/internal/domain/analysis"
	"github.com/questionlab/qscore/internal/domain/apikeys"
	"github.com/questionlab/qscore/internal/domain/auditlog"
	"github.com/questionlab/qscore/internal/infra/db/memory"
	mysqldb "github.com/questionlab/qscore/internal/infra/db/mysql"
	postgresdb "github.com/questionlab/qscore/internal/infra/db/postgres"
	"github.com/questionlab/qscore/internal/infra/httpserver"
	"github.com/questionlab/qscore/internal/infra/inference"
	"github.com/questionlab/qscore/internal/infra/nlp"
	"github.com/questionlab/qscore/internal/infra/nlp/googlenl"
	"github.com/questionlab/qscore/internal/infra/override"
	geminioverride "github.com/questionlab/qscore/internal/infra/override/gemini"
	openaioverride "github.com/questionlab/qscore/internal/infra/override/openai"
	minioStore "github.com/questionlab/qscore/internal/infra/storage"
	"github.com/questionlab/qscore/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("config load error", zap.Error(err))
	}

	ctx := context.Background()

	var (
		db       *sql.DB
		registry apikeys.Registry
		logRepo  auditlog.Repository
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal("mysql connect error", zap.Error(err))
		}
		registry = mysqldb.NewAPIKeyRepository(db)
		logRepo = mysqldb.NewAnalysisLogRepository(db)
	case "postgres":
		db, err = postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("postgres connect error", zap.Error(err))
		}
		registry = postgresdb.NewAPIKeyRepository(db)
		logRepo = postgresdb.NewAnalysisLogRepository(db)
	case "memory":
		registry = memory.NewKeyRegistry()
		logRepo = memory.NewAnalysisLogRepository()
	default:
		logger.Fatal("unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if db != nil {
		defer db.Close()
	}

	checkers := map[string]middleware.HealthChecker{}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// Signal provider: Google NL when configured, regex fallback otherwise.
	var signals domain.SignalProvider = nlp.NewFallbackAnalyzer()
	if cfg.NLP.Provider == "googlenl" && cfg.NLP.APIKey != "" {
		nlClient, nerr := googlenl.NewClient(ctx, cfg.NLP.APIKey, logger)
		if nerr != nil {
			logger.Warn("google nl init failed, using fallback analyzer", zap.Error(nerr))
		} else {
			signals = nlClient
		}
	}

	// Inference provider: only wired when a model service URL is given.
	// Without it the orchestrator scores heuristically.
	var inferenceProvider domain.InferenceProvider
	if cfg.Inference.BaseURL != "" {
		client := inference.NewClient(cfg.Inference.BaseURL, logger)
		inferenceProvider = client
		checkers["inference"] = &middleware.HTTPHealthChecker{URL: client.HealthURL()}
	}

	var overrideProvider domain.OverrideProvider = override.Noop{}
	switch cfg.Override.Provider {
	case "openai":
		overrideProvider = openaioverride.NewClient(cfg.Override.APIKey, cfg.Override.Model)
	case "gemini":
		gem, gerr := geminioverride.NewClient(ctx, cfg.Override.APIKey, cfg.Override.Model, logger)
		if gerr != nil {
			logger.Warn("gemini init failed, override disabled", zap.Error(gerr))
		} else {
			overrideProvider = gem
			defer gem.Close()
		}
	case "", "none":
	default:
		logger.Fatal("unknown override provider", zap.String("provider", cfg.Override.Provider))
	}

	var artifacts httpserver.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, serr := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if serr != nil {
			logger.Warn("minio init failed, bulk upload artifacts disabled", zap.Error(serr))
		} else {
			artifacts = store
		}
	}

	clock := application.SystemClock{}
	sink := appauditlog.NewSink(logRepo, logger, cfg.LogSink.Buffer)
	defer sink.Close()

	analysisSvc := &appanalysis.Service{
		Signals:   signals,
		Inference: inferenceProvider,
		Override:  overrideProvider,
		Sink:      sink,
		Clock:     clock,
		Logger:    logger,
	}
	keysSvc := &appkeys.Service{
		Registry: registry,
		Clock:    clock,
		Logger:   logger,
	}

	limiter := middleware.NewRateLimiter(
		cfg.RateLimit.Requests,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
	)

	handler := httpserver.NewRouter(analysisSvc, keysSvc, logRepo, artifacts, limiter, checkers, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
