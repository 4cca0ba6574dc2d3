package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lsp-conflicts/internal/config"
	"lsp-conflicts/internal/database"
	"lsp-conflicts/internal/httpapi"
	"lsp-conflicts/internal/logger"
	"lsp-conflicts/internal/repository"
	"lsp-conflicts/internal/service"
	"lsp-conflicts/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "lsp-conflicts")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var (
		db            *sql.DB
		lendersRepo   repository.LendersRepository
		contractsRepo repository.ContractsRepository
		conflictsRepo repository.ConflictsRepository
		logsRepo      repository.WebhookLogsRepository
	)

	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for lsp-conflicts")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		lendersRepo = repository.NewPostgresLendersRepository(db)
		contractsRepo = repository.NewPostgresContractsRepository(db)
		conflictsRepo = repository.NewPostgresConflictsRepository(db)
		logsRepo = repository.NewPostgresWebhookLogsRepository(db)
	} else {
		// Memory repos keep the full API usable for local development,
		// conflict detection included. State is lost on restart.
		memLenders := repository.NewMemoryLendersRepo()
		memConflicts := repository.NewMemoryConflictsRepo()
		lendersRepo = memLenders
		contractsRepo = repository.NewMemoryContractsRepo(memLenders, memConflicts)
		conflictsRepo = memConflicts
		logsRepo = repository.NewMemoryWebhookLogsRepo()
	}

	// Credential cache is optional; auth falls back to the DB on every
	// request when Redis is off.
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
		log.Info("Redis credential cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	authSvc := service.NewAuthService(lendersRepo, kv, cfg.Auth.CacheTTL, log)
	webhookSvc := service.NewWebhookService(lendersRepo, logsRepo, cfg.Webhook.Timeout, log)
	contractSvc := service.NewContractService(contractsRepo, conflictsRepo, webhookSvc, log)
	lenderSvc := service.NewLenderService(lendersRepo, authSvc, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoute(httpapi.NewHealthHandler(db))
	router.RegisterContractRoutes(
		httpapi.NewContractHandler(contractSvc, log),
		httpapi.NewAuth(authSvc, log),
	)
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(lenderSvc, logsRepo, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
