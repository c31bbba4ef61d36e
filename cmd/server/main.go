package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intervue/internal/api"
	"intervue/internal/app/service"
	"intervue/internal/common/security"
	"intervue/internal/domain/repository"
	"intervue/internal/platform/cache"
	"intervue/internal/platform/config"
	"intervue/internal/platform/database"
	"intervue/internal/platform/llm"
	"intervue/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()

	zlog := logger.New(config.AppConfig.AppEnv)
	defer zlog.Sync()

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	if err := database.Migrate(context.Background()); err != nil {
		zlog.Fatal("database migration failed", zap.Error(err))
	}
	zlog.Info("database connected")

	// 4. Initialize Redis
	cache.Connect()
	defer cache.Close()
	listCache := cache.NewStore(cache.RDB)
	zlog.Info("redis connected")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	experienceRepo := repository.NewPgExperienceRepository(database.DB)
	engagementRepo := repository.NewPgEngagementRepository(database.DB)
	txRunner := repository.NewSQLTxRunner(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo)
	experienceService := service.NewExperienceService(experienceRepo, txRunner, listCache, config.AppConfig.ListCacheTTL, zlog)
	engagementService := service.NewEngagementService(engagementRepo, experienceRepo)

	completionClient, err := llm.NewOpenAIClient()
	if err != nil {
		zlog.Fatal("openai client init failed", zap.Error(err))
	}
	extractionService := service.NewExtractionService(completionClient, experienceService, zlog)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, experienceService, extractionService, engagementService, config.AppConfig.ExtractionTimeout)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		zlog.Info("server starting", zap.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()

	<-stop

	zlog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("server shutdown failed", zap.Error(err))
	}

	zlog.Info("server stopped gracefully")
}
