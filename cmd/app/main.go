package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"NM_clicker_miniapp/internal/api"
	"NM_clicker_miniapp/internal/repository"
	"NM_clicker_miniapp/internal/service"
	"NM_clicker_miniapp/pkg/auth"
	"NM_clicker_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	var repo service.ClickerRepository
	if strings.EqualFold(cfg.Storage, "postgres") {
		pgRepo, err := repository.New(cfg.Database)
		if err != nil {
			zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
		}
		defer pgRepo.Close()
		repo = pgRepo
	} else {
		zapLogger.Info("Using in-memory storage, state is not persisted")
		repo = repository.NewMemoryRepository()
	}

	clickerService := service.NewClickerService(repo, service.Rules{
		MaxTapsPerSecond:    cfg.Clicker.MaxTapsPerSecond,
		DailyBonusPerLevel:  cfg.Clicker.DailyBonusPerLevel,
		ReferralBonusLevels: cfg.Clicker.ReferralBonusLevels,
	})

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	sessionAuth := auth.NewSessionAuth(
		cfg.Session.Secret,
		"nm-clicker",
		time.Duration(cfg.Session.TTLMinutes)*time.Minute,
	)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	hub := api.NewHub()
	a := router.Group("/api")
	api.NewClickerRoutes(a, clickerService, telegramAuth, sessionAuth, hub, api.Options{
		Production: cfg.IsProduction(),
		AdminToken: cfg.Clicker.AdminToken,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
