package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/24021959/guidebook-backend/internal/api/handlers"
	"github.com/24021959/guidebook-backend/internal/chatbot"
	"github.com/24021959/guidebook-backend/internal/config"
	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/health"
	"github.com/24021959/guidebook-backend/internal/knowledge"
	"github.com/24021959/guidebook-backend/internal/llm"
	"github.com/24021959/guidebook-backend/internal/middleware"
	"github.com/24021959/guidebook-backend/internal/migration"
	"github.com/24021959/guidebook-backend/internal/repository"
	"github.com/24021959/guidebook-backend/internal/translation"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	// Initialize logger
	logger := utils.GetLogger()
	logger.Info("Starting guidebook backend server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateOpenAI(); err != nil {
		logger.WithError(err).Fatal("OpenAI configuration validation failed")
	}

	// Initialize database manager
	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}
	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	// Run migrations
	migrationRunner := migration.NewRunner(dbManager, logger)
	if err := migrationRunner.RunMigrations("migrations"); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize repositories and cache
	repos := repository.NewRepositoryManager(dbManager.DB, cfg.OpenAI.EmbeddingDim)
	cache := database.NewCache(dbManager.Redis, logger)

	// Initialize OpenAI-backed models
	llmClient, err := llm.NewWithConfig(llm.ClientConfig{
		APIKey:         cfg.OpenAI.APIKey,
		ChatModel:      cfg.OpenAI.ChatModel,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize LLM client")
	}

	// Translation engine with public API fallback
	fallback := translation.NewFallbackClient(cfg.Translation.FallbackBaseURL, logger)
	engine := translation.NewEngine(translation.EngineConfig{
		SourceLanguage: cfg.Translation.SourceLanguage,
		ChunkThreshold: cfg.Translation.ChunkThreshold,
		RateLimit:      cfg.Translation.RateLimit,
		ChatModel:      llmClient.Chat(),
		Fallback:       fallback,
		Logger:         logger,
	})

	// Knowledge base builder and chatbot
	builder := knowledge.NewBuilder(knowledge.BuilderConfig{
		Pages:     repos.Pages,
		Knowledge: repos.Knowledge,
		Embedder:  llmClient,
		ChunkSize: cfg.Knowledge.ChunkSize,
		Logger:    logger,
	})
	chatService := chatbot.NewService(chatbot.ServiceConfig{
		Embedder:      llmClient,
		ChatModel:     llmClient.Chat(),
		Knowledge:     repos.Knowledge,
		Conversations: repos.Conversations,
		TopK:          cfg.Chatbot.TopK,
		Threshold:     cfg.Chatbot.SimilarityThreshold,
		Logger:        logger,
	})

	// Health checker with periodic probing
	healthChecker := health.NewHealthChecker(dbManager, repos.SystemHealth, logger, cfg.Translation.FallbackBaseURL)
	healthCtx, cancelHealth := context.WithCancel(context.Background())
	defer cancelHealth()
	go healthChecker.PeriodicHealthCheck(healthCtx, time.Minute)

	// Handlers
	pagesHandler := handlers.NewPagesHandler(repos, cache, logger)
	chatHandler := handlers.NewChatHandler(chatService, repos.Settings, repos.Conversations, logger)
	settingsHandler := handlers.NewSettingsHandler(repos, cache, logger)
	adminHandler := handlers.NewAdminHandler(repos, builder, engine, logger)
	healthHandler := handlers.NewHealthHandler(healthChecker, logger)

	// Router
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(nil))

	rateLimiter := middleware.NewRateLimiter(120)
	chatLimiter := middleware.NewRateLimiter(30)

	api := router.Group("/api", rateLimiter.RateLimit())
	{
		api.GET("/health", healthHandler.HandleHealthStored)
		api.GET("/health/live", healthHandler.HandleHealth)

		api.GET("/menu", pagesHandler.HandleGetMenu)
		api.GET("/page", pagesHandler.HandleGetPage)
		api.GET("/pages", pagesHandler.HandleListPages)
		api.POST("/pages", pagesHandler.HandleCreatePage)
		api.PUT("/pages/:id", pagesHandler.HandleUpdatePage)
		api.DELETE("/page", pagesHandler.HandleDeletePage)

		api.GET("/settings/header", settingsHandler.HandleGetHeader)
		api.PUT("/settings/header", settingsHandler.HandleUpdateHeader)
		api.GET("/settings/:key", settingsHandler.HandleGetSetting)
		api.PUT("/settings/:key", settingsHandler.HandleSetSetting)

		api.GET("/chat/config", chatHandler.HandleChatConfig)
		api.POST("/chat", chatLimiter.RateLimit(), chatHandler.HandleChat)

		admin := api.Group("/admin")
		{
			admin.POST("/knowledge/rebuild", adminHandler.HandleRebuildKnowledge)
			admin.POST("/translate", adminHandler.HandleTranslate)
			admin.POST("/translation-cache/invalidate", adminHandler.HandleInvalidateTranslationCache)
			admin.POST("/import", adminHandler.HandleImport)
			admin.GET("/conversations", chatHandler.HandleConversations)
			admin.PATCH("/conversations/:id/feedback", chatHandler.HandleFeedback)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // admin translate and import runs are slow
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelHealth()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Forced server shutdown")
	}

	logger.Info("Server stopped")
}
