package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/config"
	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/knowledge"
	"github.com/24021959/guidebook-backend/internal/llm"
	"github.com/24021959/guidebook-backend/internal/repository"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

var verbose = flag.Bool("verbose", false, "Enable verbose logging")

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateOpenAI(); err != nil {
		logger.WithError(err).Fatal("OpenAI configuration validation failed")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	repos := repository.NewRepositoryManager(dbManager.DB, cfg.OpenAI.EmbeddingDim)

	llmClient, err := llm.NewWithConfig(llm.ClientConfig{
		APIKey:         cfg.OpenAI.APIKey,
		ChatModel:      cfg.OpenAI.ChatModel,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize LLM client")
	}

	builder := knowledge.NewBuilder(knowledge.BuilderConfig{
		Pages:     repos.Pages,
		Knowledge: repos.Knowledge,
		Embedder:  llmClient,
		ChunkSize: cfg.Knowledge.ChunkSize,
		Logger:    logger,
	})

	color.Cyan("Rebuilding the chatbot knowledge base...")

	var bar *progressbar.ProgressBar
	progress := func(done, total int, title string) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "Embedding pages")
		}
		bar.Set(done)
	}

	result, err := builder.Rebuild(context.Background(), progress)
	if err != nil {
		color.Red("Rebuild failed: %v", err)
		os.Exit(1)
	}

	if result.Errors > 0 {
		color.Yellow(result.Message)
	} else {
		color.Green(result.Message)
	}
}
