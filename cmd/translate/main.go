package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/24021959/guidebook-backend/internal/cloning"
	"github.com/24021959/guidebook-backend/internal/config"
	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/llm"
	"github.com/24021959/guidebook-backend/internal/repository"
	"github.com/24021959/guidebook-backend/internal/translation"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

var (
	languages = flag.String("languages", "", "Comma-separated target languages (default: all configured)")
	overwrite = flag.Bool("overwrite", false, "Retranslate pages that already exist in the target language")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()

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

	engine := translation.NewEngine(translation.EngineConfig{
		SourceLanguage: cfg.Translation.SourceLanguage,
		ChunkThreshold: cfg.Translation.ChunkThreshold,
		RateLimit:      cfg.Translation.RateLimit,
		ChatModel:      llmClient.Chat(),
		Fallback:       translation.NewFallbackClient(cfg.Translation.FallbackBaseURL, logger),
		Logger:         logger,
	})

	targets := cfg.Translation.TargetLanguages
	if *languages != "" {
		targets = strings.Split(*languages, ",")
		for i := range targets {
			targets[i] = strings.TrimSpace(targets[i])
		}
	}

	workflow := cloning.NewWorkflow(cloning.WorkflowConfig{
		Pages:      repos.Pages,
		Icons:      repos.MenuIcons,
		Translator: engine,
		Overwrite:  *overwrite,
		Logger:     logger,
	})

	color.Cyan("Cloning pages into: %s", strings.Join(targets, ", "))

	var bar *progressbar.ProgressBar
	currentLang := ""
	progress := func(language string, done, total int, title string) {
		if language != currentLang {
			currentLang = language
			bar = progressbar.Default(int64(total), fmt.Sprintf("Translating to %s", language))
		}
		bar.Describe(fmt.Sprintf("Translating to %s: %s", language, title))
		bar.Set(done)
	}

	summary, err := workflow.Run(context.Background(), targets, progress)
	if err != nil {
		color.Red("Translation failed: %v", err)
		os.Exit(1)
	}

	fmt.Println()
	for _, report := range summary.Reports {
		line := fmt.Sprintf("%s: %d created, %d updated, %d skipped, %d failed",
			report.Language, report.Created, report.Updated, report.Skipped, report.Failed)
		if report.Failed > 0 {
			color.Yellow(line)
		} else {
			color.Green(line)
		}
	}
	color.Cyan(summary.Message)

	if hasFailures(summary) {
		os.Exit(1)
	}
}

func hasFailures(summary *cloning.Summary) bool {
	for _, report := range summary.Reports {
		if report.Failed > 0 {
			return true
		}
	}
	return false
}
