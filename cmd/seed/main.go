package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/config"
	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/importer"
	"github.com/24021959/guidebook-backend/internal/repository"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

var (
	siteURL  = flag.String("url", "", "URL of the existing site to import (required)")
	maxPages = flag.Int("limit", 50, "Maximum number of pages to import")
	delay    = flag.Duration("delay", 2*time.Second, "Delay between requests")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	if *siteURL == "" {
		log.Fatal("-url is required")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting site importer...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
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

	im := importer.NewImporter(importer.Config{
		MaxPages: *maxPages,
		Delay:    *delay,
		Pages:    repos.Pages,
		Logger:   logger,
	})

	color.Cyan("Importing %s (max %d pages)...", *siteURL, *maxPages)

	report, err := im.Import(context.Background(), *siteURL)
	if err != nil {
		color.Red("Import failed: %v", err)
		os.Exit(1)
	}

	color.Green("Import completed: %d visited, %d drafts created, %d skipped", report.Visited, report.Created, report.Skipped)
	if len(report.Errors) > 0 {
		color.Yellow("%d pages failed:", len(report.Errors))
		for _, msg := range report.Errors {
			color.Yellow("  %s", msg)
		}
	}
	color.Cyan("Review and publish the drafts from the admin panel.")
}
