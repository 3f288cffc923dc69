package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/models"
)

// Config configures a site importer run.
type Config struct {
	// AllowedDomain restricts crawling to one host.
	AllowedDomain string
	MaxPages      int
	Delay         time.Duration
	Pages         models.PageRepository
	Logger        *logrus.Logger
}

// Report summarizes one import run.
type Report struct {
	Visited int      `json:"visited"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Importer crawls an existing hotel website and turns its pages into
// unpublished drafts, so a portal can be bootstrapped from the current site
// instead of typed in from scratch. Drafts are reviewed and published from
// the admin panel.
type Importer struct {
	config    Config
	processor *ContentProcessor
	logger    *logrus.Logger
}

func NewImporter(config Config) *Importer {
	if config.MaxPages <= 0 {
		config.MaxPages = 50
	}
	if config.Delay <= 0 {
		config.Delay = 2 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &Importer{
		config:    config,
		processor: NewContentProcessor(),
		logger:    config.Logger,
	}
}

// Import crawls startURL and stores every content page found as a draft.
// Pages whose path already exists are skipped, so re-imports never clobber
// edited content.
func (im *Importer) Import(ctx context.Context, startURL string) (*Report, error) {
	parsed, err := url.Parse(startURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q", startURL)
	}
	domain := im.config.AllowedDomain
	if domain == "" {
		domain = parsed.Host
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(domain),
		colly.MaxDepth(3),
		colly.UserAgent("GuidebookImporter/1.0"),
	)
	collector.Limit(&colly.LimitRule{
		DomainGlob:  domain,
		Parallelism: 1,
		Delay:       im.config.Delay,
	})
	collector.SetRequestTimeout(30 * time.Second)

	report := &Report{}

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		if report.Visited >= im.config.MaxPages {
			return
		}
		report.Visited++

		if err := im.storeDraft(e, report); err != nil {
			report.Errors = append(report.Errors, err.Error())
			im.logger.WithError(err).WithField("url", e.Request.URL.String()).Warn("Failed to import page")
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if report.Visited >= im.config.MaxPages {
			return
		}
		if err := ctx.Err(); err != nil {
			return
		}
		link := e.Attr("href")
		if strings.HasPrefix(link, "#") || strings.HasPrefix(link, "mailto:") || strings.HasPrefix(link, "tel:") {
			return
		}
		e.Request.Visit(link)
	})

	collector.OnError(func(r *colly.Response, err error) {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", r.Request.URL, err))
	})

	if err := collector.Visit(startURL); err != nil {
		return nil, fmt.Errorf("failed to start crawl: %w", err)
	}
	collector.Wait()

	im.logger.WithFields(logrus.Fields{
		"visited": report.Visited,
		"created": report.Created,
		"skipped": report.Skipped,
		"errors":  len(report.Errors),
	}).Info("Site import completed")

	return report, nil
}

func (im *Importer) storeDraft(e *colly.HTMLElement, report *Report) error {
	title := strings.TrimSpace(e.DOM.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(e.DOM.Find("title").First().Text())
	}
	if title == "" {
		report.Skipped++
		return nil
	}

	content := im.processor.ExtractContent(e.DOM.Find("body"))
	if content == "" {
		report.Skipped++
		return nil
	}

	path := im.pathFor(e.Request.URL, title)
	if path == "" || !models.IsSourcePath(path) {
		report.Skipped++
		return nil
	}

	exists, err := im.config.Pages.ExistsByPath(path)
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if exists {
		report.Skipped++
		return nil
	}

	page := models.Page{
		Title:     title,
		Content:   content,
		Path:      path,
		Published: false, // drafts go live only after review
	}
	icon := models.MenuIcon{
		Path:      path,
		Label:     title,
		Published: false,
	}

	if err := im.config.Pages.Create(&page, &icon); err != nil {
		return fmt.Errorf("storing %s: %w", path, err)
	}
	report.Created++
	return nil
}

func (im *Importer) pathFor(pageURL *url.URL, title string) string {
	slug := im.processor.Slugify(strings.Trim(pageURL.Path, "/"))
	if slug == "" || slug == "index" || slug == "home" {
		slug = im.processor.Slugify(title)
	}
	if slug == "" {
		return ""
	}
	return models.NormalizePath("/" + slug)
}
