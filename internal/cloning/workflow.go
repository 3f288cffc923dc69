package cloning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/models"
)

// PageTranslator is the slice of the translation engine the workflow needs.
type PageTranslator interface {
	TranslatePage(ctx context.Context, title, content, targetLang string) (string, string)
}

// Progress is invoked after each page of each language is processed, with
// the source page title for display.
type Progress func(language string, done, total int, title string)

// LanguageReport counts the outcome of one language pass.
type LanguageReport struct {
	Language string `json:"language"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// Summary is the result of one cloning run.
type Summary struct {
	Reports []LanguageReport `json:"reports"`
	Message string           `json:"message"`
}

func (s *Summary) totals() (created, updated, skipped, failed int) {
	for _, r := range s.Reports {
		created += r.Created
		updated += r.Updated
		skipped += r.Skipped
		failed += r.Failed
	}
	return
}

// WorkflowConfig carries the dependencies and policy of a Workflow.
type WorkflowConfig struct {
	Pages      models.PageRepository
	Icons      models.MenuIconRepository
	Translator PageTranslator
	// Overwrite retranslates pages whose target path already exists.
	// The default keeps existing translations untouched.
	Overwrite bool
	Logger    *logrus.Logger
}

// Workflow clones the Italian menu tree into the target languages. It runs
// strictly sequentially, one language at a time and one page at a time, so the
// translation backend is never hit concurrently.
type Workflow struct {
	pages      models.PageRepository
	icons      models.MenuIconRepository
	translator PageTranslator
	overwrite  bool
	logger     *logrus.Logger
}

func NewWorkflow(cfg WorkflowConfig) *Workflow {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Workflow{
		pages:      cfg.Pages,
		icons:      cfg.Icons,
		translator: cfg.Translator,
		overwrite:  cfg.Overwrite,
		logger:     cfg.Logger,
	}
}

// Run clones every source page into each requested language. A failing page
// is recorded and skipped; the run keeps going and reports the counts at the
// end. Languages equal to the source or unsupported are rejected up front.
func (w *Workflow) Run(ctx context.Context, languages []string, progress Progress) (*Summary, error) {
	if len(languages) == 0 {
		languages = models.TargetLanguages
	}
	for _, lang := range languages {
		if lang == models.SourceLanguage {
			return nil, fmt.Errorf("cannot clone into the source language %q", lang)
		}
		if !models.IsSupportedLanguage(lang) {
			return nil, fmt.Errorf("unsupported target language %q", lang)
		}
	}

	sources, err := w.pages.GetSourcePages()
	if err != nil {
		return nil, fmt.Errorf("loading source pages: %w", err)
	}

	sourceIcons, err := w.sourceIconIndex()
	if err != nil {
		return nil, fmt.Errorf("loading source menu icons: %w", err)
	}

	summary := &Summary{}
	for _, lang := range languages {
		report := LanguageReport{Language: lang}
		for i, page := range sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if err := w.clonePage(ctx, page, sourceIcons[page.Path], lang, &report); err != nil {
				report.Failed++
				w.logger.WithFields(logrus.Fields{
					"path":     page.Path,
					"language": lang,
					"error":    err.Error(),
				}).Error("Failed to clone page")
			}

			if progress != nil {
				progress(lang, i+1, len(sources), page.Title)
			}
		}
		summary.Reports = append(summary.Reports, report)
		w.logger.WithFields(logrus.Fields{
			"language": lang,
			"created":  report.Created,
			"updated":  report.Updated,
			"skipped":  report.Skipped,
			"failed":   report.Failed,
		}).Info("Language pass completed")
	}

	created, updated, skipped, failed := summary.totals()
	summary.Message = fmt.Sprintf("Cloned %d page(s) into %s: %d created, %d updated, %d skipped, %d failed",
		len(sources), strings.Join(languages, ", "), created, updated, skipped, failed)

	return summary, nil
}

func (w *Workflow) clonePage(ctx context.Context, source models.Page, sourceIcon *models.MenuIcon, lang string, report *LanguageReport) error {
	targetPath := models.TranslatedPath(lang, source.Path)

	exists, err := w.pages.ExistsByPath(targetPath)
	if err != nil {
		return fmt.Errorf("checking %s: %w", targetPath, err)
	}
	if exists && !w.overwrite {
		report.Skipped++
		return nil
	}

	title, content := w.translator.TranslatePage(ctx, source.Title, source.Content, lang)

	page := models.Page{
		Title:      title,
		Content:    content,
		Path:       targetPath,
		ImageURL:   source.ImageURL,
		Icon:       source.Icon,
		IsSubmenu:  source.IsSubmenu,
		ParentPath: models.TranslatedPath(lang, source.ParentPath),
		Published:  source.Published,
		IsParent:   source.IsParent,
	}

	icon := models.MenuIcon{
		Path:       targetPath,
		Label:      title,
		Icon:       source.Icon,
		ParentPath: page.ParentPath,
		IsSubmenu:  source.IsSubmenu,
		Published:  source.Published,
		IsParent:   source.IsParent,
	}
	if sourceIcon != nil {
		icon.BgColor = sourceIcon.BgColor
		if icon.Icon == "" {
			icon.Icon = sourceIcon.Icon
		}
	}

	if exists {
		existing, err := w.pages.GetByPath(targetPath)
		if err != nil {
			return fmt.Errorf("loading existing %s: %w", targetPath, err)
		}
		page.ID = existing.ID
		page.CreatedAt = existing.CreatedAt
		if err := w.pages.Update(&page, &icon); err != nil {
			return fmt.Errorf("updating %s: %w", targetPath, err)
		}
		report.Updated++
		return nil
	}

	page.ID = uuid.Nil // assigned on insert
	if err := w.pages.Create(&page, &icon); err != nil {
		return fmt.Errorf("creating %s: %w", targetPath, err)
	}
	report.Created++
	return nil
}

func (w *Workflow) sourceIconIndex() (map[string]*models.MenuIcon, error) {
	if w.icons == nil {
		return map[string]*models.MenuIcon{}, nil
	}
	icons, err := w.icons.GetAll()
	if err != nil {
		return nil, err
	}
	index := make(map[string]*models.MenuIcon, len(icons))
	for i := range icons {
		if models.IsSourcePath(icons[i].Path) {
			index[icons[i].Path] = &icons[i]
		}
	}
	return index, nil
}
