package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/cloning"
	"github.com/24021959/guidebook-backend/internal/importer"
	"github.com/24021959/guidebook-backend/internal/knowledge"
	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/24021959/guidebook-backend/internal/repository"
	"github.com/24021959/guidebook-backend/internal/translation"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

type AdminHandler struct {
	repos   *repository.RepositoryManager
	builder *knowledge.Builder
	engine  *translation.Engine
	logger  *logrus.Logger
}

func NewAdminHandler(repos *repository.RepositoryManager, builder *knowledge.Builder, engine *translation.Engine, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		repos:   repos,
		builder: builder,
		engine:  engine,
		logger:  logger,
	}
}

// HandleRebuildKnowledge regenerates the chatbot knowledge base from the
// currently published pages
func (h *AdminHandler) HandleRebuildKnowledge(c *gin.Context) {
	result, err := h.builder.Rebuild(c.Request.Context(), nil)
	if err != nil {
		h.logger.WithError(err).Error("Knowledge rebuild failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Knowledge rebuild failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Knowledge base rebuilt", models.RebuildResponse{
		Chunks:  result.Chunks,
		Errors:  result.Errors,
		Message: result.Message,
	})
}

// HandleTranslate clones the Italian pages into the requested languages.
// Runs synchronously; page sets are small enough that the admin panel just
// waits for the summary.
func (h *AdminHandler) HandleTranslate(c *gin.Context) {
	var req models.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid translate request", err)
		return
	}

	workflow := cloning.NewWorkflow(cloning.WorkflowConfig{
		Pages:      h.repos.Pages,
		Icons:      h.repos.MenuIcons,
		Translator: h.engine,
		Overwrite:  req.Overwrite,
		Logger:     h.logger,
	})

	summary, err := workflow.Run(c.Request.Context(), req.Languages, nil)
	if err != nil {
		h.logger.WithError(err).Error("Translation workflow failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Translation workflow failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, summary.Message, summary)
}

// HandleInvalidateTranslationCache drops cached translations, optionally for
// one language only (query parameter "lang")
func (h *AdminHandler) HandleInvalidateTranslationCache(c *gin.Context) {
	lang := c.Query("lang")
	if lang != "" && !models.IsSupportedLanguage(lang) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unsupported language", nil)
		return
	}

	h.engine.Cache().Invalidate(lang)
	utils.SuccessResponse(c, http.StatusOK, "Translation cache invalidated", gin.H{
		"remaining_entries": h.engine.Cache().Len(),
	})
}

type importRequest struct {
	URL      string `json:"url" binding:"required"`
	MaxPages int    `json:"max_pages"`
}

// HandleImport crawls an external site into unpublished draft pages
func (h *AdminHandler) HandleImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid import request", err)
		return
	}

	im := importer.NewImporter(importer.Config{
		MaxPages: req.MaxPages,
		Delay:    time.Second,
		Pages:    h.repos.Pages,
		Logger:   h.logger,
	})

	report, err := im.Import(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.WithError(err).Error("Site import failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Site import failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Site imported", report)
}
