package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/24021959/guidebook-backend/internal/repository"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

const pageCacheTTL = 5 * time.Minute

type PagesHandler struct {
	repos  *repository.RepositoryManager
	cache  *database.Cache
	logger *logrus.Logger
}

func NewPagesHandler(repos *repository.RepositoryManager, cache *database.Cache, logger *logrus.Logger) *PagesHandler {
	return &PagesHandler{
		repos:  repos,
		cache:  cache,
		logger: logger,
	}
}

// HandleCreatePage creates a page together with its menu icon
func (h *PagesHandler) HandleCreatePage(c *gin.Context) {
	var req models.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid page format", err)
		return
	}

	page, icon := pageFromRequest(&req)
	if err := page.Validate(); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid page", err)
		return
	}

	exists, err := h.repos.Pages.ExistsByPath(page.Path)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check page path")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to create page", err)
		return
	}
	if exists {
		utils.ErrorResponse(c, http.StatusConflict, "A page already exists at this path", nil)
		return
	}

	if err := h.repos.Pages.Create(page, icon); err != nil {
		h.logger.WithError(err).WithField("path", page.Path).Error("Failed to create page")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to create page", err)
		return
	}

	h.invalidate(c.Request.Context(), page.Path)

	h.logger.WithField("path", page.Path).Info("Page created")
	utils.SuccessResponse(c, http.StatusCreated, "Page created", page)
}

// HandleUpdatePage updates a page and rewrites its menu icon
func (h *PagesHandler) HandleUpdatePage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid page id", err)
		return
	}

	var req models.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid page format", err)
		return
	}

	existing, err := h.repos.Pages.GetByID(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Page not found", err)
		return
	}

	page, icon := pageFromRequest(&req)
	page.ID = existing.ID
	page.CreatedAt = existing.CreatedAt
	if err := page.Validate(); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid page", err)
		return
	}

	if err := h.repos.Pages.Update(page, icon); err != nil {
		h.logger.WithError(err).WithField("path", page.Path).Error("Failed to update page")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to update page", err)
		return
	}

	h.invalidate(c.Request.Context(), existing.Path)
	if page.Path != existing.Path {
		h.invalidate(c.Request.Context(), page.Path)
	}

	utils.SuccessResponse(c, http.StatusOK, "Page updated", page)
}

// HandleGetPage serves one page by its path (query parameter "path")
func (h *PagesHandler) HandleGetPage(c *gin.Context) {
	raw := c.Query("path")
	if raw == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'path' is required", nil)
		return
	}
	path := models.NormalizePath(raw)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if cached, err := h.cache.GetPage(ctx, path); err == nil {
		utils.SuccessResponse(c, http.StatusOK, "Page retrieved", cached)
		return
	}

	page, err := h.repos.Pages.GetByPath(path)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorResponse(c, http.StatusNotFound, "Page not found", nil)
			return
		}
		h.logger.WithError(err).WithField("path", path).Error("Failed to load page")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load page", err)
		return
	}

	if err := h.cache.SetPage(ctx, page, pageCacheTTL); err != nil {
		h.logger.WithError(err).Debug("Failed to cache page")
	}

	utils.SuccessResponse(c, http.StatusOK, "Page retrieved", page)
}

// HandleListPages lists pages, optionally only published ones
func (h *PagesHandler) HandleListPages(c *gin.Context) {
	publishedOnly := c.DefaultQuery("published", "false") == "true"

	pages, err := h.repos.Pages.List(publishedOnly)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list pages")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list pages", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pages retrieved", pages)
}

// HandleDeletePage deletes a page, its translated counterparts and their
// menu icons
func (h *PagesHandler) HandleDeletePage(c *gin.Context) {
	raw := c.Query("path")
	if raw == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'path' is required", nil)
		return
	}
	path := models.NormalizePath(raw)

	removed, err := h.repos.Pages.DeleteCascade(path)
	if err != nil {
		h.logger.WithError(err).WithField("path", path).Error("Failed to delete page")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to delete page", err)
		return
	}
	if removed == 0 {
		utils.ErrorResponse(c, http.StatusNotFound, "Page not found", nil)
		return
	}

	h.invalidate(c.Request.Context(), path)
	for _, lang := range models.TargetLanguages {
		h.invalidate(c.Request.Context(), models.TranslatedPath(lang, path))
	}

	h.logger.WithFields(logrus.Fields{"path": path, "removed": removed}).Info("Page deleted")
	utils.SuccessResponse(c, http.StatusOK, "Page deleted", gin.H{"removed": removed})
}

// HandleGetMenu serves the menu icons for one language and parent path
func (h *PagesHandler) HandleGetMenu(c *gin.Context) {
	language := c.DefaultQuery("lang", models.SourceLanguage)
	if !models.IsSupportedLanguage(language) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unsupported language", nil)
		return
	}
	parentPath := c.Query("parent")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if cached, err := h.cache.GetMenu(ctx, language, parentPath); err == nil {
		utils.SuccessResponse(c, http.StatusOK, "Menu retrieved", cached)
		return
	}

	icons, err := h.repos.MenuIcons.GetMenu(language, parentPath)
	if err != nil {
		h.logger.WithError(err).WithField("language", language).Error("Failed to load menu")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load menu", err)
		return
	}

	if err := h.cache.SetMenu(ctx, language, parentPath, icons, pageCacheTTL); err != nil {
		h.logger.WithError(err).Debug("Failed to cache menu")
	}

	utils.SuccessResponse(c, http.StatusOK, "Menu retrieved", icons)
}

func (h *PagesHandler) invalidate(ctx context.Context, path string) {
	cacheCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.cache.InvalidatePage(cacheCtx, path); err != nil {
		h.logger.WithError(err).WithField("path", path).Warn("Failed to invalidate page cache")
	}
}

func pageFromRequest(req *models.PageRequest) (*models.Page, *models.MenuIcon) {
	path := models.NormalizePath(req.Path)
	parentPath := ""
	if req.ParentPath != "" {
		parentPath = models.NormalizePath(req.ParentPath)
	}

	page := &models.Page{
		Title:      req.Title,
		Content:    req.Content,
		Path:       path,
		ImageURL:   req.ImageURL,
		Icon:       req.Icon,
		IsSubmenu:  req.IsSubmenu,
		ParentPath: parentPath,
		Published:  req.Published,
		IsParent:   req.IsParent,
	}
	icon := &models.MenuIcon{
		Path:       path,
		Label:      req.Title,
		Icon:       req.Icon,
		BgColor:    req.BgColor,
		ParentPath: parentPath,
		IsSubmenu:  req.IsSubmenu,
		Published:  req.Published,
		IsParent:   req.IsParent,
	}
	return page, icon
}
