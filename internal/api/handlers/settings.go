package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/24021959/guidebook-backend/internal/repository"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

const settingsCacheTTL = 10 * time.Minute

type SettingsHandler struct {
	repos  *repository.RepositoryManager
	cache  *database.Cache
	logger *logrus.Logger
}

func NewSettingsHandler(repos *repository.RepositoryManager, cache *database.Cache, logger *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{
		repos:  repos,
		cache:  cache,
		logger: logger,
	}
}

// HandleGetHeader serves the header configuration
func (h *SettingsHandler) HandleGetHeader(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if cached, err := h.cache.GetHeaderSettings(ctx); err == nil {
		utils.SuccessResponse(c, http.StatusOK, "Header settings retrieved", cached)
		return
	}

	header, err := h.repos.Settings.GetHeader()
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.SuccessResponse(c, http.StatusOK, "Header settings retrieved", &models.HeaderSetting{})
			return
		}
		h.logger.WithError(err).Error("Failed to load header settings")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load header settings", err)
		return
	}

	if err := h.cache.SetHeaderSettings(ctx, header, settingsCacheTTL); err != nil {
		h.logger.WithError(err).Debug("Failed to cache header settings")
	}

	utils.SuccessResponse(c, http.StatusOK, "Header settings retrieved", header)
}

// HandleUpdateHeader replaces the header configuration
func (h *SettingsHandler) HandleUpdateHeader(c *gin.Context) {
	var header models.HeaderSetting
	if err := c.ShouldBindJSON(&header); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid header settings", err)
		return
	}

	if err := h.repos.Settings.UpdateHeader(&header); err != nil {
		h.logger.WithError(err).Error("Failed to update header settings")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to update header settings", err)
		return
	}

	h.invalidateSettings(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Header settings updated", &header)
}

// HandleGetSetting serves one site setting by key
func (h *SettingsHandler) HandleGetSetting(c *gin.Context) {
	key := c.Param("key")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if cached, err := h.cache.GetSiteSetting(ctx, key); err == nil {
		utils.SuccessResponse(c, http.StatusOK, "Setting retrieved", cached)
		return
	}

	setting, err := h.repos.Settings.Get(key)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorResponse(c, http.StatusNotFound, "Setting not found", nil)
			return
		}
		h.logger.WithError(err).WithField("key", key).Error("Failed to load setting")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load setting", err)
		return
	}

	if err := h.cache.SetSiteSetting(ctx, key, setting, settingsCacheTTL); err != nil {
		h.logger.WithError(err).Debug("Failed to cache setting")
	}

	utils.SuccessResponse(c, http.StatusOK, "Setting retrieved", setting)
}

// HandleSetSetting upserts one site setting
func (h *SettingsHandler) HandleSetSetting(c *gin.Context) {
	key := c.Param("key")

	var value models.JSONValue
	if err := c.ShouldBindJSON(&value); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Setting value must be a JSON object", err)
		return
	}

	if err := h.repos.Settings.Set(key, value); err != nil {
		h.logger.WithError(err).WithField("key", key).Error("Failed to save setting")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save setting", err)
		return
	}

	h.invalidateSettings(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Setting saved", gin.H{"key": key, "value": value})
}

func (h *SettingsHandler) invalidateSettings(ctx context.Context) {
	cacheCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.cache.InvalidateSettings(cacheCtx); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate settings cache")
	}
}
