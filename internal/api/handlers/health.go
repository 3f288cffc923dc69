package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/health"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
	logger  *logrus.Logger
}

func NewHealthHandler(checker *health.HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger,
	}
}

// HandleHealth probes every backing service and reports the result
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	overall := h.checker.CheckAll()

	code := http.StatusOK
	if overall.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}

	utils.SuccessResponse(c, code, "Health check completed", overall)
}

// HandleHealthStored serves the last persisted check without probing,
// falling back to a live check when nothing is stored yet
func (h *HealthHandler) HandleHealthStored(c *gin.Context) {
	overall, err := h.checker.CheckStored()
	if err != nil || len(overall.Services) == 0 {
		if err != nil {
			h.logger.WithError(err).Debug("No stored health status, probing live")
		}
		live := h.checker.CheckAll()
		overall = &live
	}

	utils.SuccessResponse(c, http.StatusOK, "Health status retrieved", overall)
}
