package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/models"
)

// HealthChecker manages health checks for all backing services
type HealthChecker struct {
	dbManager   *database.Manager
	healthRepo  models.SystemHealthRepository
	logger      *logrus.Logger
	fallbackURL string
}

func NewHealthChecker(dbManager *database.Manager, healthRepo models.SystemHealthRepository, logger *logrus.Logger, fallbackURL string) *HealthChecker {
	return &HealthChecker{
		dbManager:   dbManager,
		healthRepo:  healthRepo,
		logger:      logger,
		fallbackURL: fallbackURL,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

// CheckPostgreSQL checks PostgreSQL database health
func (h *HealthChecker) CheckPostgreSQL() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingDatabase()
	return h.report("postgresql", start, err)
}

// CheckRedis checks Redis cache health
func (h *HealthChecker) CheckRedis() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingRedis()
	return h.report("redis", start, err)
}

// CheckTranslationFallback checks that the public translation API answers.
// A failure here is degraded, not unhealthy: the LLM path still works.
func (h *HealthChecker) CheckTranslationFallback() ServiceHealth {
	start := time.Now()

	var err error
	client := &http.Client{Timeout: 10 * time.Second}
	resp, reqErr := client.Get(h.fallbackURL + "/get?q=ciao&langpair=it%7Cen")
	if reqErr != nil {
		err = reqErr
	} else {
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			err = fmt.Errorf("HTTP %d", resp.StatusCode)
		}
	}

	service := h.report("translation_fallback", start, err)
	if service.Status == "unhealthy" {
		service.Status = "degraded"
	}
	return service
}

func (h *HealthChecker) report(name string, start time.Time, err error) ServiceHealth {
	responseTime := int(time.Since(start).Milliseconds())

	status := "healthy"
	errorMsg := ""
	if err != nil {
		status = "unhealthy"
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	if repoErr := h.healthRepo.UpdateServiceHealth(name, status, responseTime, errorMsg); repoErr != nil {
		h.logger.WithError(repoErr).WithField("service", name).Warn("Failed to persist health status")
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckAll performs health checks on all services
func (h *HealthChecker) CheckAll() OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(),
		h.CheckRedis(),
		h.CheckTranslationFallback(),
	}

	return OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.getUptime(),
	}
}

// CheckStored returns the last persisted health status without probing.
func (h *HealthChecker) CheckStored() (*OverallHealth, error) {
	stored, err := h.healthRepo.GetAllServicesHealth()
	if err != nil {
		return nil, err
	}

	services := make([]ServiceHealth, len(stored))
	for i, entry := range stored {
		services[i] = ServiceHealth{
			Name:         entry.ServiceName,
			Status:       entry.Status,
			ResponseTime: entry.ResponseTimeMs,
			Error:        entry.ErrorMessage,
			LastChecked:  entry.CheckedAt.Format(time.RFC3339),
		}
	}

	return &OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.getUptime(),
	}, nil
}

func overallStatus(services []ServiceHealth) string {
	overall := "healthy"
	for _, service := range services {
		if service.Status == "unhealthy" {
			return "unhealthy"
		}
		if service.Status == "degraded" {
			overall = "degraded"
		}
	}
	return overall
}

var startTime = time.Now()

func (h *HealthChecker) getUptime() string {
	return time.Since(startTime).String()
}

// PeriodicHealthCheck runs health checks until the context is cancelled.
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll()
			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
