package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/pkg/logger"
)

type HealthHandler struct {
	repo      repository.HealthRepository
	startedAt time.Time
	now       func() time.Time
}

type healthResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

type dbTimeResponse struct {
	Time string `json:"time"`
}

func NewHealthHandler(repo repository.HealthRepository, startedAt time.Time) *HealthHandler {
	return &HealthHandler{repo: repo, startedAt: startedAt, now: time.Now}
}

func (h *HealthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
	g.GET("/health/db", h.Database)
	g.GET("/test-db", h.Database)
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	now := h.now()
	return c.JSON(http.StatusOK, healthResponse{
		Success:   true,
		Message:   "Health Dashboard API is running",
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(h.startedAt).Seconds(),
	})
}

// Database godoc
// @Summary Database round trip
// @Tags health
// @Produce json
// @Success 200 {object} dbTimeResponse
// @Failure 500 {string} string "DB Error"
// @Router /health/db [get]
func (h *HealthHandler) Database(c echo.Context) error {
	ts, err := h.repo.DatabaseTime(c.Request().Context())
	if err != nil {
		logger.Error("database health check", "module", "handler", "action", "check", "resource", "database", "result", "failed", "error", err)
		return c.String(http.StatusInternalServerError, "DB Error")
	}
	return c.JSON(http.StatusOK, dbTimeResponse{Time: ts})
}
