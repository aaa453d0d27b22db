package handlers

import (
	"context"
	"net/http"
	"time"

	"jewelconnect/internal/responses"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by the database pool and the Redis repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}

	if status != http.StatusOK {
		responses.JSON(c, status, "error", report, "Service unhealthy", nil)
		return
	}
	responses.Success(c, status, report, "Service healthy")
}
