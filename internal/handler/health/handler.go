package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Info struct {
	Name        string
	Version     string
	Environment string
}

type Handler struct {
	db       Pinger
	gatherer prometheus.Gatherer
	info     Info
	started  time.Time
}

func NewHandler(db Pinger, gatherer prometheus.Gatherer, info Info) *Handler {
	return &Handler{db: db, gatherer: gatherer, info: info, started: time.Now()}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.ServiceInfo)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

func (h *Handler) ServiceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.info.Name,
		"data": gin.H{
			"version":     h.info.Version,
			"environment": h.info.Environment,
		},
	})
}

// Health reports 503 when the database cannot be reached.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	code, status, database := http.StatusOK, "OK", "connected"
	if err := h.db.PingContext(ctx); err != nil {
		_ = c.Error(err)
		code, status, database = http.StatusServiceUnavailable, "ERROR", "disconnected"
	}

	c.JSON(code, gin.H{
		"success":   code == http.StatusOK,
		"status":    status,
		"database":  database,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}
