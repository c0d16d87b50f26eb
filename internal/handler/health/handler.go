package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	db      *sqlx.DB
	started time.Time
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{db: db, started: time.Now()}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Check)
}

// Check reports liveness plus a database ping. A failing ping returns
// 503 so load balancers stop routing here.
func (h *Handler) Check(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "up"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "down"
	}

	c.JSON(status, gin.H{
		"status":   dbStatus,
		"uptime":   time.Since(h.started).String(),
		"database": dbStatus,
	})
}
