// Package handler implements the thin gin HTTP handlers spec.md §6 names,
// translating JSON requests into orchestrator/repository calls and
// AppError returns into c.Error, following the teacher's handler shape
// (one struct per resource, constructor takes its collaborators, methods
// are bare gin.HandlerFunc).
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kbvault/kbvault/internal/metrics"
)

// SystemHandler serves the unauthenticated liveness/readiness/metrics
// endpoints.
type SystemHandler struct {
	db       *gorm.DB
	counters *metrics.Counters
}

func NewSystemHandler(db *gorm.DB, counters *metrics.Counters) *SystemHandler {
	return &SystemHandler{db: db, counters: counters}
}

// Health reports liveness unconditionally: if the process can answer
// HTTP at all, it is alive.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready probes the one dependency every request needs: the relational
// database. A failing probe means the process is up but shouldn't yet
// receive traffic.
func (h *SystemHandler) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": err.Error()})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Metrics returns the runtime request counters.
func (h *SystemHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.counters.Snapshot())
}
