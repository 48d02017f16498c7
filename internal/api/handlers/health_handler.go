package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// HealthHandler reports service liveness plus host resource usage.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Get renders the health report.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK
	if err := h.db.Ping(); err != nil {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	host := envelope{}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		host["cpuPercent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		host["memUsedPercent"] = vm.UsedPercent
	}

	writeJSON(w, status, envelope{
		"success": status == http.StatusOK,
		"uptime":  time.Since(startTime).String(),
		"checks":  envelope{"database": dbStatus},
		"host":    host,
	})
}
