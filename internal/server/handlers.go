package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/crudeops/wtidesk/internal/database"
	"github.com/crudeops/wtidesk/internal/modules/prices"
	"github.com/crudeops/wtidesk/internal/scheduler"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := map[string]interface{}{
		"status":  "healthy",
		"service": "wtidesk",
	}

	// full=1 adds an integrity check on top of the ping
	check := s.container.PricesDB.QuickCheck
	if r.URL.Query().Get("full") == "1" {
		check = s.container.PricesDB.HealthCheck
		response["check"] = "full"
	}

	if err := check(ctx); err != nil {
		s.log.Error().Err(err).Msg("Database health check failed")
		response["status"] = "unhealthy"
		response["error"] = "database unavailable"
		s.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

// SystemStatus summarizes store, schedule and sync state
type SystemStatus struct {
	Uptime       string              `json:"uptime"`
	Database     *database.Stats     `json:"database"`
	Jobs         []scheduler.JobInfo `json:"jobs"`
	LastSync     *prices.SyncRun     `json:"last_sync"`
	HolidayYears []int               `json:"holiday_years"`
	Host         HostStats           `json:"host"`
	Backups      bool                `json:"backups_enabled"`
	EventClients int                 `json:"event_clients"`
}

// HostStats is a point-in-time view of machine load
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
}

// handleSystemStatus handles GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.container.PricesDB.GetStats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get database stats")
		http.Error(w, "Failed to get database stats", http.StatusInternalServerError)
		return
	}

	lastSync, err := s.container.PriceService.LastSync(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get last sync run")
		http.Error(w, "Failed to get last sync run", http.StatusInternalServerError)
		return
	}

	status := SystemStatus{
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		Database:     stats,
		Jobs:         []scheduler.JobInfo{},
		LastSync:     lastSync,
		HolidayYears: s.container.Holidays.Years(),
		Host:         s.hostStats(),
		Backups:      s.container.BackupService != nil,
	}
	if s.container.Scheduler != nil {
		status.Jobs = s.container.Scheduler.Jobs()
	}
	if s.container.EventBus != nil {
		status.EventClients = s.container.EventBus.Subscribers()
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": status,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// hostStats samples CPU over a short window so the endpoint stays fast.
// Failures leave the field at zero.
func (s *Server) hostStats() HostStats {
	var stats HostStats

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	if memStat, err := mem.VirtualMemory(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		stats.MemoryPercent = memStat.UsedPercent
	}

	if usage, err := disk.Usage(s.cfg.DataDir); err != nil {
		s.log.Warn().Err(err).Str("path", s.cfg.DataDir).Msg("Failed to get disk usage")
	} else {
		stats.DiskPercent = usage.UsedPercent
	}

	return stats
}

// handleListBackups handles GET /api/system/backups
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if s.container.BackupService == nil {
		http.Error(w, "backups not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := s.container.BackupService.ListBackups(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusBadGateway)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"backups": backups,
			"count":   len(backups),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
