package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "crypto-portfolio",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuAvg, ramPercent := s.getSystemStats()

	response := map[string]interface{}{
		"status":      "running",
		"cpu_percent": cpuAvg,
		"ram_percent": ramPercent,
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// getSystemStats returns CPU and RAM usage percentages. A short CPU
// sampling interval keeps the endpoint responsive.
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeDomainError maps accounting errors onto HTTP statuses. Validation
// problems are client errors; an overdrawing disposal is unprocessable
// and carries the shortfall so the caller can locate the offending
// transaction.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		s.writeError(w, http.StatusBadRequest, validation.Error())
		return
	}

	var insufficient *domain.InsufficientQuantityError
	if errors.As(err, &insufficient) {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     insufficient.Error(),
			"coin":      insufficient.Coin,
			"strategy":  insufficient.Strategy,
			"shortfall": insufficient.Shortfall,
		})
		return
	}

	if errors.Is(err, domain.ErrTransactionNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.log.Error().Err(err).Msg("Internal error")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}
