package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"
)

// SystemMetrics is the /metrics response.
type SystemMetrics struct {
	Timestamp     string                   `json:"timestamp"`
	Version       string                   `json:"version"`
	UptimeSeconds int64                    `json:"uptime_seconds"`
	Runtime       RuntimeMetrics           `json:"runtime"`
	WebSocket     WSMetrics                `json:"websocket"`
	Directives    DirectiveMetricsSnapshot `json:"directives"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// DirectiveMetricsSnapshot counts directives since start.
type DirectiveMetricsSnapshot struct {
	Total       uint64            `json:"total"`
	Succeeded   uint64            `json:"succeeded"`
	Failed      uint64            `json:"failed"`
	ByErrorType map[string]uint64 `json:"by_error_type"`
}

// directiveStats accumulates directive outcomes in memory.
type directiveStats struct {
	mu          sync.Mutex
	succeeded   uint64
	failed      uint64
	byErrorType map[string]uint64
}

func newDirectiveStats() *directiveStats {
	return &directiveStats{byErrorType: make(map[string]uint64)}
}

func (d *directiveStats) observe(outcome, errorType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if errorType == "" && outcome != "error" {
		d.succeeded++
		return
	}
	d.failed++
	if errorType != "" {
		d.byErrorType[errorType]++
	}
}

func (d *directiveStats) snapshot() DirectiveMetricsSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	byType := make(map[string]uint64, len(d.byErrorType))
	for k, v := range d.byErrorType {
		byType[k] = v
	}
	return DirectiveMetricsSnapshot{
		Total:       d.succeeded + d.failed,
		Succeeded:   d.succeeded,
		Failed:      d.failed,
		ByErrorType: byType,
	}
}

// handleMetrics returns runtime and directive counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(mem.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(mem.TotalAlloc) / 1024 / 1024,
			NumGC:         mem.NumGC,
		},
		WebSocket:  WSMetrics{ConnectedClients: s.hub.ClientCount()},
		Directives: s.stats.snapshot(),
	})
}
