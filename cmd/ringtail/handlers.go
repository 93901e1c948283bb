package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/c360/ringkit/health"
	"github.com/c360/ringkit/pkg/ringbuffer"
)

// window is the read side of the shared line buffer.
type window interface {
	Snapshot() []string
	Capacity() int
	Policy() ringbuffer.Policy
	Stats() *ringbuffer.Statistics
	IsFull() bool
	IsClosed() bool
}

// LinesResponse is the body of GET /lines.
type LinesResponse struct {
	Lines    []string          `json:"lines"`
	Size     int               `json:"size"`
	Capacity int               `json:"capacity"`
	Policy   ringbuffer.Policy `json:"policy"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	ringbuffer.StatsSummary
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

func linesHandler(w window, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lines := w.Snapshot()
		if lines == nil {
			lines = []string{}
		}
		writeJSON(rw, logger, LinesResponse{
			Lines:    lines,
			Size:     len(lines),
			Capacity: w.Capacity(),
			Policy:   w.Policy(),
		})
	})
}

func statsHandler(w window, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stats := w.Stats()
		writeJSON(rw, logger, StatsResponse{
			StatsSummary: stats.Summary(),
			Capacity:     w.Capacity(),
			Utilization:  stats.Utilization(int64(w.Capacity())),
		})
	})
}

func writeJSON(rw http.ResponseWriter, logger *slog.Logger, v any) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logger.Warn("write response failed", "error", err)
	}
}

// bufferCheck reports the buffer as degraded while a full reject buffer is
// dropping lines.
func bufferCheck(w window) health.Check {
	return func() health.Status {
		if w.IsClosed() {
			return health.Unhealthy("buffer", "buffer closed")
		}
		if w.Policy() == ringbuffer.Reject && w.IsFull() {
			return health.Degraded("buffer",
				fmt.Sprintf("buffer full, %d lines rejected", w.Stats().Rejections()))
		}
		return health.Healthy("buffer",
			fmt.Sprintf("%d of %d lines retained", w.Stats().CurrentSize(), w.Capacity()))
	}
}
