package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// ToolMetrics counts tool calls and their latency per tool name.
type ToolMetrics struct {
	mu    sync.RWMutex
	tools map[string]*toolStats
}

type toolStats struct {
	calls    int64
	failures int64
	duration time.Duration
}

func NewToolMetrics() *ToolMetrics {
	return &ToolMetrics{tools: make(map[string]*toolStats)}
}

// RecordCall records one finished call of tool.
func (m *ToolMetrics) RecordCall(tool string, failed bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.tools[tool]
	if !ok {
		stats = &toolStats{}
		m.tools[tool] = stats
	}

	stats.calls++
	if failed {
		stats.failures++
	}
	stats.duration += duration
}

// GetMetrics returns a snapshot keyed by tool name.
func (m *ToolMetrics) GetMetrics() map[string]map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[string]any, len(m.tools))

	for name, stats := range m.tools {
		out[name] = map[string]any{
			"calls":        stats.calls,
			"failures":     stats.failures,
			"avg_duration": stats.duration.Seconds() / float64(stats.calls),
		}
	}

	return out
}

func (m *ToolMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tools = make(map[string]*toolStats)
}

// ServeHTTP writes the snapshot as JSON.
func (m *ToolMetrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.GetMetrics())
}
