package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// Summary is the body of the metrics endpoint
type Summary struct {
	WindowStart   time.Time       `json:"windowStart"`
	TotalRequests int64           `json:"totalRequests"`
	TotalErrors   int64           `json:"totalErrors"`
	Routes        []*RouteMetrics `json:"routes"`
}

// MetricsCollector aggregates request timings per route template
type MetricsCollector struct {
	mu            sync.Mutex
	routes        map[string]*RouteMetrics
	windowStart   time.Time
	totalRequests int64
	totalErrors   int64
}

// NewMetricsCollector returns an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		routes:      make(map[string]*RouteMetrics),
		windowStart: time.Now(),
	}
}

// Record adds one finished request. Status codes of 400 and above count
// as errors.
func (mc *MetricsCollector) Record(method, path string, status int, took time.Duration, at time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := method + " " + path
	rm, ok := mc.routes[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path, MinTime: took}
		mc.routes[key] = rm
	}
	rm.Count++
	rm.TotalTime += took
	rm.AvgTime = rm.TotalTime / time.Duration(rm.Count)
	if took < rm.MinTime {
		rm.MinTime = took
	}
	if took > rm.MaxTime {
		rm.MaxTime = took
	}
	rm.LastRequest = at

	mc.totalRequests++
	if status >= http.StatusBadRequest {
		rm.ErrorCount++
		mc.totalErrors++
	}
}

// Summary returns a snapshot, slowest routes first
func (mc *MetricsCollector) Summary() Summary {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	s := Summary{
		WindowStart:   mc.windowStart,
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		Routes:        make([]*RouteMetrics, 0, len(mc.routes)),
	}
	for _, rm := range mc.routes {
		cp := *rm
		s.Routes = append(s.Routes, &cp)
	}
	sort.Slice(s.Routes, func(i, j int) bool {
		if s.Routes[i].AvgTime != s.Routes[j].AvgTime {
			return s.Routes[i].AvgTime > s.Routes[j].AvgTime
		}
		return s.Routes[i].Method+s.Routes[i].Path < s.Routes[j].Method+s.Routes[j].Path
	})
	return s
}

// SummaryHandler writes the collector's summary
func (mc *MetricsCollector) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	b, err := json.Marshal(mc.Summary())
	if err != nil {
		http.Error(w, `{"message": "failed to marshal metrics"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
