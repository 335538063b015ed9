package observability

import (
	"sync"
	"time"
)

// Metrics keeps in-process request and error counters, keyed by route.
// Good enough for the admin snapshot endpoint; a real deployment would
// ship these to a collector.
type Metrics struct {
	mu        sync.RWMutex
	startedAt time.Time
	requests  map[routeKey]*routeStat
	errors    map[errorKey]int64
}

type routeStat struct {
	count int64
	total time.Duration
}

type routeKey struct {
	Path   string
	Method string
	Status int
}

type errorKey struct {
	Path   string
	Method string
	Code   string
}

// NewMetrics initializes the counter store.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt: time.Now().UTC(),
		requests:  make(map[routeKey]*routeStat),
		errors:    make(map[errorKey]int64),
	}
}

// RecordRequest counts a completed request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := routeKey{Path: path, Method: method, Status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	stat, ok := m.requests[key]
	if !ok {
		stat = &routeStat{}
		m.requests[key] = stat
	}
	stat.count++
	stat.total += duration
}

// RecordError counts a request that ended in an application error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{Path: path, Method: method, Code: code}]++
}

// RequestSample is one row of the metrics snapshot.
type RequestSample struct {
	Path      string `json:"path"`
	Method    string `json:"method"`
	Status    int    `json:"status,omitempty"`
	Code      string `json:"code,omitempty"`
	Count     int64  `json:"count"`
	AvgMillis int64  `json:"avg_millis,omitempty"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	Requests      []RequestSample `json:"requests"`
	Errors        []RequestSample `json:"errors"`
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.startedAt).Seconds()),
		Requests:      make([]RequestSample, 0, len(m.requests)),
		Errors:        make([]RequestSample, 0, len(m.errors)),
	}
	for key, stat := range m.requests {
		snap.Requests = append(snap.Requests, RequestSample{
			Path: key.Path, Method: key.Method, Status: key.Status,
			Count:     stat.count,
			AvgMillis: (stat.total / time.Duration(stat.count)).Milliseconds(),
		})
	}
	for key, count := range m.errors {
		snap.Errors = append(snap.Errors, RequestSample{
			Path: key.Path, Method: key.Method, Code: key.Code, Count: count,
		})
	}
	return snap
}
