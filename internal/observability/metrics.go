package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for routing outcomes and ops requests.
type Metrics struct {
	mu           sync.Mutex
	routeCount   map[string]int64
	failureCount map[string]int64
	requestCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		routeCount:   make(map[string]int64),
		failureCount: make(map[string]int64),
		requestCount: make(map[string]int64),
	}
}

// RecordRoute counts one dispatched routing action (relay_to_staff, ai_assist, ...).
func (m *Metrics) RecordRoute(action string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routeCount[action]++
}

// RecordFailure counts a non-fatal failure such as an undelivered DM.
func (m *Metrics) RecordFailure(action, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failureCount[action+"|"+code]++
}

// RecordRequest counts ops HTTP requests.
func (m *Metrics) RecordRequest(path, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[path+"|"+method+"|"+strconv.Itoa(status)]++
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Routes   map[string]int64 `json:"routes"`
	Failures map[string]int64 `json:"failures"`
	Requests map[string]int64 `json:"requests"`
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Routes:   copyCounts(m.routeCount),
		Failures: copyCounts(m.failureCount),
		Requests: copyCounts(m.requestCount),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
