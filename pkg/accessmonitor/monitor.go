package accessmonitor

import (
	"sync"
	"sync/atomic"
	"time"
)

const DefaultSize = 200

const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Event is one completed store access.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Op         string    `json:"op"` // list | get | create | update | delete
	SupplierID string    `json:"supplier_id"`
	ID         string    `json:"id,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	WaitMs     int64     `json:"wait_ms"` // time spent waiting for a pool slot
	DurationMs int64     `json:"duration_ms"`
}

type Stats struct {
	TotalAccesses int64   `json:"total_accesses"`
	TotalNotFound int64   `json:"total_not_found"`
	TotalErrors   int64   `json:"total_errors"`
	RecentEvents  []Event `json:"recent_events"`
}

// Monitor keeps the last N access events in a ring buffer plus running totals.
type Monitor struct {
	eventsMu sync.Mutex
	events   []Event
	idx      int
	count    int

	retention time.Duration
	now       func() time.Time

	totalAccesses int64
	totalNotFound int64
	totalErrors   int64
}

// New creates a monitor holding up to size events. Events older than
// retention are hidden from GetStats; 0 keeps them until overwritten.
func New(size int, retention time.Duration) *Monitor {
	if size <= 0 {
		size = DefaultSize
	}
	return &Monitor{
		events:    make([]Event, size),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *Monitor) Record(e Event) {
	if m == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}

	atomic.AddInt64(&m.totalAccesses, 1)
	switch e.Status {
	case StatusNotFound:
		atomic.AddInt64(&m.totalNotFound, 1)
	case StatusError:
		atomic.AddInt64(&m.totalErrors, 1)
	}

	m.eventsMu.Lock()
	m.events[m.idx] = e
	m.idx = (m.idx + 1) % len(m.events)
	if m.count < len(m.events) {
		m.count++
	}
	m.eventsMu.Unlock()
}

// GetStats returns totals and the retained events, oldest first.
func (m *Monitor) GetStats() Stats {
	if m == nil {
		return Stats{RecentEvents: []Event{}}
	}

	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	var cutoff time.Time
	if m.retention > 0 {
		cutoff = m.now().Add(-m.retention)
	}

	res := make([]Event, 0, m.count)
	start := (m.idx - m.count + len(m.events)) % len(m.events)
	for i := 0; i < m.count; i++ {
		e := m.events[(start+i)%len(m.events)]
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		res = append(res, e)
	}

	return Stats{
		TotalAccesses: atomic.LoadInt64(&m.totalAccesses),
		TotalNotFound: atomic.LoadInt64(&m.totalNotFound),
		TotalErrors:   atomic.LoadInt64(&m.totalErrors),
		RecentEvents:  res,
	}
}
