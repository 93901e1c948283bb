package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Check computes a component's status on demand.
type Check func() Status

// Monitor tracks the health of named components. Statuses are either pushed
// with Update or pulled from a Check each time the monitor is read.
type Monitor struct {
	system   string
	mu       sync.RWMutex
	statuses map[string]Status
	checks   map[string]Check
}

// NewMonitor creates a monitor whose aggregate status is reported as system.
func NewMonitor(system string) *Monitor {
	return &Monitor{
		system:   system,
		statuses: make(map[string]Status),
		checks:   make(map[string]Check),
	}
}

// Update records the status for a named component.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[name] = status
}

// AddCheck registers a check for a named component. A check replaces any
// status pushed under the same name.
func (m *Monitor) AddCheck(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// Get returns the current status of a named component.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	check, hasCheck := m.checks[name]
	status, exists := m.statuses[name]
	m.mu.RUnlock()

	if hasCheck {
		return m.run(name, check), true
	}
	return status, exists
}

// Aggregate returns the system status with one sub-status per component,
// sorted by name.
func (m *Monitor) Aggregate() Status {
	m.mu.RLock()
	subs := make([]Status, 0, len(m.statuses)+len(m.checks))
	for name, status := range m.statuses {
		if _, overridden := m.checks[name]; !overridden {
			subs = append(subs, status)
		}
	}
	checks := make(map[string]Check, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mu.RUnlock()

	// Checks run outside the lock; they may take locks of their own.
	for name, check := range checks {
		subs = append(subs, m.run(name, check))
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].Component < subs[j].Component })
	return Aggregate(m.system, subs)
}

func (m *Monitor) run(name string, check Check) Status {
	status := check()
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	return status
}

// Handler serves the aggregate status as JSON. Unhealthy responds 503;
// degraded still responds 200.
func (m *Monitor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := m.Aggregate()

		code := http.StatusOK
		if status.State == StateUnhealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
}
