package observability

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HealthChecker backs the /healthz (liveness) and /readyz (readiness)
// probe endpoints. Readiness is the AND of the explicit ready flag and
// every registered dependency check.
type HealthChecker struct {
	ready     atomic.Bool
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]func() error
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		checks:    make(map[string]func() error),
	}
}

// RegisterCheck adds a named dependency probe, run on every readiness
// request. Checks should be cheap; they sit on the probe path.
func (h *HealthChecker) RegisterCheck(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// SetReady flips the explicit readiness flag. The service sets it true
// once recovery is complete and all goroutines are running, and back to
// false at the start of shutdown so load balancers drain first.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// LivenessHandler answers 200 while the process is alive.
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(h.startTime).String(),
	})
}

// ReadinessHandler answers 200 when the service is ready and every
// dependency check passes, 503 otherwise with the failing checks named.
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeProbe(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	probes := make([]func() error, 0, len(h.checks))
	for name, check := range h.checks {
		names = append(names, name)
		probes = append(probes, check)
	}
	h.mu.RUnlock()

	failing := map[string]string{}
	for i, probe := range probes {
		if err := probe(); err != nil {
			failing[names[i]] = err.Error()
		}
	}

	if len(failing) > 0 {
		writeProbe(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "not_ready",
			"failing": failing,
		})
		return
	}

	writeProbe(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeProbe(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
