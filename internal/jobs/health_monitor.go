package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
)

// HealthMonitorConfig holds configuration for the health monitor
type HealthMonitorConfig struct {
	Handles  database.Provider
	Interval time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
	// OnTransition, if set, is called when the handle turns healthy or
	// unhealthy.
	OnTransition func(model.PingResult)
}

// HealthMonitor pings the live handle on a fixed interval and remembers the
// last observation. It never reconnects; a dead handle stays in place until
// a client connects again.
type HealthMonitor struct {
	handles  database.Provider
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	notify   func(model.PingResult)
	now      func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex

	last    *model.PingResult
	lastMu  sync.RWMutex
	healthy *bool
}

// NewHealthMonitor creates a new health monitor job
func NewHealthMonitor(cfg HealthMonitorConfig) *HealthMonitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &HealthMonitor{
		handles:  cfg.Handles,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		notify:   cfg.OnTransition,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the health monitor job
func (m *HealthMonitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()
	m.logger.Info("health monitor started", "interval", m.interval.String())
}

// Stop gracefully stops the health monitor job
func (m *HealthMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()
	m.logger.Info("health monitor stopped")
}

// IsRunning returns whether the monitor is running
func (m *HealthMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *HealthMonitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			m.RunOnce(ctx)
			cancel()
		case <-m.stopCh:
			return
		}
	}
}

// RunOnce pings the live handle once. Without a handle nothing is recorded
// and the previous observation is cleared.
func (m *HealthMonitor) RunOnce(ctx context.Context) *model.PingResult {
	h, err := m.handles.Handle()
	if err != nil {
		m.lastMu.Lock()
		m.last = nil
		m.healthy = nil
		m.lastMu.Unlock()
		return nil
	}

	started := m.now()
	pingErr := h.Ping(ctx)
	result := &model.PingResult{
		At:        started.UTC(),
		OK:        pingErr == nil,
		LatencyMS: m.now().Sub(started).Milliseconds(),
	}
	if pingErr != nil {
		result.Error = pingErr.Error()
	}

	m.lastMu.Lock()
	m.last = result
	changed := m.healthy == nil || *m.healthy != result.OK
	ok := result.OK
	m.healthy = &ok
	m.lastMu.Unlock()

	if changed {
		m.logTransition(h, result)
	}
	return result
}

func (m *HealthMonitor) logTransition(h database.Handle, result *model.PingResult) {
	if m.notify != nil {
		m.notify(*result)
	}
	if result.OK {
		m.logger.Info("database healthy",
			"backend", h.Backend(),
			"database", h.DatabaseName(),
			"latency_ms", result.LatencyMS,
		)
		return
	}
	m.logger.Warn("database ping failed",
		"backend", h.Backend(),
		"database", h.DatabaseName(),
		"error", result.Error,
	)
}

// LastPing returns the most recent observation, or nil when there is none
func (m *HealthMonitor) LastPing() *model.PingResult {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	if m.last == nil {
		return nil
	}
	p := *m.last
	return &p
}
