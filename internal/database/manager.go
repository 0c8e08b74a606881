package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/model"
)

// Dialer opens and verifies a handle for a connection string.
type Dialer func(ctx context.Context, uri string) (Handle, error)

// ManagerConfig holds configuration for the connection manager
type ManagerConfig struct {
	// Dialer defaults to Open.
	Dialer         Dialer
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Manager owns the single live handle. Readers never observe a handle that
// is being replaced: the slot is cleared under the write lock before the old
// handle is closed, and the new one is published only after it pinged.
type Manager struct {
	mu          sync.RWMutex
	handle      Handle
	connectedAt time.Time

	// connectMu serialises Connect and Close so two replacements never
	// interleave.
	connectMu sync.Mutex

	dial    Dialer
	timeout time.Duration
	logger  *slog.Logger
}

// NewManager creates a disconnected manager
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Dialer == nil {
		cfg.Dialer = Open
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		dial:    cfg.Dialer,
		timeout: cfg.ConnectTimeout,
		logger:  cfg.Logger,
	}
}

// Connect replaces the current handle with one opened from uri. The old
// handle is closed first; failing to close it does not stop the reconnect.
// On failure the manager is left disconnected and the error wraps
// ErrConnection.
func (m *Manager) Connect(ctx context.Context, uri string) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.release(ctx, "replace")

	dialCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	started := time.Now()
	h, err := m.dial(dialCtx, uri)
	if err == nil {
		if pingErr := h.Ping(dialCtx); pingErr != nil {
			_ = h.Close(context.Background())
			h, err = nil, pingErr
		}
	}
	if err != nil {
		m.logger.Warn("database connect failed",
			"target", Redact(uri),
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		if !isConnectionError(err) {
			err = fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return err
	}

	m.mu.Lock()
	m.handle = h
	m.connectedAt = time.Now().UTC()
	m.mu.Unlock()

	m.logger.Info("database connected",
		"backend", h.Backend(),
		"database", h.DatabaseName(),
		"target", Redact(uri),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}

// Handle returns the live handle or ErrNotConnected. It never blocks on a
// connect in progress.
func (m *Manager) Handle() (Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.handle == nil {
		return nil, ErrNotConnected
	}
	return m.handle, nil
}

// IsConnected reports whether a handle is stored
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handle != nil
}

// Status describes the current handle
func (m *Manager) Status() model.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.handle == nil {
		return model.ConnectionStatus{}
	}
	at := m.connectedAt
	return model.ConnectionStatus{
		IsConnected: true,
		Database:    m.handle.DatabaseName(),
		Backend:     string(m.handle.Backend()),
		ConnectedAt: &at,
	}
}

// Close closes the current handle if there is one. It is safe to call
// repeatedly.
func (m *Manager) Close(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()
	return m.release(ctx, "close")
}

// release clears the slot and closes the handle it held.
func (m *Manager) release(ctx context.Context, reason string) error {
	m.mu.Lock()
	old := m.handle
	m.handle = nil
	m.connectedAt = time.Time{}
	m.mu.Unlock()

	if old == nil {
		return nil
	}
	if err := old.Close(ctx); err != nil {
		m.logger.Warn("closing database handle failed",
			"reason", reason,
			"backend", old.Backend(),
			"database", old.DatabaseName(),
			"error", err,
		)
		return err
	}
	m.logger.Info("database handle closed",
		"reason", reason,
		"backend", old.Backend(),
		"database", old.DatabaseName(),
	)
	return nil
}
