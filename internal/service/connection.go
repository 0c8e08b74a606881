package service

import (
	"context"
	"fmt"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
)

// ConnectionManager defines the interface for the single handle slot
type ConnectionManager interface {
	Connect(ctx context.Context, uri string) error
	Status() model.ConnectionStatus
}

// PingReporter reports the last health check of the live handle
type PingReporter interface {
	LastPing() *model.PingResult
}

// ConnectionService handles connect and status requests
type ConnectionService struct {
	manager ConnectionManager
	pings   PingReporter
	events  EventPublisher
}

// ConnectionServiceConfig holds configuration for the connection service
type ConnectionServiceConfig struct {
	Manager ConnectionManager
	// Pings is optional; status omits lastPing without it.
	Pings PingReporter
	// Events is optional; connect outcomes are published to it.
	Events EventPublisher
}

// NewConnectionService creates a new connection service
func NewConnectionService(cfg ConnectionServiceConfig) *ConnectionService {
	return &ConnectionService{
		manager: cfg.Manager,
		pings:   cfg.Pings,
		events:  cfg.Events,
	}
}

var backendTitles = map[database.Backend]string{
	database.BackendMongo:   "MongoDB",
	database.BackendSurreal: "SurrealDB",
	database.BackendSQLite:  "SQLite",
}

// Connect replaces the live handle. A failed attempt returns an error
// wrapping ErrConnectFailed and leaves the manager disconnected.
func (s *ConnectionService) Connect(ctx context.Context, connectionString string) (*model.ConnectResult, error) {
	if err := requireText(connectionString, ErrConnectionStringRequired); err != nil {
		return nil, err
	}

	if err := s.manager.Connect(ctx, connectionString); err != nil {
		err = fmt.Errorf("%w: %v", ErrConnectFailed, err)
		s.publish(EventConnectFailed, map[string]string{"message": err.Error()})
		return nil, err
	}

	status := s.manager.Status()
	title := backendTitles[database.Backend(status.Backend)]
	if title == "" {
		title = "database"
	}
	result := &model.ConnectResult{
		Success:  true,
		Message:  "Successfully connected to " + title,
		Backend:  status.Backend,
		Database: status.Database,
	}
	s.publish(EventConnected, result)
	return result, nil
}

func (s *ConnectionService) publish(t EventType, data interface{}) {
	if s.events != nil {
		s.events.Publish(&Event{Type: t, Data: data})
	}
}

// Status reports whether a handle is live and, when the health monitor
// runs, its last observation.
func (s *ConnectionService) Status() model.ConnectionStatus {
	status := s.manager.Status()
	if status.IsConnected && s.pings != nil {
		status.LastPing = s.pings.LastPing()
	}
	return status
}
