package model

import "time"

// ConnectRequest is the body of POST /api/connection
type ConnectRequest struct {
	ConnectionString string `json:"connectionString"`
}

// ConnectResult reports the outcome of a connect attempt.
type ConnectResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Backend  string `json:"backend,omitempty"`
	Database string `json:"database,omitempty"`
}

// ConnectionStatus is returned by GET /api/connection/status
type ConnectionStatus struct {
	IsConnected bool        `json:"isConnected"`
	Database    string      `json:"database,omitempty"`
	Backend     string      `json:"backend,omitempty"`
	ConnectedAt *time.Time  `json:"connectedAt,omitempty"`
	LastPing    *PingResult `json:"lastPing,omitempty"`
}

// PingResult is the last observation of the health monitor.
type PingResult struct {
	At        time.Time `json:"at"`
	OK        bool      `json:"ok"`
	LatencyMS int64     `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
}
