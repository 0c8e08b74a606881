// Package jobs implements background work that runs beside the HTTP server.
//
// # Health Monitor
//
// HealthMonitor pings the live database handle on a fixed interval:
//
//	monitor := jobs.NewHealthMonitor(jobs.HealthMonitorConfig{
//	    Handles:  manager,
//	    Interval: 30 * time.Second,
//	    Logger:   logger,
//	})
//	monitor.Start()
//	defer monitor.Stop()
//
// The last observation is exposed through LastPing and reported by the
// connection status endpoint. Only changes between healthy and failing are
// logged, and OnTransition receives the same changes. The monitor never
// reconnects.
package jobs
