// Package health derives a service status from the error metrics and serves
// it, along with the metrics and the error log, over HTTP.
package health

import "time"

// SystemStatus represents the overall health state of the service.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report is the detailed health view.
type Report struct {
	Status           SystemStatus      `json:"status"`
	ErrorCount       int64             `json:"error_count"`
	ErrorRate        float64           `json:"error_rate"`
	CriticalInWindow int               `json:"critical_in_window"`
	LastErrorCode    string            `json:"last_error_code,omitempty"`
	LastErrorTime    *time.Time        `json:"last_error_time,omitempty"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
}
