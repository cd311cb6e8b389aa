package scrape

import "time"

// Status is the coarse health state of a source.
type Status string

const (
	StatusActive   Status = "active"   // responding normally
	StatusDegraded Status = "degraded" // responding, but slowly
	StatusDown     Status = "down"     // probe failed or source disabled
)

// HealthStatus is a point-in-time probe result for one source.
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Status       Status        `json:"status"`
	ResponseTime time.Duration `json:"responseTime"`
	CheckedAt    time.Time     `json:"lastCheckedAt"`
	Err          string        `json:"error,omitempty"`
}
