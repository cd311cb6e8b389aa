package scrape

import "time"

// SourceStats tracks running counters for one source. Each strategy owns its
// own stats record and updates it after every scrape attempt, success or
// failure; readers get snapshots.
type SourceStats struct {
	TotalRequests      int64         `json:"totalRequests"`
	SuccessfulRequests int64         `json:"successfulRequests"`
	TotalArticles      int64         `json:"totalArticles"`
	AvgResponseTime    time.Duration `json:"averageResponseTime"` // EMA, recent samples weighted
	LastActiveAt       time.Time     `json:"lastActiveAt"`
}

// SuccessRate returns the lifetime success ratio in [0, 1].
func (s SourceStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}
