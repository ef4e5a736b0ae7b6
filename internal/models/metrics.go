package models

import "time"

// MetricsSnapshot aggregates in-process counters for the /metrics/summary endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	BalanceRuns              uint64    `json:"balance_runs"`
	BalanceFailures          uint64    `json:"balance_failures"`
	AverageBalanceDurationMs float64   `json:"average_balance_duration_ms"`
	LastObjective            float64   `json:"last_objective"`
	UnplacedMeetings         uint64    `json:"unplaced_meetings"`
	OverflowMeetings         uint64    `json:"overflow_meetings"`
	ExportsFinished          uint64    `json:"exports_finished"`
	ExportsFailed            uint64    `json:"exports_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
