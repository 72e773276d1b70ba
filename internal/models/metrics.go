package models

import "time"

// SystemMetrics is a point-in-time summary of the service's instrumentation.
type SystemMetrics struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	LedgerOperations         uint64            `json:"ledger_operations"`
	LedgerFailures           uint64            `json:"ledger_failures"`
	AverageLedgerDurationMs  float64           `json:"average_ledger_duration_ms"`
	CorruptDocuments         map[string]uint64 `json:"corrupt_documents"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
