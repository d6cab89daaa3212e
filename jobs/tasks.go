// Package jobs holds the Asynq worker and the background tasks keeping
// session and security-event hygiene.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsCleanup deletes expired session rows.
	TaskSessionsCleanup = "sessions:cleanup"
	// TaskSecurityScan flags source IPs with bursts of denial events.
	TaskSecurityScan = "security:anomaly_scan"
)

// SessionsCleanupPayload bounds one cleanup run.
type SessionsCleanupPayload struct {
	BatchSize int `json:"batch_size"`
}

// NewSessionsCleanupTask constructs the cleanup task.
func NewSessionsCleanupTask(batchSize int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionsCleanupPayload{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsCleanup, data), nil
}

// SecurityScanPayload tunes the anomaly scan window and threshold.
type SecurityScanPayload struct {
	WindowMinutes int `json:"window_minutes"`
	Threshold     int `json:"threshold"`
}

// NewSecurityScanTask constructs the anomaly scan task.
func NewSecurityScanTask(windowMinutes, threshold int) (*asynq.Task, error) {
	data, err := json.Marshal(SecurityScanPayload{WindowMinutes: windowMinutes, Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSecurityScan, data), nil
}
