package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SecurityScanJob counts recent denial events per source IP and flags the
// ones above threshold. The flagging is log-only; blocking stays a human
// decision through the admin endpoints.
type SecurityScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewSecurityScanJob initialises the anomaly scan handler.
func NewSecurityScanJob(pool *pgxpool.Pool, logger *slog.Logger) *SecurityScanJob {
	return &SecurityScanJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type ipActivity struct {
	IP     string
	Events int64
}

// Handle executes the anomaly scan logic.
func (j *SecurityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("security scan: handler not configured")
	}
	var payload SecurityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowMinutes <= 0 {
		payload.WindowMinutes = 15
	}
	if payload.Threshold <= 0 {
		payload.Threshold = 50
	}

	start := j.now()
	logger := j.logger().With(
		slog.Int("window_minutes", payload.WindowMinutes),
		slog.Int("threshold", payload.Threshold),
	)

	since := start.Add(-time.Duration(payload.WindowMinutes) * time.Minute)
	rows, err := j.Pool.Query(ctx, `
		SELECT ip, COUNT(*) AS events
		FROM security_events
		WHERE created_at >= $1
		GROUP BY ip
		HAVING COUNT(*) >= $2
		ORDER BY events DESC`, since, payload.Threshold)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}
	defer rows.Close()

	var flagged []ipActivity
	for rows.Next() {
		var a ipActivity
		if err := rows.Scan(&a.IP, &a.Events); err != nil {
			return err
		}
		flagged = append(flagged, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, a := range flagged {
		logger.Warn("denial burst detected",
			slog.String("ip", a.IP),
			slog.Int64("events", a.Events),
		)
	}

	logger.Info("completed security scan",
		slog.Int("flagged_ips", len(flagged)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *SecurityScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSecurityScan))
	}
	return slog.Default().With(slog.String("job", TaskSecurityScan))
}

func (j *SecurityScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
