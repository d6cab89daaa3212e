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

// SessionsCleanupJob removes expired session rows left behind by logins that
// never logged out.
type SessionsCleanupJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewSessionsCleanupJob initialises the cleanup handler.
func NewSessionsCleanupJob(pool *pgxpool.Pool, logger *slog.Logger) *SessionsCleanupJob {
	return &SessionsCleanupJob{Pool: pool, Logger: logger}
}

// Handle executes one cleanup run.
func (j *SessionsCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("sessions cleanup: handler not configured")
	}
	var payload SessionsCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = 1000
	}

	logger := j.logger().With(slog.Int("batch_size", payload.BatchSize))
	start := time.Now()

	var total int64
	for {
		tag, err := j.Pool.Exec(ctx, `
			DELETE FROM sessions WHERE id IN (
				SELECT id FROM sessions WHERE expires_at < now() LIMIT $1
			)`, payload.BatchSize)
		if err != nil {
			logger.Error("cleanup batch failed", slog.Any("error", err))
			return err
		}
		total += tag.RowsAffected()
		if tag.RowsAffected() < int64(payload.BatchSize) {
			break
		}
	}

	logger.Info("expired sessions removed",
		slog.Int64("deleted", total),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *SessionsCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionsCleanup))
	}
	return slog.Default().With(slog.String("job", TaskSessionsCleanup))
}
