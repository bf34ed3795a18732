// Package cleanup runs the periodic housekeeping of the identity stores:
// expired verification codes, long-dead sessions and abandoned registration
// attempts.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type CodeCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type AttemptPruner interface {
	Prune(ttl time.Duration) int
}

type Result struct {
	Codes    int64
	Sessions int64
	Attempts int
}

// Job sweeps all three stores. Each Run is idempotent.
type Job struct {
	codes    CodeCleaner
	sessions SessionCleaner
	attempts AttemptPruner
	log      *zap.Logger

	Interval        time.Duration
	RegistrationTTL time.Duration
	now             func() time.Time
}

func NewJob(codes CodeCleaner, sessions SessionCleaner, attempts AttemptPruner, log *zap.Logger) *Job {
	return &Job{
		codes:           codes,
		sessions:        sessions,
		attempts:        attempts,
		log:             log.With(zap.String("worker", "cleanup")),
		Interval:        time.Minute,
		RegistrationTTL: time.Hour,
		now:             time.Now,
	}
}

// Run sweeps the stores concurrently. A failing store does not stop the
// others; their errors are joined.
func (j *Job) Run(ctx context.Context) (Result, error) {
	start := j.now()
	var res Result

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		n, err := j.codes.Cleanup(ctx)
		if err != nil {
			return fmt.Errorf("clean verification codes: %w", err)
		}
		res.Codes = n
		return nil
	})
	p.Go(func(ctx context.Context) error {
		n, err := j.sessions.CleanExpiredSessions(ctx, start)
		if err != nil {
			return fmt.Errorf("clean sessions: %w", err)
		}
		res.Sessions = n
		return nil
	})
	p.Go(func(context.Context) error {
		res.Attempts = j.attempts.Prune(j.RegistrationTTL)
		return nil
	})

	if err := p.Wait(); err != nil {
		j.log.Error("Cleanup finished with errors", zap.Error(err))
		return res, err
	}

	j.log.Info("Cleanup finished",
		zap.Int64("codes", res.Codes),
		zap.Int64("sessions", res.Sessions),
		zap.Int("attempts", res.Attempts),
		zap.Duration("duration", j.now().Sub(start)),
	)
	return res, nil
}

// Start runs the job every Interval until ctx is done. Errors are logged and
// the loop keeps going.
func (j *Job) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("Cleanup worker stopped")
			return nil
		case <-ticker.C:
			_, _ = j.Run(ctx)
		}
	}
}
