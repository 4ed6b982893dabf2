// Package jobs runs the background maintenance tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
)

const statsTimeout = 30 * time.Second

// SessionSweeper drops idle listing forms.
type SessionSweeper interface {
	SweepSessions(now time.Time, ttl time.Duration) int
}

// StatsSource computes the admin totals.
type StatsSource interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler builds a scheduler whose panics are recovered and logged and
// whose runs never overlap.
func NewScheduler(log *zap.Logger) *Scheduler {
	cl := cronLogger{log: log.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

// AddSessionSweep schedules SweepJob. An empty spec disables it.
func (s *Scheduler) AddSessionSweep(spec string, sweeper SessionSweeper, ttl time.Duration) error {
	return s.add("session_sweep", spec, SweepJob(sweeper, ttl, s.log))
}

// AddStatsDigest schedules StatsJob. An empty spec disables it.
func (s *Scheduler) AddStatsDigest(spec string, stats StatsSource) error {
	return s.add("stats_digest", spec, StatsJob(stats, s.log))
}

func (s *Scheduler) add(name, spec string, job func()) error {
	if spec == "" {
		s.log.Info("job disabled", zap.String("job", name))
		return nil
	}
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("background jobs started", zap.Int("jobs", s.Len()))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("jobs still running at shutdown")
	}
}

// SweepJob removes listing forms idle for longer than ttl.
func SweepJob(sweeper SessionSweeper, ttl time.Duration, log *zap.Logger) func() {
	return func() {
		if n := sweeper.SweepSessions(time.Now(), ttl); n > 0 {
			log.Info("expired listing sessions removed", zap.Int("count", n))
		}
	}
}

// StatsJob logs the current admin totals.
func StatsJob(stats StatsSource, log *zap.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()

		st, err := stats.Stats(ctx)
		if err != nil {
			log.Error("stats digest failed", zap.Error(err))
			return
		}
		log.Info("stats digest",
			zap.Int64("users", st.Users),
			zap.Int64("spots", st.Spots),
			zap.Int64("bookings", st.Bookings),
			zap.Int64("revenue", st.Revenue),
			zap.Int64("admins", st.Admins),
		)
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
