package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a periodic task. A failed run is retried according to the
// scheduler's RetryPolicy before the next scheduled tick.
type Job func(ctx context.Context) error

// Scheduler runs background jobs such as catalog warm-up.
type Scheduler struct {
	cron   *cron.Cron
	retry  RetryPolicy
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(loc *time.Location, retry RetryPolicy, logger *zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "scheduler").Logger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		retry:  retry,
		logger: l,
		sleep:  sleepCtx,
		ctx:    ctx,
		cancel: cancel,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// AddJob registers job under a cron spec ("@every 5m", "0 */1 * * *", ...).
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(s.ctx, name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}
	s.logger.Debug().Str("job", name).Str("spec", spec).Msg("job scheduled")
	return nil
}

// RunNow executes job once with retries, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	return s.run(ctx, name, job)
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) error {
	var err error
	for attempt := 1; ; attempt++ {
		start := time.Now()
		if err = job(ctx); err == nil {
			s.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job done")
			return nil
		}
		if attempt > s.retry.MaxRetries {
			break
		}
		delay := s.retry.NextDelay(attempt)
		s.logger.Warn().Err(err).Str("job", name).Int("attempt", attempt).Dur("retry_in", delay).Msg("job failed, retrying")
		if !s.sleep(ctx, delay) {
			err = ctx.Err()
			break
		}
	}
	s.logger.Error().Err(err).Str("job", name).Msg("job failed")
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}
