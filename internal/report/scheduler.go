package report

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler generates the previous month's report on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	gen    *Generator
	logger zerolog.Logger
	now    func() time.Time
}

func NewScheduler(gen *Generator, logger zerolog.Logger) *Scheduler {
	l := logger.With().Str("component", "report-scheduler").Logger()
	cl := cronLogger{logger: l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		gen:    gen,
		logger: l,
		now:    time.Now,
	}
}

func previousMonth(now time.Time) (int, int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

func (s *Scheduler) runPreviousMonth() {
	year, month := previousMonth(s.now().UTC())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.gen.Generate(ctx, year, month); err != nil {
		s.logger.Error().Err(err).Int("year", year).Int("month", month).Msg("scheduled monthly report failed")
	}
}

// Start registers the job under spec (standard five-field cron syntax) and
// starts the scheduler in its own goroutine.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runPreviousMonth); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", spec).Msg("monthly report scheduler started")
	return nil
}

// Stop halts the scheduler. The returned context is done once a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
