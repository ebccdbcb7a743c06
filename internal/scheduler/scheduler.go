// Package scheduler runs the alert checks on a cron schedule
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelzeko/farm-alerts/internal/logger"
	"github.com/abelzeko/farm-alerts/internal/metrics"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/abelzeko/farm-alerts/internal/usecases"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner is the work the scheduler triggers
type Runner interface {
	RunAllChecks(ctx context.Context) (usecases.RunReport, error)
	DispatchPending(ctx context.Context) (usecases.DispatchResult, error)
}

// Run outcomes recorded in the check_runs_total metric
const (
	OutcomeOK            = "ok"
	OutcomeSkipped       = "skipped"
	OutcomeStorageError  = "storage_error"
	OutcomeDispatchError = "dispatch_error"
	OutcomePanic         = "panic"
)

// Scheduler triggers check runs and optional dispatch retries.
// At most one job runs at a time; a tick that finds a job in progress is skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  zerolog.Logger
	metrics *metrics.Metrics
	clock   clockwork.Clock

	mu      sync.Mutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool

	lastMu     sync.Mutex
	lastReport usecases.RunReport
	lastRunAt  time.Time
}

// New creates a scheduler. dispatchSpec may be empty to disable the retry job.
func New(runner Runner, checkSpec, dispatchSpec string, clock clockwork.Clock, log zerolog.Logger, m *metrics.Metrics) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:  runner,
		logger:  log,
		metrics: m,
		clock:   clock,
		ctx:     ctx,
		cancel:  cancel,
	}

	cronLog := cronLogger{log}
	s.cron = cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog)))

	if _, err := s.cron.AddFunc(checkSpec, func() { s.RunChecks(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule checks %q: %w", checkSpec, err)
	}
	if dispatchSpec != "" {
		if _, err := s.cron.AddFunc(dispatchSpec, func() { s.RunDispatch(s.ctx) }); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to schedule dispatch %q: %w", dispatchSpec, err)
		}
	}
	return s, nil
}

// Start begins the cron loop. With runOnStart a check run is triggered immediately.
func (s *Scheduler) Start(runOnStart bool) {
	if runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.RunChecks(s.ctx)
		}()
	}
	s.cron.Start()
	s.running.Store(true)
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops scheduling and waits for an in-flight job. When ctx expires first
// the in-flight job is cancelled and ctx's error returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.running.Store(false)
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	defer s.cancel()
	select {
	case <-done:
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stop timed out; cancelling in-flight run")
		return ctx.Err()
	}
}

// Running reports whether the cron loop is active
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastRun returns the report of the latest completed check run and its start time
func (s *Scheduler) LastRun() (usecases.RunReport, time.Time) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastReport, s.lastRunAt
}

// RunChecks performs one evaluate-and-dispatch run unless another job holds the lock.
// It returns the outcome label.
func (s *Scheduler) RunChecks(ctx context.Context) (outcome string) {
	if !s.mu.TryLock() {
		s.logger.Warn().Msg("previous run still in progress; skipping check tick")
		s.metrics.CheckRuns.WithLabelValues(OutcomeSkipped).Inc()
		return OutcomeSkipped
	}
	defer s.mu.Unlock()

	runID := uuid.NewString()
	log := logger.WithRunID(s.logger, runID)
	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("check run panicked")
			outcome = OutcomePanic
		}
		s.metrics.CheckRuns.WithLabelValues(outcome).Inc()
		s.metrics.CheckRunDuration.Observe(s.clock.Since(start).Seconds())
	}()

	log.Info().Msg("check run started")
	report, err := s.runner.RunAllChecks(ctx)
	report.RunID = runID

	s.lastMu.Lock()
	s.lastReport, s.lastRunAt = report, start
	s.lastMu.Unlock()

	msg := report.Summary()
	switch {
	case err == nil:
		outcome = OutcomeOK
	case errors.Is(err, repository.ErrStorage) || !report.Dispatched:
		outcome = OutcomeStorageError
		msg = "check run aborted"
	default:
		outcome = OutcomeDispatchError
	}

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Int("soil_alerts", report.SoilAlerts).
		Int("weather_alerts", report.WeatherAlerts).
		Int("yield_alerts", report.YieldAlerts).
		Int("sent", report.Dispatch.Sent).
		Int("failed", report.Dispatch.Failed).
		Dur("took", s.clock.Since(start)).
		Msg(msg)
	return outcome
}

// RunDispatch retries delivery of pending alerts unless another job holds the lock
func (s *Scheduler) RunDispatch(ctx context.Context) (ran bool) {
	if !s.mu.TryLock() {
		s.logger.Debug().Msg("run in progress; skipping dispatch tick")
		return false
	}
	defer s.mu.Unlock()

	log := logger.WithRunID(s.logger, uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("dispatch run panicked")
		}
	}()

	result, err := s.runner.DispatchPending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("dispatch retry failed")
		return true
	}
	if result.Alerts > 0 {
		log.Info().Int("alerts", result.Alerts).Int("sent", result.Sent).Int("failed", result.Failed).Msg("dispatched pending alerts")
	}
	return true
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
