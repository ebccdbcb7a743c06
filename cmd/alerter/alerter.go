package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelzeko/farm-alerts/internal/api"
	"github.com/abelzeko/farm-alerts/internal/config"
	"github.com/abelzeko/farm-alerts/internal/integration"
	"github.com/abelzeko/farm-alerts/internal/logger"
	"github.com/abelzeko/farm-alerts/internal/metrics"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/abelzeko/farm-alerts/internal/scheduler"
	"github.com/abelzeko/farm-alerts/internal/usecases"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("alerter")
	log.Info().Str("transport", cfg.Transport).Str("schedule", cfg.CheckSchedule).Msg("starting farm alerter")

	clock := clockwork.NewRealClock()
	m := metrics.NewMetrics()

	// Initialize repository
	store, err := repository.NewSQLiteStore(cfg.DBPath,
		repository.WithClock(clock), repository.WithLogger(logger.WithComponent("repository")))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repository")
	}
	defer store.Close()

	newSender, err := integration.NewSenderFactory(cfg, clock, logger.WithComponent("transport"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure transport")
	}

	dispatcher := usecases.NewDispatcher(store, store, newSender, cfg.SendTimeout, logger.WithComponent("dispatcher"), m)
	useCase := usecases.NewAlertUseCase(store, store, dispatcher, clock, logger.WithComponent("checks"), m)

	sched, err := scheduler.New(useCase, cfg.CheckSchedule, cfg.DispatchSchedule, clock, logger.WithComponent("scheduler"), m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up scheduler")
	}

	ready := api.ReadinessFunc(func(ctx context.Context) error {
		if !sched.Running() {
			return errors.New("scheduler not running")
		}
		return store.Ping()
	})
	status := func() (api.RunStatus, bool) {
		report, at := sched.LastRun()
		if at.IsZero() {
			return api.RunStatus{}, false
		}
		return api.RunStatus{
			RunID:   report.RunID,
			StartAt: at,
			Summary: report.Summary(),
			Sent:    report.Dispatch.Sent,
			Failed:  report.Dispatch.Failed,
		}, true
	}
	srv := api.NewServer(cfg.HTTPAddr, ready, status, logger.WithComponent("http"))

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sched.Start(cfg.RunOnStart)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := sched.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("scheduler did not stop cleanly")
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}
}
