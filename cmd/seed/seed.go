package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"time"

	"github.com/abelzeko/farm-alerts/internal/config"
	"github.com/abelzeko/farm-alerts/internal/logger"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/abelzeko/farm-alerts/internal/usecases"
)

func main() {
	simulate := flag.Bool("simulate", false, "also record one round of simulated readings")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("seed")

	store, err := repository.NewSQLiteStore(cfg.DBPath, repository.WithLogger(logger.WithComponent("repository")))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repository")
	}
	defer store.Close()

	now := uint64(time.Now().UnixNano())
	seeder := usecases.NewSeedUseCase(store, rand.New(rand.NewPCG(now, now>>1)), log)

	ctx := context.Background()
	if _, err := seeder.SeedSampleData(ctx); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	if *simulate {
		if err := seeder.Simulate(ctx); err != nil {
			log.Fatal().Err(err).Msg("simulation failed")
		}
	}
}
