package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/medgraph/zk-ledger/config"
	"github.com/medgraph/zk-ledger/provers"
	"github.com/medgraph/zk-ledger/server"
	"github.com/medgraph/zk-ledger/storage"
	"github.com/medgraph/zk-ledger/types"
)

func main() {
	cfg := config.New(os.Args...)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	logger.Disable()

	db, err := storage.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	store := storage.NewPostgres(db)
	if err := store.InitSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}

	keyDir := filepath.Join(cfg.DataDir, "keys")
	p, err := prover.LoadShardProver(keyDir, types.DefaultShardSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("key setup failed")
	}

	source := prover.NewSyntheticSource(p.ShardSize())
	srv := server.New(store, p, source, cfg.APIKey, cfg.DatasetSize, log)

	if err := srv.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
