package main

import (
	"os"
	"path/filepath"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/medgraph/zk-ledger/config"
	"github.com/medgraph/zk-ledger/provers"
	"github.com/medgraph/zk-ledger/types"
)

// One-shot trusted setup for the shard circuit: compiles, runs the Groth16
// setup, and writes the key artifacts under <data-dir>/keys. Rerunning with
// the artifacts present is a no-op load.
//
// SECURITY NOTE (prototype): the setup randomness is toxic waste. Production
// deployments must replace this with an MPC ceremony or a transparent proof
// system.
func main() {
	cfg := config.New(os.Args...)
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Disable()

	shardSize := int(config.GetEnvUint("SHARD_SIZE", types.DefaultShardSize))

	keyDir := filepath.Join(cfg.DataDir, "keys")
	log.Info().Int("shard_size", shardSize).Str("dir", keyDir).Msg("preparing key artifacts")

	if _, err := prover.LoadShardProver(keyDir, shardSize, log); err != nil {
		log.Fatal().Err(err).Msg("setup failed")
	}

	log.Info().Msg("key artifacts ready")
}
