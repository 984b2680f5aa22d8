package prover

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medgraph/zk-ledger/poseidon"
	"github.com/medgraph/zk-ledger/storage"
	"github.com/medgraph/zk-ledger/types"
)

// AggregateDatasetCommitment absorbs shard commitments in the given order
// (callers pass ascending shard index) and squeezes the dataset-level
// commitment. It is deterministic in the sequence: permuting shards changes
// the result.
//
// The dataset commitment is not itself proved by any circuit; it is a publicly
// recomputable summary binding the ordered shard commitments.
func AggregateDatasetCommitment(commitments []fr.Element) fr.Element {
	sponge := poseidon.NewSponge()
	for _, c := range commitments {
		sponge.Absorb(c)
	}
	return sponge.Squeeze()
}

// Pipeline generates a dataset: draws each shard's records from the source,
// proves it, persists the shard row, and folds the shard commitment into the
// dataset commitment. Raw records never leave the process.
type Pipeline struct {
	Store  storage.Store
	Prover *ShardProver
	Source RecordSource
	Log    zerolog.Logger
}

// GenerateDataset runs the pipeline for one dataset and records the outcome.
// Intended to run on its own goroutine; any failure marks the dataset failed
// with the error string.
func (p *Pipeline) GenerateDataset(ctx context.Context, datasetID uuid.UUID, datasetSize uint64) {
	if err := p.generate(ctx, datasetID, datasetSize); err != nil {
		p.Log.Error().Err(err).Stringer("dataset_id", datasetID).Msg("dataset generation failed")
		if serr := p.Store.SetDatasetFailed(ctx, datasetID, err.Error()); serr != nil {
			p.Log.Error().Err(serr).Stringer("dataset_id", datasetID).Msg("failed to record dataset failure")
		}
	}
}

func (p *Pipeline) generate(ctx context.Context, datasetID uuid.UUID, datasetSize uint64) error {
	shardSize := uint64(p.Prover.ShardSize())
	if datasetSize%shardSize != 0 {
		return fmt.Errorf("dataset size %d is not a multiple of shard size %d", datasetSize, shardSize)
	}
	numShards := datasetSize / shardSize

	p.Log.Info().
		Stringer("dataset_id", datasetID).
		Uint64("dataset_size", datasetSize).
		Uint64("num_shards", numShards).
		Msg("starting dataset generation")

	sponge := poseidon.NewSponge()

	for shardIndex := uint64(0); shardIndex < numShards; shardIndex++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dataset generation canceled: %w", err)
		}

		records, err := p.Source.Shard(shardIndex)
		if err != nil {
			return fmt.Errorf("shard %d records: %w", shardIndex, err)
		}

		proof, err := p.Prover.Prove(records)
		if err != nil {
			return fmt.Errorf("shard %d prove: %w", shardIndex, err)
		}

		proofBytes, err := SerializeProof(proof.Proof)
		if err != nil {
			return fmt.Errorf("shard %d: %w", shardIndex, err)
		}

		row := storage.ShardRow{
			DatasetID:     datasetID,
			ShardIndex:    shardIndex,
			CommitmentHex: string(types.FrToHex(proof.Commitment)),
			Stats:         proof.Stats,
			Verified:      proof.Verified,
			ProofB64:      base64.StdEncoding.EncodeToString(proofBytes),
		}
		if err := p.Store.InsertShard(ctx, row); err != nil {
			return fmt.Errorf("shard %d persist: %w", shardIndex, err)
		}

		sponge.Absorb(proof.Commitment)

		if shardIndex%10 == 0 {
			p.Log.Info().Stringer("dataset_id", datasetID).Uint64("shard_index", shardIndex).Msg("generated shard")
		}
	}

	datasetCommitment := sponge.Squeeze()
	if err := p.Store.SetDatasetReady(ctx, datasetID, string(types.FrToHex(datasetCommitment))); err != nil {
		return fmt.Errorf("mark dataset ready: %w", err)
	}

	p.Log.Info().Stringer("dataset_id", datasetID).Msg("dataset ready")
	return nil
}
