package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medgraph/zk-ledger/types"
)

// Dataset lifecycle states.
const (
	StatusGenerating = "generating"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Dataset is the persisted record of one synthetic dataset.
type Dataset struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	DatasetSize   uint64
	ShardSize     uint64
	Status        string
	CommitmentHex string // set once the dataset is ready
	Error         string // set when generation failed
}

// ShardRow is one proved shard: public inputs plus the proof blob. No raw
// records are ever stored.
type ShardRow struct {
	DatasetID     uuid.UUID
	ShardIndex    uint64
	CommitmentHex string
	Stats         types.ShardStats
	Verified      bool
	ProofB64      string
}

// QueryRow records one answered aggregate query.
type QueryRow struct {
	ID             uuid.UUID
	DatasetID      uuid.UUID
	Metric         string
	BucketIndex    int
	Sum            uint64
	Count          uint64
	Mean           *float64
	ServerVerified bool
}

// Store is the persistence surface the API and the dataset pipeline share.
// The postgres implementation is the production one; tests substitute fakes.
type Store interface {
	InsertDataset(ctx context.Context, d Dataset) error
	GetDataset(ctx context.Context, id uuid.UUID) (*Dataset, error)
	SetDatasetReady(ctx context.Context, id uuid.UUID, commitmentHex string) error
	SetDatasetFailed(ctx context.Context, id uuid.UUID, msg string) error

	InsertShard(ctx context.Context, row ShardRow) error
	ListShards(ctx context.Context, datasetID uuid.UUID, offset, limit uint64, includeProof bool) ([]ShardRow, error)
	CountShardsDone(ctx context.Context, datasetID uuid.UUID) (uint64, error)
	CountShardsVerified(ctx context.Context, datasetID uuid.UUID) (uint64, error)

	// AggregateForBucket sums a bucket's sum/count columns across all shards
	// of a dataset.
	AggregateForBucket(ctx context.Context, datasetID uuid.UUID, bucketIndex int) (sum, count uint64, err error)

	InsertQuery(ctx context.Context, q QueryRow) error
}
