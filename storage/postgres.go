package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medgraph/zk-ledger/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id                     UUID PRIMARY KEY,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	dataset_size           BIGINT NOT NULL,
	shard_size             BIGINT NOT NULL,
	status                 TEXT NOT NULL,
	dataset_commitment_hex TEXT NOT NULL DEFAULT '',
	error                  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS shards (
	dataset_id      UUID NOT NULL REFERENCES datasets(id),
	shard_index     BIGINT NOT NULL,
	commitment_hex  TEXT NOT NULL,
	sum_by_bucket   BIGINT[] NOT NULL,
	count_by_bucket BIGINT[] NOT NULL,
	verified        BOOLEAN NOT NULL,
	proof_b64       TEXT NOT NULL,
	PRIMARY KEY (dataset_id, shard_index)
);

CREATE TABLE IF NOT EXISTS queries (
	id              UUID PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	dataset_id      UUID NOT NULL REFERENCES datasets(id),
	metric          TEXT NOT NULL,
	bucket_index    INT NOT NULL,
	sum             BIGINT NOT NULL,
	count           BIGINT NOT NULL,
	mean            DOUBLE PRECISION,
	server_verified BOOLEAN NOT NULL
);
`

// Connect opens a postgres connection pool and verifies it.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Postgres implements Store on database/sql with the pq driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// InitSchema creates the tables when they do not exist yet.
func (s *Postgres) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Postgres) InsertDataset(ctx context.Context, d Dataset) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, dataset_size, shard_size, status) VALUES ($1, $2, $3, $4)`,
		d.ID, int64(d.DatasetSize), int64(d.ShardSize), d.Status)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

func (s *Postgres) GetDataset(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	var d Dataset
	var size, shardSize int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, dataset_size, shard_size, status, dataset_commitment_hex, error
		 FROM datasets WHERE id = $1`, id).
		Scan(&d.ID, &d.CreatedAt, &size, &shardSize, &d.Status, &d.CommitmentHex, &d.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	d.DatasetSize = uint64(size)
	d.ShardSize = uint64(shardSize)
	return &d, nil
}

func (s *Postgres) SetDatasetReady(ctx context.Context, id uuid.UUID, commitmentHex string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET status = $2, dataset_commitment_hex = $3 WHERE id = $1`,
		id, StatusReady, commitmentHex)
	if err != nil {
		return fmt.Errorf("set dataset ready: %w", err)
	}
	return nil
}

func (s *Postgres) SetDatasetFailed(ctx context.Context, id uuid.UUID, msg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET status = $2, error = $3 WHERE id = $1`,
		id, StatusFailed, msg)
	if err != nil {
		return fmt.Errorf("set dataset failed: %w", err)
	}
	return nil
}

func (s *Postgres) InsertShard(ctx context.Context, row ShardRow) error {
	sums := make(pq.Int64Array, types.NumBuckets)
	counts := make(pq.Int64Array, types.NumBuckets)
	for i := 0; i < types.NumBuckets; i++ {
		sums[i] = int64(row.Stats.SumGlucoseByBucket[i])
		counts[i] = int64(row.Stats.CountByBucket[i])
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shards (dataset_id, shard_index, commitment_hex, sum_by_bucket, count_by_bucket, verified, proof_b64)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.DatasetID, int64(row.ShardIndex), row.CommitmentHex, sums, counts, row.Verified, row.ProofB64)
	if err != nil {
		return fmt.Errorf("insert shard: %w", err)
	}
	return nil
}

func (s *Postgres) ListShards(ctx context.Context, datasetID uuid.UUID, offset, limit uint64, includeProof bool) ([]ShardRow, error) {
	proofCol := "''"
	if includeProof {
		proofCol = "proof_b64"
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT shard_index, commitment_hex, sum_by_bucket, count_by_bucket, verified, `+proofCol+`
		 FROM shards WHERE dataset_id = $1 ORDER BY shard_index OFFSET $2 LIMIT $3`,
		datasetID, int64(offset), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list shards: %w", err)
	}
	defer rows.Close()

	var out []ShardRow
	for rows.Next() {
		var (
			row    ShardRow
			index  int64
			sums   pq.Int64Array
			counts pq.Int64Array
		)
		if err := rows.Scan(&index, &row.CommitmentHex, &sums, &counts, &row.Verified, &row.ProofB64); err != nil {
			return nil, fmt.Errorf("scan shard: %w", err)
		}
		if len(sums) != types.NumBuckets || len(counts) != types.NumBuckets {
			return nil, fmt.Errorf("shard %d has %d/%d bucket entries, want %d", index, len(sums), len(counts), types.NumBuckets)
		}
		row.DatasetID = datasetID
		row.ShardIndex = uint64(index)
		for i := 0; i < types.NumBuckets; i++ {
			row.Stats.SumGlucoseByBucket[i] = uint64(sums[i])
			row.Stats.CountByBucket[i] = uint64(counts[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Postgres) CountShardsDone(ctx context.Context, datasetID uuid.UUID) (uint64, error) {
	return s.countShards(ctx, `SELECT COUNT(*) FROM shards WHERE dataset_id = $1`, datasetID)
}

func (s *Postgres) CountShardsVerified(ctx context.Context, datasetID uuid.UUID) (uint64, error) {
	return s.countShards(ctx, `SELECT COUNT(*) FROM shards WHERE dataset_id = $1 AND verified`, datasetID)
}

func (s *Postgres) countShards(ctx context.Context, query string, datasetID uuid.UUID) (uint64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, datasetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count shards: %w", err)
	}
	return uint64(n), nil
}

func (s *Postgres) AggregateForBucket(ctx context.Context, datasetID uuid.UUID, bucketIndex int) (uint64, uint64, error) {
	// Postgres arrays are 1-indexed.
	var sum, count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(sum_by_bucket[$2]), 0), COALESCE(SUM(count_by_bucket[$2]), 0)
		 FROM shards WHERE dataset_id = $1`,
		datasetID, bucketIndex+1).Scan(&sum, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate bucket %d: %w", bucketIndex, err)
	}
	return uint64(sum), uint64(count), nil
}

func (s *Postgres) InsertQuery(ctx context.Context, q QueryRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (id, dataset_id, metric, bucket_index, sum, count, mean, server_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.DatasetID, q.Metric, q.BucketIndex, int64(q.Sum), int64(q.Count), q.Mean, q.ServerVerified)
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	return nil
}
