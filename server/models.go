package server

import (
	"github.com/google/uuid"

	"github.com/medgraph/zk-ledger/types"
)

type datasetCreateRequest struct {
	// Defaults to the server's configured dataset size when omitted.
	DatasetSize *uint64 `json:"dataset_size"`
}

type datasetCreateResponse struct {
	DatasetID uuid.UUID `json:"dataset_id"`
}

type datasetGetResponse struct {
	DatasetID            uuid.UUID `json:"dataset_id"`
	CreatedAt            string    `json:"created_at"`
	DatasetSize          uint64    `json:"dataset_size"`
	ShardSize            uint64    `json:"shard_size"`
	NumBuckets           uint64    `json:"num_buckets"`
	Status               string    `json:"status"`
	ShardsTotal          uint64    `json:"shards_total"`
	ShardsDone           uint64    `json:"shards_done"`
	DatasetCommitmentHex string    `json:"dataset_commitment_hex,omitempty"`
	Error                string    `json:"error,omitempty"`
}

type shardListItem struct {
	ShardIndex         uint64                   `json:"shard_index"`
	ShardCommitmentHex string                   `json:"shard_commitment_hex"`
	SumGlucoseByBucket [types.NumBuckets]uint64 `json:"sum_glucose_by_bucket"`
	CountByBucket      [types.NumBuckets]uint64 `json:"count_by_bucket"`
	Verified           bool                     `json:"verified"`
	ProofB64           string                   `json:"proof_b64,omitempty"`
}

type shardListResponse struct {
	DatasetID   uuid.UUID       `json:"dataset_id"`
	Offset      uint64          `json:"offset"`
	Limit       uint64          `json:"limit"`
	ShardsTotal uint64          `json:"shards_total"`
	Shards      []shardListItem `json:"shards"`
}

type queryRequest struct {
	DatasetID uuid.UUID `json:"dataset_id"`
	Field     string    `json:"field"`
	Metric    string    `json:"metric"`
	AgeRange  [2]uint8  `json:"age_range"`
}

type queryResponse struct {
	QueryID             uuid.UUID `json:"query_id"`
	DatasetID           uuid.UUID `json:"dataset_id"`
	BucketIndex         int       `json:"bucket_index"`
	BucketRange         [2]uint8  `json:"bucket_range"`
	SumGlucose          uint64    `json:"sum_glucose"`
	Count               uint64    `json:"count"`
	MeanGlucose         *float64  `json:"mean_glucose,omitempty"`
	ServerVerified      bool      `json:"server_verified"`
	ShardProofsEndpoint string    `json:"shard_proofs_endpoint"`
}

type zkVkResponse struct {
	Curve       string `json:"curve"`
	ProofSystem string `json:"proof_system"`
	VkB64       string `json:"vk_b64"`
}

type verifyShardRequest struct {
	VkB64                    string                   `json:"vk_b64"`
	ProofB64                 string                   `json:"proof_b64"`
	PublicShardCommitmentHex string                   `json:"public_shard_commitment_hex"`
	PublicSumGlucoseByBucket [types.NumBuckets]uint64 `json:"public_sum_glucose_by_bucket"`
	PublicCountByBucket      [types.NumBuckets]uint64 `json:"public_count_by_bucket"`
}

type verifyShardResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}
