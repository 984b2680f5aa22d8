package types

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ShardStats holds a shard's bucketed aggregates.
type ShardStats struct {
	SumGlucoseByBucket [NumBuckets]uint64 `json:"sum_glucose_by_bucket"`
	CountByBucket      [NumBuckets]uint64 `json:"count_by_bucket"`
}

// ShardPublicInputs is the JSON transport form of a shard proof's public
// inputs: the commitment as compressed hex, the aggregates as decimal
// integers.
type ShardPublicInputs struct {
	ShardCommitment    FrHex              `json:"shard_commitment"`
	SumGlucoseByBucket [NumBuckets]uint64 `json:"sum_glucose_by_bucket"`
	CountByBucket      [NumBuckets]uint64 `json:"count_by_bucket"`
}

// NewShardPublicInputs bundles a commitment and stats for transport.
func NewShardPublicInputs(commitment fr.Element, stats ShardStats) ShardPublicInputs {
	return ShardPublicInputs{
		ShardCommitment:    FrToHex(commitment),
		SumGlucoseByBucket: stats.SumGlucoseByBucket,
		CountByBucket:      stats.CountByBucket,
	}
}

// PublicInputs returns the ordered public-input vector for a shard proof:
// commitment, then the bucket sums, then the bucket counts (1 + 2*NumBuckets
// elements).
//
// This ordering is a contract with the shard circuit, whose public fields are
// declared in the same order. TestPublicWitnessMatchesCodec in the provers
// package asserts the two agree; reorder
// either side and verification silently breaks.
func PublicInputs(commitment fr.Element, stats ShardStats) []fr.Element {
	v := make([]fr.Element, 0, 1+2*NumBuckets)
	v = append(v, commitment)
	for i := 0; i < NumBuckets; i++ {
		var e fr.Element
		e.SetUint64(stats.SumGlucoseByBucket[i])
		v = append(v, e)
	}
	for i := 0; i < NumBuckets; i++ {
		var e fr.Element
		e.SetUint64(stats.CountByBucket[i])
		v = append(v, e)
	}
	return v
}
