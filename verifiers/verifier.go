// Package verifiers is the stateless verification surface: given verifying-key
// and proof bytes plus the claimed public inputs, it answers whether the proof
// holds. It keeps no state and trusts nothing it is handed.
package verifiers

import (
	"fmt"

	"github.com/medgraph/zk-ledger/provers"
	"github.com/medgraph/zk-ledger/types"
)

// InputError reports malformed verification inputs (bad bytes, bad hex, wrong
// array lengths). Callers distinguish it from a cryptographic mismatch, which
// is reported as ok=false with a nil error.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// VerifyShard checks a shard proof against the claimed commitment and
// aggregates.
//
//	ok=true,  err=nil        proof verifies
//	ok=false, err=nil        well-formed inputs, proof does not verify
//	ok=false, err=InputError inputs could not be decoded
func VerifyShard(vkBytes, proofBytes []byte, commitmentHex string, sums, counts []uint64) (bool, error) {
	vk, err := prover.DeserializeVerifyingKey(vkBytes)
	if err != nil {
		return false, &InputError{Field: "verifying key", Err: err}
	}

	proof, err := prover.DeserializeProof(proofBytes)
	if err != nil {
		return false, &InputError{Field: "proof", Err: err}
	}

	commitment, err := types.FrHex(commitmentHex).ToFr()
	if err != nil {
		return false, &InputError{Field: "commitment", Err: err}
	}

	if len(sums) != types.NumBuckets {
		return false, &InputError{Field: "sums", Err: fmt.Errorf("expected %d buckets, got %d", types.NumBuckets, len(sums))}
	}
	if len(counts) != types.NumBuckets {
		return false, &InputError{Field: "counts", Err: fmt.Errorf("expected %d buckets, got %d", types.NumBuckets, len(counts))}
	}

	var stats types.ShardStats
	copy(stats.SumGlucoseByBucket[:], sums)
	copy(stats.CountByBucket[:], counts)

	if err := prover.VerifyShardProof(vk, proof, commitment, stats); err != nil {
		return false, nil
	}
	return true, nil
}
