package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/medgraph/zk-ledger/types"
)

// ShardCircuit proves, for one shard of records:
//
//  1. The prover knows the shard's private records (age, glucose).
//  2. The public commitment equals the Poseidon sponge over those records,
//     absorbed in record order.
//  3. The public per-bucket sums and counts equal the aggregates computed from
//     those records.
//
// The records stay private; only the commitment and the aggregates are public.
//
// Public inputs are allocated in declaration order: commitment, then bucket
// sums, then bucket counts. types.PublicInputs produces the verifier-side
// vector in the same order; the two are a single contract and must not drift.
type ShardCircuit struct {
	Commitment    frontend.Variable                   `gnark:",public"`
	SumByBucket   [types.NumBuckets]frontend.Variable `gnark:",public"`
	CountByBucket [types.NumBuckets]frontend.Variable `gnark:",public"`

	// Private witness, one entry per record. Both slices are sized to the
	// shard size at construction; compiling fixes that size into the
	// constraint system, so a key pair is only valid for the size it was
	// compiled with.
	Ages    []frontend.Variable
	Glucose []frontend.Variable
}

// NewShardCircuit returns a circuit shell for the given shard size, ready for
// compilation or witness assignment.
func NewShardCircuit(shardSize int) *ShardCircuit {
	return &ShardCircuit{
		Ages:    make([]frontend.Variable, shardSize),
		Glucose: make([]frontend.Variable, shardSize),
	}
}

// Define implements the circuit constraints.
func (c *ShardCircuit) Define(api frontend.API) error {
	if len(c.Ages) != len(c.Glucose) {
		return fmt.Errorf("record field length mismatch: %d ages, %d glucose values", len(c.Ages), len(c.Glucose))
	}

	sponge := newSponge(api)

	var sums, counts [types.NumBuckets]frontend.Variable
	for b := range sums {
		sums[b] = 0
		counts[b] = 0
	}

	for i := range c.Ages {
		age := c.Ages[i]
		glucose := c.Glucose[i]

		// Range constrain both fields so small integers have a unique field
		// encoding. ToBinary enforces booleanity and reconstruction.
		ageBits := api.ToBinary(age, 8)
		api.ToBinary(glucose, 16)

		// Commitment binding: absorb the private fields in record order.
		sponge.absorb(age, glucose)

		// Bucket membership. The bucket bounds are disjoint constants, so at
		// most one inBucket is true for any 8-bit age.
		inAny := frontend.Variable(0)
		for b, bucket := range types.AgeBuckets {
			inBucket := c.inRange(api, ageBits, bucket.Min, bucket.Max)
			inAny = api.Or(inAny, inBucket)

			sums[b] = api.Add(sums[b], api.Select(inBucket, glucose, 0))
			counts[b] = api.Add(counts[b], inBucket)
		}

		// Exhaustiveness: every age must land in some bucket. Buckets end at
		// 120, so an 8-bit age above 120 cannot satisfy this.
		api.AssertIsEqual(inAny, 1)
	}

	// The squeezed sponge output must equal the public commitment.
	api.AssertIsEqual(sponge.squeeze(), c.Commitment)

	for b := 0; b < types.NumBuckets; b++ {
		api.AssertIsEqual(sums[b], c.SumByBucket[b])
		api.AssertIsEqual(counts[b], c.CountByBucket[b])
	}

	return nil
}

// leqConst returns the boolean a <= bound for an 8-bit value given as
// little-endian bits, by lexicographic compare from the most significant bit
// down.
func (c *ShardCircuit) leqConst(api frontend.API, aBits []frontend.Variable, bound uint8) frontend.Variable {
	less := frontend.Variable(0)
	equal := frontend.Variable(1)

	for i := 7; i >= 0; i-- {
		if (bound>>uint(i))&1 == 1 {
			// a_i == 0 here means a < bound on this prefix.
			notA := api.Sub(1, aBits[i])
			less = api.Or(less, api.And(equal, notA))
			equal = api.And(equal, aBits[i])
		} else {
			equal = api.And(equal, api.Sub(1, aBits[i]))
		}
	}

	return api.Or(less, equal)
}

// geqConst returns the boolean a >= bound. A zero bound holds trivially,
// which keeps the first bucket's lower check off-by-one free.
func (c *ShardCircuit) geqConst(api frontend.API, aBits []frontend.Variable, bound uint8) frontend.Variable {
	if bound == 0 {
		return frontend.Variable(1)
	}
	return api.Sub(1, c.leqConst(api, aBits, bound-1))
}

// inRange returns the boolean min <= a <= max.
func (c *ShardCircuit) inRange(api frontend.API, aBits []frontend.Variable, min, max uint8) frontend.Variable {
	return api.And(c.geqConst(api, aBits, min), c.leqConst(api, aBits, max))
}
