package prover

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/medgraph/zk-ledger/poseidon"
	"github.com/medgraph/zk-ledger/types"
)

// ComputeShardStats computes a shard's commitment and bucketed aggregates
// natively, outside the circuit. The prover uses it to derive the public
// inputs the circuit will enforce; the circuit recomputes both from the
// witness, so the two MUST agree bit for bit.
//
// Inputs are trusted: an age above 120 is clamped into the last bucket here
// but would make the witness unsatisfiable in the circuit.
func ComputeShardStats(records []types.Record) (fr.Element, types.ShardStats) {
	sponge := poseidon.NewSponge()
	var stats types.ShardStats

	var age, glucose fr.Element
	for _, r := range records {
		age.SetUint64(uint64(r.Age))
		glucose.SetUint64(uint64(r.BloodGlucoseMgDl))
		sponge.Absorb(age, glucose)

		b := types.BucketForAge(r.Age)
		stats.SumGlucoseByBucket[b] += uint64(r.BloodGlucoseMgDl)
		stats.CountByBucket[b]++
	}

	return sponge.Squeeze(), stats
}
