package circuits

import (
	"math/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
	gnark_test "github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"github.com/medgraph/zk-ledger/poseidon"
	"github.com/medgraph/zk-ledger/types"
)

const testShardSize = 8

// spongeEqualityCircuit only recomputes the sponge over its inputs; it exists
// to pin the in-circuit Poseidon to the native evaluator.
type spongeEqualityCircuit struct {
	Expected frontend.Variable `gnark:",public"`
	Inputs   []frontend.Variable
}

func (c *spongeEqualityCircuit) Define(api frontend.API) error {
	s := newSponge(api)
	s.absorb(c.Inputs...)
	api.AssertIsEqual(s.squeeze(), c.Expected)
	return nil
}

func TestNativeAndCircuitSpongeAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 5; trial++ {
		n := 2 * testShardSize // one (age, value) pair per record
		native := make([]fr.Element, n)
		assigned := make([]frontend.Variable, n)
		for i := 0; i < n; i++ {
			v := rng.Uint64()
			native[i].SetUint64(v)
			assigned[i] = v
		}

		expected := poseidon.Hash(native...)

		circuit := &spongeEqualityCircuit{Inputs: make([]frontend.Variable, n)}
		assignment := &spongeEqualityCircuit{Expected: expected, Inputs: assigned}

		err := gnark_test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
		require.NoError(t, err, "trial %d: circuit sponge disagrees with native sponge", trial)
	}
}

func TestNativeAndCircuitSpongeAgreeOddLength(t *testing.T) {
	// An odd input count leaves a partial rate block; both sides must flush
	// it identically.
	native := []fr.Element{}
	assigned := []frontend.Variable{}
	for _, v := range []uint64{3, 1, 4} {
		var e fr.Element
		e.SetUint64(v)
		native = append(native, e)
		assigned = append(assigned, v)
	}

	expected := poseidon.Hash(native...)
	circuit := &spongeEqualityCircuit{Inputs: make([]frontend.Variable, len(assigned))}
	assignment := &spongeEqualityCircuit{Expected: expected, Inputs: assigned}

	require.NoError(t, gnark_test.IsSolved(circuit, assignment, ecc.BN254.ScalarField()))
}

// randomRecords generates deterministic in-range records.
func randomRecords(seed int64, n int) []types.Record {
	rng := rand.New(rand.NewSource(seed))
	records := make([]types.Record, n)
	for i := range records {
		records[i] = types.Record{
			Age:              uint8(rng.Intn(121)),
			BloodGlucoseMgDl: 70 + uint16(rng.Intn(111)),
		}
	}
	return records
}

// computeWitness mirrors the native shard evaluator for test assignments.
func computeWitness(records []types.Record) (fr.Element, types.ShardStats) {
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

func assignment(records []types.Record, commitment fr.Element, stats types.ShardStats) *ShardCircuit {
	c := NewShardCircuit(len(records))
	c.Commitment = commitment
	for i := 0; i < types.NumBuckets; i++ {
		c.SumByBucket[i] = stats.SumGlucoseByBucket[i]
		c.CountByBucket[i] = stats.CountByBucket[i]
	}
	for i, r := range records {
		c.Ages[i] = uint64(r.Age)
		c.Glucose[i] = uint64(r.BloodGlucoseMgDl)
	}
	return c
}

func TestShardCircuitIsSolved(t *testing.T) {
	records := randomRecords(1, testShardSize)
	commitment, stats := computeWitness(records)

	err := gnark_test.IsSolved(NewShardCircuit(testShardSize), assignment(records, commitment, stats), ecc.BN254.ScalarField())
	require.NoError(t, err, "a faithful witness must satisfy the circuit")
}

func TestShardCircuitRejectsTamperedSum(t *testing.T) {
	records := randomRecords(2, testShardSize)
	commitment, stats := computeWitness(records)

	stats.SumGlucoseByBucket[3]++

	err := gnark_test.IsSolved(NewShardCircuit(testShardSize), assignment(records, commitment, stats), ecc.BN254.ScalarField())
	require.Error(t, err, "a tampered bucket sum must be unsatisfiable")
}

func TestShardCircuitRejectsTamperedCount(t *testing.T) {
	records := randomRecords(3, testShardSize)
	commitment, stats := computeWitness(records)

	stats.CountByBucket[0]++

	err := gnark_test.IsSolved(NewShardCircuit(testShardSize), assignment(records, commitment, stats), ecc.BN254.ScalarField())
	require.Error(t, err, "a tampered bucket count must be unsatisfiable")
}

func TestShardCircuitRejectsTamperedCommitment(t *testing.T) {
	records := randomRecords(4, testShardSize)
	commitment, stats := computeWitness(records)

	var one fr.Element
	one.SetOne()
	commitment.Add(&commitment, &one)

	err := gnark_test.IsSolved(NewShardCircuit(testShardSize), assignment(records, commitment, stats), ecc.BN254.ScalarField())
	require.Error(t, err, "a wrong commitment must be unsatisfiable")
}

func TestShardCircuitRejectsOutOfRangeAge(t *testing.T) {
	// Ages above 120 are outside every bucket; the exhaustiveness constraint
	// must reject them even though they fit in 8 bits. The host-side clamp in
	// BucketForAge deliberately does not help the witness here.
	records := randomRecords(5, testShardSize)
	records[testShardSize/2].Age = 121
	commitment, stats := computeWitness(records)

	err := gnark_test.IsSolved(NewShardCircuit(testShardSize), assignment(records, commitment, stats), ecc.BN254.ScalarField())
	require.Error(t, err, "an age outside the bucket union must be unsatisfiable")
}

func TestShardCircuitRejectsWrongRecordOrder(t *testing.T) {
	// The commitment binds record order: swapping two records while keeping
	// the original commitment must fail.
	records := randomRecords(6, testShardSize)
	records[0] = types.Record{Age: 10, BloodGlucoseMgDl: 100}
	records[1] = types.Record{Age: 20, BloodGlucoseMgDl: 140}
	commitment, stats := computeWitness(records)

	records[0], records[1] = records[1], records[0]

	err := gnark_test.IsSolved(NewShardCircuit(testShardSize), assignment(records, commitment, stats), ecc.BN254.ScalarField())
	require.Error(t, err, "reordered records must not match the original commitment")
}
