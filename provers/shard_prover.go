package prover

import (
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/medgraph/zk-ledger/circuits"
	"github.com/medgraph/zk-ledger/types"
)

// ShardProof is the output of a successful prove call. Verified is always
// true on return: Prove runs the verifier on its own output and aborts rather
// than release a proof that fails the check.
type ShardProof struct {
	Proof      groth16.Proof
	Commitment fr.Element
	Stats      types.ShardStats
	Verified   bool
}

// ShardProver holds the compiled shard circuit and a Groth16 key pair for one
// fixed shard size. It is immutable after construction and safe to share
// across goroutines; proving saturates a core for its full duration, so run it
// on a worker if the caller has latency-sensitive work.
//
// SECURITY NOTE (prototype): the setup runs locally and its randomness is
// toxic waste. A production deployment needs an MPC ceremony or a transparent
// proof system.
type ShardProver struct {
	shardSize int
	ccs       constraint.ConstraintSystem
	pk        groth16.ProvingKey
	vk        groth16.VerifyingKey
}

// Compile synthesizes the shard circuit for the given shard size over the
// BN254 scalar field.
func Compile(shardSize int) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuits.NewShardCircuit(shardSize))
	if err != nil {
		return nil, fmt.Errorf("compile shard circuit (N=%d): %w", shardSize, err)
	}
	return ccs, nil
}

// NewShardProver compiles the circuit and runs the Groth16 setup. Setup
// randomness comes from OS entropy inside gnark.
func NewShardProver(shardSize int) (*ShardProver, error) {
	ccs, err := Compile(shardSize)
	if err != nil {
		return nil, err
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup (N=%d): %w", shardSize, err)
	}

	return &ShardProver{shardSize: shardSize, ccs: ccs, pk: pk, vk: vk}, nil
}

func (p *ShardProver) ShardSize() int { return p.shardSize }

func (p *ShardProver) VerifyingKey() groth16.VerifyingKey { return p.vk }

// Prove computes the shard's commitment and aggregates, produces a Groth16
// proof binding them to the records, and verifies that proof before returning
// it. A witness contradicting the circuit (e.g. an out-of-range age) surfaces
// as an unsatisfiable-constraint error from the proving backend.
func (p *ShardProver) Prove(records []types.Record) (*ShardProof, error) {
	if len(records) != p.shardSize {
		return nil, &ShardSizeError{Expected: p.shardSize, Got: len(records)}
	}

	commitment, stats := ComputeShardStats(records)

	assignment := circuits.NewShardCircuit(p.shardSize)
	for i, r := range records {
		assignment.Ages[i] = uint64(r.Age)
		assignment.Glucose[i] = uint64(r.BloodGlucoseMgDl)
	}
	assignPublic(assignment, commitment, stats)

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}

	start := time.Now()
	proof, err := groth16.Prove(p.ccs, p.pk, w)
	if err != nil {
		return nil, fmt.Errorf("groth16 prove: %w", err)
	}
	provingDuration.Observe(time.Since(start).Seconds())

	// Fail closed: never emit a proof that does not verify.
	if err := p.Verify(proof, commitment, stats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProverSelfCheck, err)
	}

	shardsProven.Inc()
	return &ShardProof{Proof: proof, Commitment: commitment, Stats: stats, Verified: true}, nil
}

// Verify checks a proof against the claimed commitment and aggregates using
// the prover's verifying key.
func (p *ShardProver) Verify(proof groth16.Proof, commitment fr.Element, stats types.ShardStats) error {
	return VerifyShardProof(p.vk, proof, commitment, stats)
}

// VerifyShardProof checks a shard proof against the claimed public inputs.
// It returns ErrVerificationFailed when the pairing check rejects.
func VerifyShardProof(vk groth16.VerifyingKey, proof groth16.Proof, commitment fr.Element, stats types.ShardStats) error {
	w, err := PublicWitness(commitment, stats)
	if err != nil {
		return err
	}
	if err := groth16.Verify(proof, vk, w); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return nil
}

// PublicWitness builds the public-only witness for the claimed commitment and
// aggregates, in the circuit's public-input order.
func PublicWitness(commitment fr.Element, stats types.ShardStats) (witness.Witness, error) {
	assignment := &circuits.ShardCircuit{}
	assignPublic(assignment, commitment, stats)

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("build public witness: %w", err)
	}
	return w, nil
}

func assignPublic(c *circuits.ShardCircuit, commitment fr.Element, stats types.ShardStats) {
	c.Commitment = commitment
	for i := 0; i < types.NumBuckets; i++ {
		c.SumByBucket[i] = stats.SumGlucoseByBucket[i]
		c.CountByBucket[i] = stats.CountByBucket[i]
	}
}
