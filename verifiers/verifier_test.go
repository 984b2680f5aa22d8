package verifiers

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medgraph/zk-ledger/provers"
	"github.com/medgraph/zk-ledger/types"
)

const testShardSize = 16

type fixture struct {
	vkBytes       []byte
	proofBytes    []byte
	commitmentHex string
	sums          []uint64
	counts        []uint64
}

var (
	fixtureOnce sync.Once
	fx          *fixture
	fxErr       error
)

// getFixture proves one small shard and serializes the artifacts a remote
// verifier would receive.
func getFixture(t *testing.T) *fixture {
	t.Helper()
	fixtureOnce.Do(func() {
		p, err := prover.NewShardProver(testShardSize)
		if err != nil {
			fxErr = err
			return
		}

		rng := rand.New(rand.NewSource(11))
		records := make([]types.Record, testShardSize)
		for i := range records {
			records[i] = types.Record{
				Age:              uint8(rng.Intn(121)),
				BloodGlucoseMgDl: 70 + uint16(rng.Intn(111)),
			}
		}

		proof, err := p.Prove(records)
		if err != nil {
			fxErr = err
			return
		}

		vkBytes, err := prover.SerializeVerifyingKey(p.VerifyingKey())
		if err != nil {
			fxErr = err
			return
		}
		proofBytes, err := prover.SerializeProof(proof.Proof)
		if err != nil {
			fxErr = err
			return
		}

		fx = &fixture{
			vkBytes:       vkBytes,
			proofBytes:    proofBytes,
			commitmentHex: string(types.FrToHex(proof.Commitment)),
			sums:          proof.Stats.SumGlucoseByBucket[:],
			counts:        proof.Stats.CountByBucket[:],
		}
	})
	require.NoError(t, fxErr, "fixture setup failed")
	return fx
}

func TestVerifyShardAccepts(t *testing.T) {
	f := getFixture(t)

	ok, err := VerifyShard(f.vkBytes, f.proofBytes, f.commitmentHex, f.sums, f.counts)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyShardRejectsTamperedSums(t *testing.T) {
	f := getFixture(t)

	sums := append([]uint64(nil), f.sums...)
	sums[3]++

	ok, err := VerifyShard(f.vkBytes, f.proofBytes, f.commitmentHex, sums, f.counts)
	require.NoError(t, err, "a cryptographic mismatch is not an input error")
	require.False(t, ok)
}

func TestVerifyShardRejectsWrongCommitment(t *testing.T) {
	f := getFixture(t)

	// A different but valid field element.
	other := "0000000000000000000000000000000000000000000000000000000000000007"

	ok, err := VerifyShard(f.vkBytes, f.proofBytes, other, f.sums, f.counts)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyShardInputErrors(t *testing.T) {
	f := getFixture(t)
	var inputErr *InputError

	ok, err := VerifyShard([]byte("garbage"), f.proofBytes, f.commitmentHex, f.sums, f.counts)
	require.False(t, ok)
	require.ErrorAs(t, err, &inputErr)

	ok, err = VerifyShard(f.vkBytes, []byte{0xff}, f.commitmentHex, f.sums, f.counts)
	require.False(t, ok)
	require.ErrorAs(t, err, &inputErr)

	ok, err = VerifyShard(f.vkBytes, f.proofBytes, "not-hex", f.sums, f.counts)
	require.False(t, ok)
	require.ErrorAs(t, err, &inputErr)

	ok, err = VerifyShard(f.vkBytes, f.proofBytes, f.commitmentHex, f.sums[:3], f.counts)
	require.False(t, ok)
	require.ErrorAs(t, err, &inputErr)
}
