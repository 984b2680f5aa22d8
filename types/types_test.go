package types

import (
	"encoding/json"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestAgeBucketsPartitionRange(t *testing.T) {
	// Every age in [0, 120] must land in exactly one bucket.
	for age := 0; age <= 120; age++ {
		hits := 0
		for _, b := range AgeBuckets {
			if uint8(age) >= b.Min && uint8(age) <= b.Max {
				hits++
			}
		}
		require.Equal(t, 1, hits, "age %d is covered by %d buckets", age, hits)
	}
}

func TestBucketForAge(t *testing.T) {
	require.Equal(t, 0, BucketForAge(0))
	require.Equal(t, 0, BucketForAge(17))
	require.Equal(t, 1, BucketForAge(18))
	require.Equal(t, 2, BucketForAge(35))
	require.Equal(t, 5, BucketForAge(120))

	// Out-of-range ages clamp to the last bucket on the host side.
	require.Equal(t, NumBuckets-1, BucketForAge(121))
	require.Equal(t, NumBuckets-1, BucketForAge(255))
}

func TestPublicInputsOrdering(t *testing.T) {
	var commitment fr.Element
	commitment.SetUint64(777)

	var stats ShardStats
	for i := 0; i < NumBuckets; i++ {
		stats.SumGlucoseByBucket[i] = uint64(1000 + i)
		stats.CountByBucket[i] = uint64(10 + i)
	}

	v := PublicInputs(commitment, stats)
	require.Len(t, v, 1+2*NumBuckets)

	require.True(t, v[0].Equal(&commitment), "index 0 must be the commitment")
	for i := 0; i < NumBuckets; i++ {
		require.Equal(t, stats.SumGlucoseByBucket[i], v[1+i].Uint64(), "sums must occupy indices [1, 1+B)")
		require.Equal(t, stats.CountByBucket[i], v[1+NumBuckets+i].Uint64(), "counts must occupy indices [1+B, 1+2B)")
	}
}

func TestFrHexRoundTrip(t *testing.T) {
	var x fr.Element
	_, err := x.SetRandom()
	require.NoError(t, err)

	h := FrToHex(x)
	got, err := h.ToFr()
	require.NoError(t, err)
	require.True(t, got.Equal(&x))

	// 0x prefix is accepted on input.
	got2, err := FrHex("0x" + string(h)).ToFr()
	require.NoError(t, err)
	require.True(t, got2.Equal(&x))
}

func TestFrHexRejectsMalformed(t *testing.T) {
	_, err := FrHex("zz").ToFr()
	require.Error(t, err)

	// Wrong length.
	_, err = FrHex("deadbeef").ToFr()
	require.Error(t, err)

	// 32 bytes but above the field modulus: not canonical.
	_, err = FrHex("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff").ToFr()
	require.Error(t, err)
}

func TestHexBytesJSON(t *testing.T) {
	hb := HexBytes{0xde, 0xad, 0xbe, 0xef}

	blob, err := json.Marshal(hb)
	require.NoError(t, err)
	require.Equal(t, `"0xdeadbeef"`, string(blob))

	var back HexBytes
	require.NoError(t, json.Unmarshal(blob, &back))
	require.Equal(t, hb, back)

	// Base64 input is accepted too.
	var fromB64 HexBytes
	require.NoError(t, json.Unmarshal([]byte(`"3q2+7w=="`), &fromB64))
	require.Equal(t, hb, fromB64)
}
