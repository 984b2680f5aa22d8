package poseidon

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestParamsDerivationIsDeterministic(t *testing.T) {
	a := deriveParams()
	b := deriveParams()

	require.Len(t, a.RC, Width*(FullRounds+PartialRounds))
	for i := range a.RC {
		require.True(t, a.RC[i].Equal(&b.RC[i]), "round constant %d differs between derivations", i)
		require.Zero(t, a.RCBig[i].Cmp(b.RCBig[i]))
	}
	for i := 0; i < Width; i++ {
		for j := 0; j < Width; j++ {
			require.True(t, a.MDS[i][j].Equal(&b.MDS[i][j]), "MDS entry (%d,%d) differs", i, j)
		}
	}
}

func TestParamsViewsAgree(t *testing.T) {
	p := GetParams()
	var e fr.Element
	for i := range p.RC {
		e.SetBigInt(p.RCBig[i])
		require.True(t, e.Equal(&p.RC[i]), "RC[%d]: big.Int and fr views diverged", i)
	}
}

func TestHashIsDeterministic(t *testing.T) {
	inputs := []fr.Element{elem(12), elem(999), elem(1), elem(0), elem(1 << 40)}

	h1 := Hash(inputs...)
	h2 := Hash(inputs...)
	require.True(t, h1.Equal(&h2))
}

func TestHashIsOrderSensitive(t *testing.T) {
	a := Hash(elem(1), elem(2))
	b := Hash(elem(2), elem(1))
	require.False(t, a.Equal(&b), "swapping inputs must change the hash")
}

func TestHashDistinguishesLengths(t *testing.T) {
	a := Hash(elem(7), elem(8))
	b := Hash(elem(7), elem(8), elem(0))
	require.False(t, a.Equal(&b), "an extra absorbed zero starts a new block and must change the hash")
}

func TestSpongeMatchesHash(t *testing.T) {
	inputs := []fr.Element{elem(41), elem(42), elem(43)}

	s := NewSponge()
	for _, x := range inputs {
		s.Absorb(x)
	}
	got := s.Squeeze()

	want := Hash(inputs...)
	require.True(t, got.Equal(&want), "element-at-a-time absorb must match batch absorb")
}

func TestPartialBlockIsFlushed(t *testing.T) {
	// One element leaves a half-full rate block; squeeze must flush it.
	s := NewSponge()
	s.Absorb(elem(5))
	got := s.Squeeze()

	var zero fr.Element
	require.False(t, got.Equal(&zero), "squeeze after a partial block must permute")
}
