package poseidon

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Sponge geometry. Width 3 lets one record (age, value) fill the rate exactly,
// so a shard of N records costs N permutations.
const (
	Width         = 3
	Rate          = 2
	Capacity      = 1
	FullRounds    = 8
	PartialRounds = 57
	Alpha         = 5
)

// Params holds the Poseidon round constants and MDS matrix in two forms:
// fr.Element for the native sponge and *big.Int for in-circuit constants.
// Both views are derived from the same integers, so the native hasher and the
// circuit gadget agree element for element.
type Params struct {
	RC  []fr.Element
	MDS [Width][Width]fr.Element

	RCBig  []*big.Int
	MDSBig [Width][Width]*big.Int
}

var (
	paramsOnce sync.Once
	params     *Params
)

// GetParams returns the process-wide Poseidon parameters, deriving them on
// first use. The derivation is pure: re-deriving must be byte-identical.
func GetParams() *Params {
	paramsOnce.Do(func() {
		params = deriveParams()
	})
	return params
}

// deriveParams deterministically derives round constants and the MDS matrix
// from the field modulus bit size and the rate/round counts.
//
// Round constant i is (seed + i)^alpha mod p where seed encodes the parameter
// set. The MDS matrix is a Cauchy matrix m[i][j] = 1/(x_i + y_j) with
// x_i = i and y_j = Width + j, which are pairwise distinct, so every entry is
// invertible.
func deriveParams() *Params {
	mod := fr.Modulus()
	label := fmt.Sprintf("poseidon-fr%d-rate%d-full%d-partial%d", fr.Bits, Rate, FullRounds, PartialRounds)
	seed := new(big.Int).SetBytes([]byte(label))

	total := Width * (FullRounds + PartialRounds)
	p := &Params{
		RC:    make([]fr.Element, total),
		RCBig: make([]*big.Int, total),
	}

	alpha := big.NewInt(Alpha)
	for i := 0; i < total; i++ {
		c := new(big.Int).Add(seed, big.NewInt(int64(i)))
		c.Exp(c, alpha, mod)
		p.RCBig[i] = c
		p.RC[i].SetBigInt(c)
	}

	for i := 0; i < Width; i++ {
		for j := 0; j < Width; j++ {
			s := big.NewInt(int64(i + Width + j))
			inv := new(big.Int).ModInverse(s, mod)
			if inv == nil {
				// x_i + y_j is a small nonzero integer, always invertible mod p.
				panic(fmt.Sprintf("poseidon: non-invertible MDS entry (%d,%d)", i, j))
			}
			p.MDSBig[i][j] = inv
			p.MDS[i][j].SetBigInt(inv)
		}
	}

	return p
}
