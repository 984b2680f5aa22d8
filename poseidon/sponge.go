package poseidon

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Sponge is the native Poseidon sponge over the BN254 scalar field.
//
// State layout: state[0] is the capacity element, state[1..Width) is the rate.
// Absorbed elements are buffered and added into the rate a full block at a
// time, followed by one permutation per block. Squeeze flushes a partial block
// (if any) and reads state[1].
//
// The in-circuit sponge in the circuits package mirrors this block discipline
// exactly; the two must stay in lockstep or commitments stop verifying.
type Sponge struct {
	params *Params
	state  [Width]fr.Element
	buf    []fr.Element
}

// NewSponge returns an empty sponge using the process-wide parameters.
func NewSponge() *Sponge {
	return &Sponge{params: GetParams()}
}

// Absorb feeds field elements into the sponge in order.
func (s *Sponge) Absorb(xs ...fr.Element) {
	for _, x := range xs {
		s.buf = append(s.buf, x)
		if len(s.buf) == Rate {
			s.absorbBlock()
		}
	}
}

func (s *Sponge) absorbBlock() {
	for j := range s.buf {
		s.state[Capacity+j].Add(&s.state[Capacity+j], &s.buf[j])
	}
	permute(&s.state, s.params)
	s.buf = s.buf[:0]
}

// Squeeze flushes any buffered input and returns one field element.
func (s *Sponge) Squeeze() fr.Element {
	if len(s.buf) > 0 {
		s.absorbBlock()
	}
	return s.state[Capacity]
}

// Hash absorbs the inputs into a fresh sponge and squeezes one element.
func Hash(xs ...fr.Element) fr.Element {
	sp := NewSponge()
	sp.Absorb(xs...)
	return sp.Squeeze()
}

// permute applies the Poseidon permutation in place: half the full rounds,
// then the partial rounds (S-box on state[0] only), then the remaining full
// rounds. Each round is add-round-constants, S-box, MDS mix.
func permute(state *[Width]fr.Element, p *Params) {
	rc := 0
	half := FullRounds / 2

	for r := 0; r < half; r++ {
		addRoundConstants(state, p, &rc)
		for i := 0; i < Width; i++ {
			sbox(&state[i])
		}
		mdsMul(state, p)
	}

	for r := 0; r < PartialRounds; r++ {
		addRoundConstants(state, p, &rc)
		sbox(&state[0])
		mdsMul(state, p)
	}

	for r := 0; r < half; r++ {
		addRoundConstants(state, p, &rc)
		for i := 0; i < Width; i++ {
			sbox(&state[i])
		}
		mdsMul(state, p)
	}
}

func addRoundConstants(state *[Width]fr.Element, p *Params, rc *int) {
	for i := 0; i < Width; i++ {
		state[i].Add(&state[i], &p.RC[*rc])
		*rc++
	}
}

// sbox computes x^5.
func sbox(x *fr.Element) {
	var x2, x4 fr.Element
	x2.Square(x)
	x4.Square(&x2)
	x.Mul(&x4, x)
}

func mdsMul(state *[Width]fr.Element, p *Params) {
	var out [Width]fr.Element
	var t fr.Element
	for i := 0; i < Width; i++ {
		for j := 0; j < Width; j++ {
			t.Mul(&p.MDS[i][j], &state[j])
			out[i].Add(&out[i], &t)
		}
	}
	*state = out
}
