package circuits

import (
	"github.com/consensys/gnark/frontend"

	"github.com/medgraph/zk-ledger/poseidon"
)

// spongeGadget is the in-circuit Poseidon sponge. It mirrors the native
// poseidon.Sponge block for block: same state layout (capacity at index 0),
// same buffered absorb, same flush-then-read squeeze, and the same derived
// constants. Given equal input sequences the two produce the same field
// element; the native/circuit equality test pins this down.
type spongeGadget struct {
	api    frontend.API
	params *poseidon.Params
	state  [poseidon.Width]frontend.Variable
	buf    []frontend.Variable
}

func newSponge(api frontend.API) *spongeGadget {
	s := &spongeGadget{api: api, params: poseidon.GetParams()}
	for i := range s.state {
		s.state[i] = 0
	}
	return s
}

func (s *spongeGadget) absorb(xs ...frontend.Variable) {
	for _, x := range xs {
		s.buf = append(s.buf, x)
		if len(s.buf) == poseidon.Rate {
			s.absorbBlock()
		}
	}
}

func (s *spongeGadget) absorbBlock() {
	for j, x := range s.buf {
		s.state[poseidon.Capacity+j] = s.api.Add(s.state[poseidon.Capacity+j], x)
	}
	s.permute()
	s.buf = s.buf[:0]
}

func (s *spongeGadget) squeeze() frontend.Variable {
	if len(s.buf) > 0 {
		s.absorbBlock()
	}
	return s.state[poseidon.Capacity]
}

func (s *spongeGadget) permute() {
	rc := 0
	half := poseidon.FullRounds / 2

	for r := 0; r < half; r++ {
		s.addRoundConstants(&rc)
		for i := range s.state {
			s.state[i] = s.sbox(s.state[i])
		}
		s.mdsMul()
	}

	for r := 0; r < poseidon.PartialRounds; r++ {
		s.addRoundConstants(&rc)
		s.state[0] = s.sbox(s.state[0])
		s.mdsMul()
	}

	for r := 0; r < half; r++ {
		s.addRoundConstants(&rc)
		for i := range s.state {
			s.state[i] = s.sbox(s.state[i])
		}
		s.mdsMul()
	}
}

func (s *spongeGadget) addRoundConstants(rc *int) {
	for i := range s.state {
		s.state[i] = s.api.Add(s.state[i], s.params.RCBig[*rc])
		*rc++
	}
}

// sbox computes x^5 in two multiplications plus one.
func (s *spongeGadget) sbox(x frontend.Variable) frontend.Variable {
	x2 := s.api.Mul(x, x)
	x4 := s.api.Mul(x2, x2)
	return s.api.Mul(x4, x)
}

func (s *spongeGadget) mdsMul() {
	var out [poseidon.Width]frontend.Variable
	for i := 0; i < poseidon.Width; i++ {
		acc := frontend.Variable(0)
		for j := 0; j < poseidon.Width; j++ {
			acc = s.api.Add(acc, s.api.Mul(s.params.MDSBig[i][j], s.state[j]))
		}
		out[i] = acc
	}
	s.state = out
}
