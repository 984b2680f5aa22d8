package types

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FrHex is the transport form of a field element: lowercase hex of the
// canonical compressed (32-byte big-endian) encoding. A leading 0x is accepted
// on input and never produced on output.
type FrHex string

// FrToHex encodes a field element for transport.
func FrToHex(x fr.Element) FrHex {
	b := x.Bytes()
	return FrHex(hex.EncodeToString(b[:]))
}

// ToFr decodes the hex string back into a field element. Non-canonical
// encodings (wrong length, value >= field modulus) are rejected.
func (h FrHex) ToFr() (fr.Element, error) {
	var x fr.Element
	b, err := HexToBytes(string(h))
	if err != nil {
		return x, fmt.Errorf("invalid field element hex: %w", err)
	}
	if len(b) != fr.Bytes {
		return x, fmt.Errorf("invalid field element length: expected %d bytes, got %d", fr.Bytes, len(b))
	}
	if err := x.SetBytesCanonical(b); err != nil {
		return x, fmt.Errorf("invalid field element bytes: %w", err)
	}
	return x, nil
}

func HexToBytes(hexStr string) ([]byte, error) {
	if strings.HasPrefix(hexStr, "0x") {
		hexStr = hexStr[2:]
	}
	return hex.DecodeString(hexStr)
}

// HexBytes renders as a 0x-prefixed hex string in JSON and accepts either hex
// or base64 on input.
type HexBytes []byte

func (hb HexBytes) String() string {
	return hex.EncodeToString(hb)
}

func (hb HexBytes) MarshalJSON() ([]byte, error) {
	s := hexutil.Encode(hb)
	jbz := make([]byte, len(s)+2)
	jbz[0] = '"'
	copy(jbz[1:], s)
	jbz[len(jbz)-1] = '"'
	return jbz, nil
}

func (hb *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid hex string: %s", data)
	}

	val := string(data[1 : len(data)-1])
	if isHex(val) {
		bz, err := HexToBytes(val)
		if err != nil {
			return err
		}
		*hb = bz
		return nil
	}

	bz, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return err
	}
	*hb = bz
	return nil
}

func isHex(s string) bool {
	v := s
	if len(v)%2 != 0 {
		return false
	}
	if strings.HasPrefix(v, "0x") {
		v = v[2:]
	}
	for _, b := range []byte(v) {
		if !(b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F') {
			return false
		}
	}
	return true
}
