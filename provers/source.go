package prover

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/medgraph/zk-ledger/types"
)

// RecordSource supplies the private records for a shard. Implementations own
// the records; they are handed to the prover as witness material and never
// persisted or transported.
type RecordSource interface {
	Shard(index uint64) ([]types.Record, error)
}

// SyntheticSource generates deterministic synthetic records from a per-shard
// ChaCha20 keystream. The same shard index always yields the same records, so
// datasets are reproducible while shards stay independently provable.
type SyntheticSource struct {
	shardSize int
}

func NewSyntheticSource(shardSize int) *SyntheticSource {
	return &SyntheticSource{shardSize: shardSize}
}

func (s *SyntheticSource) Shard(index uint64) ([]types.Record, error) {
	seed := shardSeed(index)
	nonce := make([]byte, chacha20.NonceSize)

	stream, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce)
	if err != nil {
		return nil, fmt.Errorf("shard %d keystream: %w", index, err)
	}

	buf := make([]byte, s.shardSize*8)
	stream.XORKeyStream(buf, buf)

	records := make([]types.Record, s.shardSize)
	for i := range records {
		a := binary.LittleEndian.Uint32(buf[i*8:])
		g := binary.LittleEndian.Uint32(buf[i*8+4:])
		records[i] = types.Record{
			// Ages uniform over [0, 120]; glucose roughly [70, 180].
			Age:              uint8(a % 121),
			BloodGlucoseMgDl: 70 + uint16(g%111),
		}
	}
	return records, nil
}

// shardSeed derives the per-shard ChaCha20 key: a fixed domain separator, the
// little-endian shard index, and constant padding.
func shardSeed(index uint64) [32]byte {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[0:8], 0x485f4c4544474552)
	binary.LittleEndian.PutUint64(seed[8:16], index)
	for i := 16; i < 32; i++ {
		seed[i] = 0x07
	}
	return seed
}

// StaticSource serves fixed in-memory shards. Used by tests and harnesses
// that need full control over the witness.
type StaticSource [][]types.Record

func (s StaticSource) Shard(index uint64) ([]types.Record, error) {
	if index >= uint64(len(s)) {
		return nil, fmt.Errorf("shard index %d out of range (%d shards)", index, len(s))
	}
	return s[index], nil
}
