package prover

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/rs/zerolog"
)

// Key artifacts on disk, one set per shard size. The shard size is embedded in
// the filename because a key pair is only valid for the size it was compiled
// with. Either both key files exist or the whole set is regenerated; partial
// state is treated as absent.

func ccsPath(dir string, shardSize int) string {
	return filepath.Join(dir, fmt.Sprintf("shard-%d.ccs", shardSize))
}

func pkPath(dir string, shardSize int) string {
	return filepath.Join(dir, fmt.Sprintf("pk-%d.bin", shardSize))
}

func vkPath(dir string, shardSize int) string {
	return filepath.Join(dir, fmt.Sprintf("vk-%d.bin", shardSize))
}

// SerializeProvingKey returns the canonical compressed encoding of a proving
// key. Round-trips losslessly through DeserializeProvingKey.
func SerializeProvingKey(pk groth16.ProvingKey) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := pk.WriteTo(&buf); err != nil {
		return nil, &SerializationError{What: "proving key", Err: err}
	}
	return buf.Bytes(), nil
}

func DeserializeProvingKey(b []byte) (groth16.ProvingKey, error) {
	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, &SerializationError{What: "proving key", Err: err}
	}
	return pk, nil
}

func SerializeVerifyingKey(vk groth16.VerifyingKey) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, &SerializationError{What: "verifying key", Err: err}
	}
	return buf.Bytes(), nil
}

func DeserializeVerifyingKey(b []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, &SerializationError{What: "verifying key", Err: err}
	}
	return vk, nil
}

func SerializeProof(proof groth16.Proof) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, &SerializationError{What: "proof", Err: err}
	}
	return buf.Bytes(), nil
}

func DeserializeProof(b []byte) (groth16.Proof, error) {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, &SerializationError{What: "proof", Err: err}
	}
	return proof, nil
}

// LoadShardProver loads the key artifacts for the given shard size from dir,
// or compiles the circuit and runs the setup when they are missing, writing
// the fresh artifacts back. The proving key is tens of MB; call this once per
// process and share the result.
func LoadShardProver(dir string, shardSize int, log zerolog.Logger) (*ShardProver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}

	pkFile := pkPath(dir, shardSize)
	vkFile := vkPath(dir, shardSize)

	if fileExists(pkFile) && fileExists(vkFile) {
		return loadFromDisk(dir, shardSize, log)
	}

	log.Info().Int("shard_size", shardSize).Msg("key artifacts missing, running trusted setup")

	p, err := NewShardProver(shardSize)
	if err != nil {
		return nil, err
	}

	if err := writeArtifacts(dir, p); err != nil {
		return nil, err
	}

	log.Info().
		Int("constraints", p.ccs.GetNbConstraints()).
		Int("public_inputs", p.ccs.GetNbPublicVariables()).
		Msg("setup complete, artifacts written")

	return p, nil
}

func loadFromDisk(dir string, shardSize int, log zerolog.Logger) (*ShardProver, error) {
	// The constraint system is recompiled if its file is missing; compilation
	// is deterministic, so the result matches the stored keys.
	var ccs = groth16.NewCS(ecc.BN254)
	ccsFile := ccsPath(dir, shardSize)

	if f, err := os.Open(ccsFile); err == nil {
		_, rerr := ccs.ReadFrom(f)
		_ = f.Close()
		if rerr != nil {
			return nil, fmt.Errorf("read constraint system %s: %w", ccsFile, rerr)
		}
	} else {
		log.Info().Str("path", ccsFile).Msg("constraint system missing, recompiling")
		compiled, err := Compile(shardSize)
		if err != nil {
			return nil, err
		}
		ccs = compiled
		if err := writeTo(ccsFile, ccs); err != nil {
			return nil, err
		}
	}

	pkBytes, err := os.ReadFile(pkPath(dir, shardSize))
	if err != nil {
		return nil, fmt.Errorf("read proving key: %w", err)
	}
	pk, err := DeserializeProvingKey(pkBytes)
	if err != nil {
		return nil, err
	}

	vkBytes, err := os.ReadFile(vkPath(dir, shardSize))
	if err != nil {
		return nil, fmt.Errorf("read verifying key: %w", err)
	}
	vk, err := DeserializeVerifyingKey(vkBytes)
	if err != nil {
		return nil, err
	}

	log.Info().Int("shard_size", shardSize).Int("constraints", ccs.GetNbConstraints()).Msg("key artifacts loaded")

	return &ShardProver{shardSize: shardSize, ccs: ccs, pk: pk, vk: vk}, nil
}

func writeArtifacts(dir string, p *ShardProver) error {
	if err := writeTo(ccsPath(dir, p.shardSize), p.ccs); err != nil {
		return err
	}
	if err := writeTo(pkPath(dir, p.shardSize), p.pk); err != nil {
		return err
	}
	return writeTo(vkPath(dir, p.shardSize), p.vk)
}

func writeTo(path string, v io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := v.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
