package prover

import (
	"errors"
	"fmt"
)

// ErrVerificationFailed reports a proof that does not verify against the
// claimed public inputs.
var ErrVerificationFailed = errors.New("proof verification failed")

// ErrProverSelfCheck reports a freshly generated proof failing the prover's
// own verification pass. The proof is never released.
var ErrProverSelfCheck = errors.New("prover self-check failed")

// ShardSizeError reports a record slice whose length does not match the
// prover's configured shard size. This is a caller bug, not a retryable
// condition.
type ShardSizeError struct {
	Expected int
	Got      int
}

func (e *ShardSizeError) Error() string {
	return fmt.Sprintf("invalid shard size: expected %d records, got %d", e.Expected, e.Got)
}

// SerializationError reports malformed bytes for a key, proof, or field
// element.
type SerializationError struct {
	What string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s serialization: %v", e.What, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
