package prover

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	shardsProven = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zkledger_shards_proven_total",
		Help: "Shard proofs generated and self-verified.",
	})

	provingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "zkledger_proving_seconds",
		Help: "Wall-clock duration of Groth16 shard proof generation.",
		// Proving runs seconds to minutes depending on shard size.
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
	})
)
