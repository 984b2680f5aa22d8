package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	datasetsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zkledger_datasets_created_total",
		Help: "Datasets whose generation was started.",
	})

	shardVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zkledger_shard_verifications_total",
		Help: "Shard proof verifications served by the verify endpoint.",
	}, []string{"result"})

	queriesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zkledger_queries_total",
		Help: "Aggregate queries answered.",
	})
)
