// Package metrics exposes the pool client's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "poolclient"

var (
	// HydrationsTotal counts poll cycles by outcome (success, failure).
	HydrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hydrations_total",
			Help:      "Number of hydration cycles by outcome.",
		},
		[]string{"outcome"},
	)

	// HydrationDuration observes how long a full poll cycle takes.
	HydrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hydration_duration_seconds",
			Help:      "Duration of hydration cycles.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// PoolMembers tracks registered validators per admission category.
	PoolMembers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_members",
			Help:      "Registered pool members by category.",
		},
		[]string{"category"},
	)

	// PoolActiveMembers tracks members whose reputation keeps them active.
	PoolActiveMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_active_members",
			Help:      "Pool members currently above the activity threshold.",
		},
	)

	// EraBlocksRemaining tracks the countdown to the next rotation boundary.
	EraBlocksRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "era_blocks_remaining",
			Help:      "Blocks until the next era rotation as of the last snapshot.",
		},
	)

	// SnapshotStale is 1 while the registry serves a snapshot whose refresh
	// failed.
	SnapshotStale = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_stale",
			Help:      "Whether the served snapshot is stale (1) or fresh (0).",
		},
	)

	// IntentsSubmittedTotal counts gateway intents by kind (join, leave,
	// recategorize) and outcome (accepted, rejected, failed).
	IntentsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_submitted_total",
			Help:      "Pool intents submitted by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)
