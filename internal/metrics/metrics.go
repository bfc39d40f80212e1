package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// intent building
	// ============================================
	SegmentsEncoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_segments_encoded_total",
			Help: "Total number of intent segments encoded",
		},
		[]string{"kind"},
	)

	EncodingViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_encoding_violations_total",
			Help: "Total number of builds aborted by an encoding contract violation",
		},
		[]string{"operation"},
	)

	IntentsSigned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intents_signed_total",
		Help: "Total number of intents signed by the service signer",
	})

	IntentSignFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intents_sign_failures_total",
		Help: "Total number of intent signing attempts that failed",
	})

	// ============================================
	// solution submission
	// ============================================
	SolutionsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solutions_submitted_total",
			Help: "Total number of solutions submitted to the entry point",
		},
		[]string{"chain", "status"},
	)

	SolutionSubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solution_submit_duration_seconds",
			Help:    "Time from packing a solution to its receipt",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"chain"},
	)

	SolutionGasUsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solution_gas_used",
			Help:    "Gas used by mined handleIntents transactions",
			Buckets: prometheus.ExponentialBuckets(50_000, 2, 10),
		},
		[]string{"chain"},
	)

	// ============================================
	// NATS
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "intents_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject"},
	)

	NATSPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_nats_publish_failures_total",
			Help: "Total number of NATS messages that failed to publish",
		},
		[]string{"subject"},
	)

	// ============================================
	// signer balance
	// ============================================
	SignerBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "intents_signer_balance_wei",
			Help: "Balance of the transaction signer address",
		},
		[]string{"chain", "address"},
	)
)
