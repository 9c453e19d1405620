package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for RouterLedger.
type Metrics struct {
	// --- Engine ---
	OpsApplied  *prometheus.CounterVec
	OpsRejected *prometheus.CounterVec
	OpDuration  *prometheus.HistogramVec
	Sequence    prometheus.Gauge

	// --- Domain ---
	TradesExecuted  *prometheus.CounterVec
	FeesCollected   *prometheus.CounterVec
	OrdersCreated   prometheus.Counter
	OrdersCancelled prometheus.Counter
	TransfersEmitted *prometheus.CounterVec

	// --- Channels & backpressure ---
	ChannelSize         *prometheus.GaugeVec
	ChannelCapacity     *prometheus.GaugeVec
	ChannelUtilization  *prometheus.GaugeVec
	PublishDrops        prometheus.Counter
	PersistBackpressure prometheus.Counter

	// --- Ingestion ---
	CommandsReceived *prometheus.CounterVec
	CommandsAcked    *prometheus.CounterVec
	CommandsNaked    prometheus.Counter
	ParseFailures    prometheus.Counter

	// --- Persistence ---
	PersistOpsWritten   prometheus.Counter
	PersistBatchSize    prometheus.Histogram
	PersistBatchDur     prometheus.Histogram
	PersistErrors       *prometheus.CounterVec
	PersistRetry        prometheus.Counter
	PersistLastSequence prometheus.Gauge

	// --- Snapshot ---
	SnapshotTaken     prometheus.Counter
	SnapshotDuration  prometheus.Histogram
	SnapshotSizeBytes prometheus.Gauge
	SnapshotLastSeq   prometheus.Gauge

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		// Engine
		OpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_ops_applied_total",
			Help: "Operations successfully applied",
		}, []string{"method"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_ops_rejected_total",
			Help: "Operations rejected, by taxonomy code",
		}, []string{"method", "code"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "router_op_duration_seconds",
			Help:    "Time to apply a single operation",
			Buckets: latencyBuckets,
		}, []string{"method"}),

		Sequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "router_sequence",
			Help: "Current global sequence number",
		}),

		// Domain
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_trades_executed_total",
			Help: "Market trades executed",
		}, []string{"asset_in", "asset_out"}),

		FeesCollected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_fees_collected_total",
			Help: "Fee units collected, by asset",
		}, []string{"asset"}),

		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_orders_created_total",
			Help: "Limit orders created",
		}),

		OrdersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_orders_cancelled_total",
			Help: "Limit orders cancelled",
		}),

		TransfersEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_transfers_emitted_total",
			Help: "Outbound transfer instructions emitted",
		}, []string{"method"}),

		// Channels & backpressure
		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "router_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "router_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "router_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_publish_drops_total",
			Help: "Results dropped due to full publish channel",
		}),

		PersistBackpressure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_persist_backpressure_total",
			Help: "Times the engine blocked on the persist channel",
		}),

		// Ingestion
		CommandsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_commands_received_total",
			Help: "Commands pulled from NATS",
		}, []string{"command_type"}),

		CommandsAcked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_commands_acked_total",
			Help: "Commands acked (applied or finally rejected)",
		}, []string{"outcome"}),

		CommandsNaked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_commands_naked_total",
			Help: "Commands naked for redelivery",
		}),

		ParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_parse_failures_total",
			Help: "Malformed command payloads",
		}),

		// Persistence
		PersistOpsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_persist_ops_written_total",
			Help: "Operations written to Postgres",
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "router_persist_batch_size",
			Help:    "Operations per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "router_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistRetry: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_persist_retry_total",
			Help: "Persistence retries",
		}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "router_persist_last_sequence",
			Help: "Last persisted sequence",
		}),

		// Snapshot
		SnapshotTaken: promauto.NewCounter(prometheus.CounterOpts{
			Name: "router_snapshot_taken_total",
			Help: "Snapshots created",
		}),

		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "router_snapshot_duration_seconds",
			Help:    "Snapshot creation time",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		}),

		SnapshotSizeBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "router_snapshot_size_bytes",
			Help: "Last snapshot size",
		}),

		SnapshotLastSeq: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "router_snapshot_last_sequence",
			Help: "Sequence of last snapshot",
		}),

		// Query API
		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_query_requests_total",
			Help: "Query requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "router_query_duration_seconds",
			Help:    "Query latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),

		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "router_query_errors_total",
			Help: "Query errors",
		}, []string{"endpoint", "code"}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}
