// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	DepositsTotal     prometheus.Counter
	WithdrawalsTotal  prometheus.Counter
	RejectionsTotal   *prometheus.CounterVec
	TotalDepositedUSD prometheus.Gauge
	OperationDuration *prometheus.HistogramVec

	// Registry metrics
	AssetsListed    prometheus.Counter
	AssetsDelisted  prometheus.Counter
	SupportedAssets prometheus.Gauge

	// Oracle metrics
	PriceFetchDuration *prometheus.HistogramVec
	PriceFetchErrors   *prometheus.CounterVec

	// Transfer metrics
	TransferDuration *prometheus.HistogramVec
	TransferFailures *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "custody_ledger"
	}

	return &Metrics{
		DepositsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "deposits_total",
			Help:      "Total number of committed deposits",
		}),
		WithdrawalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "withdrawals_total",
			Help:      "Total number of committed withdrawals",
		}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Total number of rejected operations by reason",
		}, []string{"operation", "reason"}),
		TotalDepositedUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "total_deposited_usd",
			Help:      "Current canonical value held by the bank, in micro-USD",
		}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		AssetsListed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "assets_listed_total",
			Help:      "Total number of assets listed",
		}),
		AssetsDelisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "assets_delisted_total",
			Help:      "Total number of assets delisted",
		}),
		SupportedAssets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "supported_assets",
			Help:      "Current number of supported assets",
		}),

		PriceFetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "price_fetch_duration_seconds",
			Help:      "Duration of price feed fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"feed"}),
		PriceFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "price_fetch_errors_total",
			Help:      "Total number of price fetch failures by feed",
		}, []string{"feed"}),

		TransferDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "duration_seconds",
			Help:      "Duration of custody movements",
			Buckets:   prometheus.DefBuckets,
		}, []string{"direction"}),
		TransferFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "failures_total",
			Help:      "Total number of failed custody movements by direction",
		}, []string{"direction"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDeposit records a committed deposit and the new canonical total.
func RecordDeposit(totalDepositedUSD uint64, durationSeconds float64) {
	DefaultMetrics.DepositsTotal.Inc()
	DefaultMetrics.TotalDepositedUSD.Set(float64(totalDepositedUSD))
	DefaultMetrics.OperationDuration.WithLabelValues("deposit").Observe(durationSeconds)
}

// RecordWithdrawal records a committed withdrawal and the new canonical total.
func RecordWithdrawal(totalDepositedUSD uint64, durationSeconds float64) {
	DefaultMetrics.WithdrawalsTotal.Inc()
	DefaultMetrics.TotalDepositedUSD.Set(float64(totalDepositedUSD))
	DefaultMetrics.OperationDuration.WithLabelValues("withdrawal").Observe(durationSeconds)
}

// RecordRejection records a rejected operation.
func RecordRejection(operation, reason string) {
	DefaultMetrics.RejectionsTotal.WithLabelValues(operation, reason).Inc()
}

// RecordAssetListed records an asset listing.
func RecordAssetListed(supportedCount int) {
	DefaultMetrics.AssetsListed.Inc()
	DefaultMetrics.SupportedAssets.Set(float64(supportedCount))
}

// RecordAssetDelisted records an asset delisting.
func RecordAssetDelisted(supportedCount int) {
	DefaultMetrics.AssetsDelisted.Inc()
	DefaultMetrics.SupportedAssets.Set(float64(supportedCount))
}

// RecordPriceFetch records a price fetch attempt.
func RecordPriceFetch(feed string, seconds float64, err error) {
	DefaultMetrics.PriceFetchDuration.WithLabelValues(feed).Observe(seconds)
	if err != nil {
		DefaultMetrics.PriceFetchErrors.WithLabelValues(feed).Inc()
	}
}

// RecordTransfer records a custody movement attempt.
func RecordTransfer(direction string, seconds float64, err error) {
	DefaultMetrics.TransferDuration.WithLabelValues(direction).Observe(seconds)
	if err != nil {
		DefaultMetrics.TransferFailures.WithLabelValues(direction).Inc()
	}
}

// RecordDBQuery records database query duration and errors.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
