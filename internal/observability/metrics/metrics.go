package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fleet_"

	resultSuccess = "success"
	resultError   = "error"

	cacheOutcomeHit   = "hit"
	cacheOutcomeMiss  = "miss"
	cacheOutcomeError = "error"
)

var (
	registerOnce sync.Once

	loginTotal   *prometheus.CounterVec
	loginLatency *prometheus.HistogramVec

	captchaSuspectTotal prometheus.Counter
	keepaliveFailures   prometheus.Counter

	harvestTotal     *prometheus.CounterVec
	harvestLatency   *prometheus.HistogramVec
	plantFetchErrors *prometheus.CounterVec

	aggregateTotal   *prometheus.CounterVec
	aggregateLatency *prometheus.HistogramVec

	cacheRequests *prometheus.CounterVec

	archiveTotal *prometheus.CounterVec

	alarmUnparsedTotal prometheus.Counter
)

// Init registers observability metrics and, when a DB is configured, a
// connection-pool gauge.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		loginTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_total",
				Help: "Total vendor logins by result",
			},
			[]string{"result"},
		)
		loginLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "login_latency_seconds",
				Help:    "Vendor login latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		captchaSuspectTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_captcha_suspect_total",
				Help: "Logins slow enough to suggest captcha solving",
			},
		)
		keepaliveFailures = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "keepalive_failures_total",
				Help: "Non-fatal session keepalive failures",
			},
		)

		harvestTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "harvest_total",
				Help: "Total account harvests by result",
			},
			[]string{"result"},
		)
		harvestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "harvest_latency_seconds",
				Help:    "Account harvest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		plantFetchErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "plant_fetch_errors_total",
				Help: "Per-plant fetch failures by account",
			},
			[]string{"account"},
		)

		aggregateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregate_total",
				Help: "Total fleet aggregations by result",
			},
			[]string{"result"},
		)
		aggregateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aggregate_latency_seconds",
				Help:    "Fleet aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		cacheRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_requests_total",
				Help: "Snapshot cache requests by outcome",
			},
			[]string{"outcome"},
		)

		archiveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_archive_total",
				Help: "Snapshot archive writes by result",
			},
			[]string{"result"},
		)

		alarmUnparsedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_payload_unparsed_total",
				Help: "Alarm payloads that matched no known shape",
			},
		)

		prometheus.MustRegister(
			loginTotal,
			loginLatency,
			captchaSuspectTotal,
			keepaliveFailures,
			harvestTotal,
			harvestLatency,
			plantFetchErrors,
			aggregateTotal,
			aggregateLatency,
			cacheRequests,
			archiveTotal,
			alarmUnparsedTotal,
		)

		if db != nil {
			registerDBStats(db, logger)
		}
	})
}

func registerDBStats(db *sql.DB, logger *log.Logger) {
	gauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "db_open_connections",
			Help: "Open connections in the archive DB pool",
		},
		func() float64 { return float64(db.Stats().OpenConnections) },
	)
	if err := prometheus.Register(gauge); err != nil && logger != nil {
		logger.Printf("metrics: db gauge register error: %v", err)
	}
}

// ObserveLogin records a vendor login attempt.
func ObserveLogin(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if loginTotal != nil {
		loginTotal.WithLabelValues(result).Inc()
	}
	if loginLatency != nil {
		loginLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncCaptchaSuspect counts a login slow enough to suggest captcha solving.
func IncCaptchaSuspect() {
	if captchaSuspectTotal != nil {
		captchaSuspectTotal.Inc()
	}
}

// IncKeepaliveFailure counts a non-fatal keepalive failure.
func IncKeepaliveFailure() {
	if keepaliveFailures != nil {
		keepaliveFailures.Inc()
	}
}

// ObserveHarvest records one account harvest.
func ObserveHarvest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if harvestTotal != nil {
		harvestTotal.WithLabelValues(result).Inc()
	}
	if harvestLatency != nil {
		harvestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncPlantFetchError counts an isolated per-plant fetch failure.
func IncPlantFetchError(account string) {
	if account == "" {
		account = "unknown"
	}
	if plantFetchErrors != nil {
		plantFetchErrors.WithLabelValues(account).Inc()
	}
}

// ObserveAggregate records one fleet aggregation.
func ObserveAggregate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if aggregateTotal != nil {
		aggregateTotal.WithLabelValues(result).Inc()
	}
	if aggregateLatency != nil {
		aggregateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncCacheRequest counts a snapshot cache request by outcome.
func IncCacheRequest(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if cacheRequests != nil {
		cacheRequests.WithLabelValues(outcome).Inc()
	}
}

// IncSnapshotArchive counts an archive write.
func IncSnapshotArchive(result string) {
	if result == "" {
		result = resultSuccess
	}
	if archiveTotal != nil {
		archiveTotal.WithLabelValues(result).Inc()
	}
}

// IncAlarmUnparsed counts an alarm payload that matched no known shape.
func IncAlarmUnparsed() {
	if alarmUnparsedTotal != nil {
		alarmUnparsedTotal.Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	CacheHit   = cacheOutcomeHit
	CacheMiss  = cacheOutcomeMiss
	CacheError = cacheOutcomeError
)
