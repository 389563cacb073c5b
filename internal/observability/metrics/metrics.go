package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (o Outcome) String() string {
	return string(o)
}

var (
	once                           sync.Once
	metricsRouter                  *chi.Mux
	claimDurationHistogram         *prometheus.HistogramVec
	claimsTotalCounter             *prometheus.CounterVec
	disbursementErrorCounter       prometheus.Counter
	commitFailureCounter           prometheus.Counter
	inflightClaimsGauge            prometheus.Gauge
	settlementAmountHistogram      prometheus.Histogram
	clientRequestDurationHistogram *prometheus.HistogramVec
	pollerDurationHistogram        *prometheus.HistogramVec
	queuePublishErrorCounter       prometheus.Counter
	dbLatency                      *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and registers the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	claimDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claim_duration_seconds",
			Help:    "Histogram of end-to-end claim pipeline durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"outcome"},
	)

	claimsTotalCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_total",
			Help: "Total claim attempts partitioned by terminal outcome.",
		},
		[]string{"outcome"},
	)

	disbursementErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "disbursement_errors_total",
			Help: "Total failed external disbursement attempts.",
		},
	)

	commitFailureCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "claim_commit_failures_total",
			Help: "Ledger commit failures after a confirmed disbursement; each one requires operator reconciliation.",
		},
	)

	inflightClaimsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inflight_claims",
			Help: "Number of claims currently between eligibility check and ledger commit.",
		},
	)

	settlementAmountHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reward_settlement_amount",
			Help:    "Histogram of per-settlement reward totals.",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100},
		},
	)

	// client requests are the ones sending to other services
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller run durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"poller", "status"},
	)

	queuePublishErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_publish_errors_total",
			Help: "Total failed event publishes to the message queue.",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_latency_seconds",
			Help:    "Histogram of db operation latencies in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		claimDurationHistogram,
		claimsTotalCounter,
		disbursementErrorCounter,
		commitFailureCounter,
		inflightClaimsGauge,
		settlementAmountHistogram,
		clientRequestDurationHistogram,
		pollerDurationHistogram,
		queuePublishErrorCounter,
		dbLatency,
	)
}

func ObserveClaimDuration(outcome Outcome, duration time.Duration) {
	if claimDurationHistogram == nil {
		return
	}
	claimDurationHistogram.WithLabelValues(outcome.String()).Observe(duration.Seconds())
}

func IncClaimsTotal(errorCode string) {
	if claimsTotalCounter == nil {
		return
	}
	claimsTotalCounter.WithLabelValues(errorCode).Inc()
}

func IncDisbursementError() {
	if disbursementErrorCounter == nil {
		return
	}
	disbursementErrorCounter.Inc()
}

func IncCommitFailure() {
	if commitFailureCounter == nil {
		return
	}
	commitFailureCounter.Inc()
}

func IncInflightClaims() {
	if inflightClaimsGauge == nil {
		return
	}
	inflightClaimsGauge.Inc()
}

func DecInflightClaims() {
	if inflightClaimsGauge == nil {
		return
	}
	inflightClaimsGauge.Dec()
}

func ObserveSettlementAmount(amount float64) {
	if settlementAmountHistogram == nil {
		return
	}
	settlementAmountHistogram.Observe(amount)
}

func ObserveClientRequestDuration(baseURL, method, path string, statusCode int, duration time.Duration) {
	if clientRequestDurationHistogram == nil {
		return
	}
	clientRequestDurationHistogram.WithLabelValues(
		baseURL, method, path, strconv.Itoa(statusCode),
	).Observe(duration.Seconds())
}

func IncQueuePublishError() {
	if queuePublishErrorCounter == nil {
		return
	}
	queuePublishErrorCounter.Inc()
}

func ObserveDbLatency(method string, duration time.Duration, err error) {
	if dbLatency == nil {
		return
	}
	status := Success
	if err != nil {
		status = Error
	}
	dbLatency.WithLabelValues(method, status.String()).Observe(duration.Seconds())
}
