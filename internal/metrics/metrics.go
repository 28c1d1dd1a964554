package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/velalab/vela/internal/logger"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	candlesFetched   *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	signalsGenerated *prometheus.CounterVec
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	tradesSimulated  *prometheus.CounterVec
	archiveWrites    *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{Registry: reg}

	r.candlesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_candles_fetched_total",
			Help: "Total number of candles fetched from data providers",
		},
		[]string{"provider", "symbol"},
	)
	r.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vela_fetch_duration_seconds",
			Help:    "Candle fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_signals_generated_total",
			Help: "Total number of entry/exit signals generated",
		},
		[]string{"variant", "action"},
	)
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_backtests_total",
			Help: "Total number of backtests",
		},
		[]string{"variant", "status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vela_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
	r.tradesSimulated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_trades_simulated_total",
			Help: "Total number of simulated trades by exit reason",
		},
		[]string{"variant", "reason"},
	)
	r.archiveWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_archive_writes_total",
			Help: "Total number of artifact archive writes",
		},
		[]string{"backend", "status"},
	)

	reg.MustRegister(r.candlesFetched)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.tradesSimulated)
	reg.MustRegister(r.archiveWrites)

	return r
}

// RecordFetch records a provider fetch.
func (r *Registry) RecordFetch(provider, symbol string, candles int, duration float64) {
	r.candlesFetched.WithLabelValues(provider, symbol).Add(float64(candles))
	r.fetchDuration.WithLabelValues(provider).Observe(duration)
}

// RecordSignals records generated signals for a strategy variant.
func (r *Registry) RecordSignals(variant string, buys, sells int) {
	r.signalsGenerated.WithLabelValues(variant, "buy").Add(float64(buys))
	r.signalsGenerated.WithLabelValues(variant, "sell").Add(float64(sells))
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(variant, status string, duration float64) {
	r.backtestsTotal.WithLabelValues(variant, status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordTrade records a simulated trade by exit reason.
func (r *Registry) RecordTrade(variant, reason string) {
	r.tradesSimulated.WithLabelValues(variant, reason).Inc()
}

// RecordArchiveWrite records an artifact archive write.
func (r *Registry) RecordArchiveWrite(backend, status string) {
	r.archiveWrites.WithLabelValues(backend, status).Inc()
}

// Serve exposes the registry on addr under /metrics until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
