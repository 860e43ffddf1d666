// Package metrics exposes list screen activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

const namespace = "gatewayshield"

// Recorder implements listing.Observer and counts exports.
type Recorder struct {
	fetches   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inflight  *prometheus.GaugeVec
	discarded *prometheus.CounterVec
	exports   *prometheus.CounterVec
	rows      *prometheus.CounterVec
}

var _ listing.Observer = (*Recorder)(nil)

// New registers the collectors with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_fetches_total",
			Help:      "List fetches by screen and outcome.",
		}, []string{"screen", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_fetch_duration_seconds",
			Help:      "Duration of list fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"screen"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "list_fetches_in_flight",
			Help:      "List fetches currently running.",
		}, []string{"screen"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_responses_discarded_total",
			Help:      "Responses dropped because a newer request superseded them.",
		}, []string{"screen"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export files written.",
		}, []string{"screen", "format"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_rows_total",
			Help:      "Rows written to export files.",
		}, []string{"screen", "format"}),
	}

	for _, c := range []prometheus.Collector{r.fetches, r.duration, r.inflight, r.discarded, r.exports, r.rows} {
		if err := reg.Register(c); err != nil {
			return nil, ewrap.Wrap(err, "registering metrics collector")
		}
	}

	return r, nil
}

// FetchStarted implements listing.Observer.
func (r *Recorder) FetchStarted(screen string) {
	r.inflight.WithLabelValues(screen).Inc()
}

// FetchCompleted implements listing.Observer. Discarded fetches never
// complete, so FetchStarted is balanced by either call.
func (r *Recorder) FetchCompleted(screen string, elapsed time.Duration, err error) {
	r.inflight.WithLabelValues(screen).Dec()
	r.duration.WithLabelValues(screen).Observe(elapsed.Seconds())
	r.fetches.WithLabelValues(screen, Outcome(err)).Inc()
}

// ResponseDiscarded implements listing.Observer.
func (r *Recorder) ResponseDiscarded(screen string) {
	r.inflight.WithLabelValues(screen).Dec()
	r.discarded.WithLabelValues(screen).Inc()
}

// ExportWritten counts a saved export.
func (r *Recorder) ExportWritten(screen, format string, rows int) {
	r.exports.WithLabelValues(screen, format).Inc()
	r.rows.WithLabelValues(screen, format).Add(float64(rows))
}

// Outcome is the outcome label for a fetch error.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}

	if errors.Is(err, context.Canceled) {
		return api.KindCanceled.String()
	}

	return api.KindOf(err).String()
}

// Router serves /metrics from g and a /healthz probe.
func Router(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// Serve runs the metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ewrap.Wrap(err, "listening for metrics").WithMetadata("addr", addr)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	log.WithFields(logger.F("addr", ln.Addr().String())).Info("metrics endpoint listening")

	select {
	case err := <-errCh:
		return ewrap.Wrap(err, "serving metrics")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return ewrap.Wrap(err, "shutting down metrics endpoint")
	}

	return nil
}
