package telemetry

import (
	"fmt"
	"net/http"

	"github.com/bridgelabs/lane-relayer/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
)

const (
	namespaceRoot = "lane_relayer"
)

var (
	BestSourceNonceGauge      *Int64SyncGauge
	BestTargetNonceGauge      *Int64SyncGauge
	BacklogSizeGauge          *Int64SyncGauge
	SubmittedNonceCounter     api.Int64Counter
	StalledSubmissionsCounter api.Int64Counter

	meter = otel.Meter(name)
)

func InitializeMetrics() error {
	var err error

	// create the instrument "lane_relayer.best_source_nonce"
	name := fmt.Sprintf("%s.best_source_nonce", namespaceRoot)
	if BestSourceNonceGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("latest nonce generated at the source side of the race"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "lane_relayer.best_target_nonce"
	name = fmt.Sprintf("%s.best_target_nonce", namespaceRoot)
	if BestTargetNonceGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("latest nonce known to the target side of the race"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "lane_relayer.backlog_size"
	name = fmt.Sprintf("%s.backlog_size", namespaceRoot)
	if BacklogSizeGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("number of nonces generated at the source but not yet absorbed by the target"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "lane_relayer.submitted_nonces"
	name = fmt.Sprintf("%s.submitted_nonces", namespaceRoot)
	if SubmittedNonceCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of nonces submitted in proof transactions"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "lane_relayer.stalled_submissions"
	name = fmt.Sprintf("%s.stalled_submissions", namespaceRoot)
	if StalledSubmissionsCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of submitted ranges cleared by the stall timeout"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	return nil
}

func NewPrometheusExporter(addr string) (*prometheus.Exporter, error) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger := log.GetLogger().WithModule("telemetry")
			logger.Fatal("Prometheus exporter server failed", err)
		}
	}()

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create the Prometheus Exporter: %v", err)
	}

	return exporter, nil
}
