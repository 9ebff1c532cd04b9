package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const name = "github.com/bridgelabs/lane-relayer"

// Exporter selection follows the SDK environment variables
// (https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/#exporter-selection).
// Comma-separated values are supported; metrics default to the prometheus
// exporter because the relay instruments are the primary operational
// signal, traces and logs default to none.
const (
	tracesExporterKey      = "OTEL_TRACES_EXPORTER"
	metricsExporterKey     = "OTEL_METRICS_EXPORTER"
	logsExporterKey        = "OTEL_LOGS_EXPORTER"
	defaultTracesExporter  = "none"
	defaultMetricsExporter = "prometheus"
	defaultLogsExporter    = "none"

	prometheusHostKey     = "OTEL_EXPORTER_PROMETHEUS_HOST"
	prometheusPortKey     = "OTEL_EXPORTER_PROMETHEUS_PORT"
	defaultPrometheusHost = "localhost"
	defaultPrometheusPort = "9464"

	// The Go SDK has no environment variable for propagator selection,
	// so it is handled here.
	propagatorsKey     = "OTEL_PROPAGATORS"
	defaultPropagators = "tracecontext,baggage"

	// Console exporter destinations, by analogy with the OTLP exporter
	// variables (https://opentelemetry.io/docs/specs/otel/protocol/exporter/).
	consoleTracesWriterKey  = "OTEL_EXPORTER_CONSOLE_TRACES_WRITER"
	consoleLogsWriterKey    = "OTEL_EXPORTER_CONSOLE_LOGS_WRITER"
	consoleMetricsWriterKey = "OTEL_EXPORTER_CONSOLE_METRICS_WRITER"
	defaultConsoleWriter    = "stdout"
)

// SetupOTelSDK bootstraps the OpenTelemetry pipeline from the exporter
// selection environment variables and installs the global providers.
// Unknown selector values are reported as errors rather than skipped with
// a warning, so misconfigurations do not silently disable telemetry.
// Callers must invoke the returned shutdown function on exit.
func SetupOTelSDK(ctx context.Context) (func(context.Context) error, error) {
	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	fail := func(err error) (func(context.Context) error, error) {
		return nil, errors.Join(err, shutdown(ctx))
	}

	prop, err := newPropagator()
	if err != nil {
		return fail(err)
	}
	otel.SetTextMapPropagator(prop)

	tracerProvider, err := newTracerProvider(ctx)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMeterProvider(ctx)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	loggerProvider, err := newLoggerProvider(ctx)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return shutdown, nil
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// selections splits the comma-separated selector held by the given
// environment variable.
func selections(key, defaultValue string) []string {
	return strings.Split(envOr(key, defaultValue), ",")
}

func consoleWriter(key string) (io.Writer, error) {
	switch v := envOr(key, defaultConsoleWriter); v {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("unknown console writer %q in %s", v, key)
	}
}

func newPropagator() (propagation.TextMapPropagator, error) {
	var propagators []propagation.TextMapPropagator
	for _, propagator := range selections(propagatorsKey, defaultPropagators) {
		switch propagator {
		case "tracecontext":
			propagators = append(propagators, propagation.TraceContext{})
		case "baggage":
			propagators = append(propagators, propagation.Baggage{})
		default:
			return nil, fmt.Errorf("unsupported propagator %q in %s", propagator, propagatorsKey)
		}
	}
	return propagation.NewCompositeTextMapPropagator(propagators...), nil
}

func newTracerProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	opts, err := signalOptions(tracesExporterKey, defaultTracesExporter,
		func(kind string) (sdktrace.TracerProviderOption, error) {
			exp, err := newTraceExporter(ctx, kind)
			if err != nil {
				return nil, err
			}
			return sdktrace.WithBatcher(exp), nil
		})
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context) (*sdkmetric.MeterProvider, error) {
	opts, err := signalOptions(metricsExporterKey, defaultMetricsExporter,
		func(kind string) (sdkmetric.Option, error) {
			reader, err := newMetricReader(ctx, kind)
			if err != nil {
				return nil, err
			}
			return sdkmetric.WithReader(reader), nil
		})
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context) (*sdklog.LoggerProvider, error) {
	opts, err := signalOptions(logsExporterKey, defaultLogsExporter,
		func(kind string) (sdklog.LoggerProviderOption, error) {
			exp, err := newLogExporter(ctx, kind)
			if err != nil {
				return nil, err
			}
			return sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)), nil
		})
	if err != nil {
		return nil, err
	}
	return sdklog.NewLoggerProvider(opts...), nil
}

// signalOptions maps each exporter kind selected for a signal to a provider
// option. The "none" kind contributes nothing; an unrecognized kind is an
// error naming the offending environment variable.
func signalOptions[O any](key, defaultValue string, build func(kind string) (O, error)) ([]O, error) {
	var opts []O
	for _, kind := range selections(key, defaultValue) {
		if kind == "none" {
			continue
		}
		opt, err := build(kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

var errUnsupportedExporter = errors.New("unsupported exporter")

func newTraceExporter(ctx context.Context, kind string) (sdktrace.SpanExporter, error) {
	switch kind {
	case "otlp":
		return otlptracegrpc.New(ctx)
	case "console":
		writer, err := consoleWriter(consoleTracesWriterKey)
		if err != nil {
			return nil, err
		}
		return stdouttrace.New(stdouttrace.WithWriter(writer))
	default:
		return nil, fmt.Errorf("%w %q", errUnsupportedExporter, kind)
	}
}

func newMetricReader(ctx context.Context, kind string) (sdkmetric.Reader, error) {
	switch kind {
	case "otlp":
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	case "console":
		writer, err := consoleWriter(consoleMetricsWriterKey)
		if err != nil {
			return nil, err
		}
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(writer))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	case "prometheus":
		addr := envOr(prometheusHostKey, defaultPrometheusHost) + ":" + envOr(prometheusPortKey, defaultPrometheusPort)
		return NewPrometheusExporter(addr)
	default:
		return nil, fmt.Errorf("%w %q", errUnsupportedExporter, kind)
	}
}

func newLogExporter(ctx context.Context, kind string) (sdklog.Exporter, error) {
	switch kind {
	case "otlp":
		return otlploggrpc.New(ctx)
	case "console":
		writer, err := consoleWriter(consoleLogsWriterKey)
		if err != nil {
			return nil, err
		}
		return stdoutlog.New(stdoutlog.WithWriter(writer))
	default:
		return nil, fmt.Errorf("%w %q", errUnsupportedExporter, kind)
	}
}
