// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const endpointEnvVar = "LAUNCHER_OTEL_ENDPOINT"

var (
	setupMu    sync.Mutex
	setupDone  bool
	defaultOne sync.Once
)

// DefaultSetup installs no-op-by-default tracing and metrics using the
// environment for configuration. It is safe to call exactly once, typically
// from cmd/launcherd's main before the supervisor starts.
func DefaultSetup() {
	defaultOne.Do(func() {
		if _, err := Setup(context.Background(), WithServiceName("launcher")); err != nil {
			otel.SetTracerProvider(sdktrace.NewTracerProvider())
			otel.SetMeterProvider(metric.NewMeterProvider())
		}
	})
}

// Config controls what Setup wires up.
type Config struct {
	serviceName string
	endpoint    string
	insecure    bool
	timeout     time.Duration
}

// Option configures Setup.
type Option func(*Config)

// WithServiceName sets the resource service.name attribute reported on
// every span and metric.
func WithServiceName(name string) Option {
	return func(c *Config) { c.serviceName = name }
}

// WithOTLPEndpoint overrides the OTLP/HTTP collector endpoint (host:port).
// When unset, Setup reads LAUNCHER_OTEL_ENDPOINT; when neither is set,
// exporters are omitted and the SDK providers simply collect without export.
func WithOTLPEndpoint(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.endpoint = endpoint
		c.insecure = insecure
	}
}

// Setup installs a TracerProvider and MeterProvider as the OpenTelemetry
// globals and returns a shutdown func to flush and release them. Calling it
// twice without an intervening shutdown returns ErrAlreadySetup.
func Setup(ctx context.Context, opts ...Option) (func(context.Context) error, error) {
	setupMu.Lock()
	defer setupMu.Unlock()
	if setupDone {
		return func(context.Context) error { return nil }, ErrAlreadySetup
	}

	cfg := &Config{
		serviceName: "launcher",
		endpoint:    os.Getenv(endpointEnvVar),
		insecure:    true,
		timeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExporterCreation, err)
	}

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	var metricOpts []metric.Option
	metricOpts = append(metricOpts, metric.WithResource(res))

	if cfg.endpoint != "" {
		traceExporterOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.endpoint),
			otlptracehttp.WithTimeout(cfg.timeout),
		}
		if cfg.insecure {
			traceExporterOpts = append(traceExporterOpts, otlptracehttp.WithInsecure())
		}
		traceExporter, err := otlptracehttp.New(ctx, traceExporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExporterCreation, err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExporter))
	}

	tp := sdktrace.NewTracerProvider(traceOpts...)
	mp := metric.NewMeterProvider(metricOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	setupDone = true

	return func(shutdownCtx context.Context) error {
		setupMu.Lock()
		defer setupMu.Unlock()
		setupDone = false
		var errs []error
		if err := tp.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("telemetry shutdown: %v", errs)
		}
		return nil
	}, nil
}
