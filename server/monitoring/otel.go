// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package monitoring

import (
	"context"
	"strings"
	"sync"

	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/log"

	"github.com/go-kit/log/level"
	b3prop "go.opentelemetry.io/contrib/propagators/b3"
	jaegerprop "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Telemetry provides lifecycle management for OpenTelemetry tracing.
type Telemetry struct {
	started  bool
	tp       *sdktrace.TracerProvider
	mu       sync.Mutex
	cfg      *config.TracingSection
	instance string
	sensor   string
}

// NewTelemetry returns a Telemetry for the tracing section of cfg.
func NewTelemetry(cfg *config.File) *Telemetry {
	telemetry := &Telemetry{cfg: cfg.GetTracing(), instance: cfg.GetServer().GetInstanceName()}

	// Only an explicit sensor name is a candidate for the service name; the default would shadow instance_name.
	if sensor := cfg.GetHoneypot().GetSensorName(); sensor != definitions.DefaultSensorName {
		telemetry.sensor = sensor
	}

	return telemetry
}

// IsEnabled reports whether tracing is configured.
func (t *Telemetry) IsEnabled() bool {
	return t.cfg.IsEnabled()
}

// Start initializes OpenTelemetry according to configuration. Safe to call multiple times.
func (t *Telemetry) Start(ctx context.Context, appVersion string) {
	cfg := t.cfg
	if !cfg.IsEnabled() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return
	}

	svcName := ResolveServiceName(cfg.GetServiceName(), t.sensor, t.instance)

	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(svcName),
		semconv.ServiceVersionKey.String(appVersion),
		attribute.String("instance", t.instance),
		attribute.String(definitions.LogKeySensor, t.sensor),
	))

	// Sampler
	ratio := cfg.GetSamplerRatio()
	if ratio < 0 {
		ratio = 0
	}

	if ratio > 1 {
		ratio = 1
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))

	var (
		exp sdktrace.SpanExporter
		err error
	)

	if strings.EqualFold(cfg.GetExporter(), "otlphttp") {
		var opts []otlptracehttp.Option
		if cfg.GetEndpoint() != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.GetEndpoint()))
		}

		if cfg.IsInsecure() {
			opts = append(opts, otlptracehttp.WithInsecure())
		}

		exp, err = otlptracehttp.New(ctx, opts...)
		if err != nil {
			level.Warn(log.Logger).Log(definitions.LogKeyMsg, "Failed to initialize OTLP/HTTP exporter", definitions.LogKeyError, err)
		}
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
	}

	if exp != nil {
		// WithBatcher wraps exporter with a BatchSpanProcessor
		tpOpts = append(tpOpts, sdktrace.WithBatcher(newLoggingExporter(exp, cfg.IsLogExportResultsEnabled())))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTextMapPropagator(buildPropagators(cfg.GetPropagators()))
	otel.SetTracerProvider(tp)

	t.tp = tp
	t.started = true

	level.Info(log.Logger).Log(definitions.LogKeyMsg, "OpenTelemetry tracing enabled", "service", svcName, "exporter", cfg.GetExporter())
}

// loggingExporter decorates a SpanExporter to log export outcomes.
// When logSuccess is true, successful batch exports are logged at INFO level.
// Failures are always logged at WARN.
type loggingExporter struct {
	delegate   sdktrace.SpanExporter
	logSuccess bool
}

func newLoggingExporter(delegate sdktrace.SpanExporter, logSuccess bool) sdktrace.SpanExporter {
	return &loggingExporter{delegate: delegate, logSuccess: logSuccess}
}

// ExportSpans forwards to the underlying exporter and logs the result.
func (l *loggingExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	err := l.delegate.ExportSpans(ctx, spans)
	if err != nil {
		level.Warn(log.Logger).Log(
			definitions.LogKeyMsg, "OpenTelemetry trace export failed",
			definitions.LogKeyError, err,
			"span_count", len(spans),
		)

		return err
	}

	if l.logSuccess {
		level.Info(log.Logger).Log(
			definitions.LogKeyMsg, "OpenTelemetry traces exported",
			"span_count", len(spans),
		)
	}

	return nil
}

// Shutdown delegates shutdown and logs the outcome.
func (l *loggingExporter) Shutdown(ctx context.Context) error {
	err := l.delegate.Shutdown(ctx)
	if err != nil {
		level.Warn(log.Logger).Log(definitions.LogKeyMsg, "OpenTelemetry exporter shutdown failed", definitions.LogKeyError, err)

		return err
	}

	if l.logSuccess {
		level.Info(log.Logger).Log(definitions.LogKeyMsg, "OpenTelemetry exporter shutdown complete")
	}

	return nil
}

// Shutdown flushes and closes the Telemetry provider.
func (t *Telemetry) Shutdown(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || t.tp == nil {
		return
	}

	_ = t.tp.Shutdown(ctx)

	t.started = false
	t.tp = nil
}

func buildPropagators(names []string) propagation.TextMapPropagator {
	if len(names) == 0 {
		return propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}

	var list []propagation.TextMapPropagator
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "tracecontext":
			list = append(list, propagation.TraceContext{})
		case "baggage":
			list = append(list, propagation.Baggage{})
		case "b3":
			list = append(list, b3prop.New(b3prop.WithInjectEncoding(b3prop.B3SingleHeader)))
		case "b3multi":
			list = append(list, b3prop.New(b3prop.WithInjectEncoding(b3prop.B3MultipleHeader)))
		case "jaeger":
			list = append(list, jaegerprop.Jaeger{})
		}
	}

	if len(list) == 0 {
		list = append(list, propagation.TraceContext{}, propagation.Baggage{})
	}

	return propagation.NewCompositeTextMapPropagator(list...)
}
