// Copyright 2026 The Soli Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"soli.dev/runtime/router"
)

// Recorder observes the dispatch lifecycle. OnRequestStart runs
// before routing and may enrich the context; the opaque state it
// returns is handed back to OnRequestEnd. The pattern argument is the
// matched route pattern, or a "_"-prefixed sentinel for misses.
type Recorder interface {
	OnRequestStart(ctx context.Context, req router.Request) (context.Context, any)
	OnRequestEnd(ctx context.Context, state any, pattern string, status int)
}

// otelRecorder records request counts, durations, and spans through
// OpenTelemetry. Metric labels use the route pattern rather than the
// raw path to keep cardinality bounded.
type otelRecorder struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

type recorderState struct {
	span  trace.Span
	start time.Time
}

// RecorderOption configures NewRecorder.
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	registerer     promclient.Registerer
}

// WithMeterProvider sets the OpenTelemetry meter provider. It takes
// precedence over WithPrometheusRegisterer.
func WithMeterProvider(mp metric.MeterProvider) RecorderOption {
	return func(c *recorderConfig) {
		c.meterProvider = mp
	}
}

// WithTracerProvider sets the tracer provider. Without it spans are
// no-ops.
func WithTracerProvider(tp trace.TracerProvider) RecorderOption {
	return func(c *recorderConfig) {
		c.tracerProvider = tp
	}
}

// WithPrometheusRegisterer builds a meter provider backed by a
// Prometheus exporter registered on reg. Pair with MetricsHandler to
// expose the scrape endpoint.
func WithPrometheusRegisterer(reg promclient.Registerer) RecorderOption {
	return func(c *recorderConfig) {
		c.registerer = reg
	}
}

// NewRecorder builds the standard OpenTelemetry recorder.
func NewRecorder(opts ...RecorderOption) (Recorder, error) {
	var cfg recorderConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.meterProvider == nil && cfg.registerer != nil {
		exporter, err := otelprom.New(otelprom.WithRegisterer(cfg.registerer))
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		cfg.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = sdkmetric.NewMeterProvider()
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = noop.NewTracerProvider()
	}

	meter := cfg.meterProvider.Meter("soli.dev/runtime/dispatch")

	requests, err := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Dispatched requests"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		tracer:   cfg.tracerProvider.Tracer("soli.dev/runtime/dispatch"),
		requests: requests,
		duration: duration,
	}, nil
}

// MetricsHandler returns the scrape endpoint for a Prometheus
// registry used with WithPrometheusRegisterer.
func MetricsHandler(reg *promclient.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (o *otelRecorder) OnRequestStart(ctx context.Context, req router.Request) (context.Context, any) {
	state := &recorderState{start: time.Now()}
	ctx, state.span = o.tracer.Start(ctx, req.Method+" "+req.Path)
	return ctx, state
}

func (o *otelRecorder) OnRequestEnd(ctx context.Context, state any, pattern string, status int) {
	s, ok := state.(*recorderState)
	if !ok || s == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("http.route", pattern),
		attribute.Int("http.response.status_code", status),
	)
	o.requests.Add(ctx, 1, attrs)
	o.duration.Record(ctx, time.Since(s.start).Seconds(), attrs)

	if s.span != nil {
		// Rename now that the route pattern is known; raw paths would
		// explode span-name cardinality.
		if s.span.IsRecording() {
			s.span.SetName(pattern)
			s.span.SetAttributes(
				attribute.String("http.route", pattern),
				attribute.Int("http.response.status_code", status),
			)
		}
		s.span.End()
	}
}
