package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName  = "parking-garage-service"
	serviceVersion      = "1.0.0"
	defaultOTLPEndpoint = "http://localhost:4318"
)

type TelemetryProvider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
	tracer         trace.Tracer
	meter          metric.Meter
}

// NewTelemetryProvider sets up OTLP/HTTP export of traces, metrics and logs
// and installs the providers globally.
func NewTelemetryProvider(ctx context.Context, serviceName, otlpEndpoint string) (*TelemetryProvider, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	if otlpEndpoint == "" {
		otlpEndpoint = defaultOTLPEndpoint
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(otlpEndpoint+"/v1/traces"),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	metricExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpointURL(otlpEndpoint+"/v1/metrics"),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(5*time.Second),
		)),
	)

	logExporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpointURL(otlpEndpoint+"/v1/logs"),
		otlploghttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	global.SetLoggerProvider(loggerProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	telemetry := NewTelemetryProviderFrom(serviceName, tracerProvider, meterProvider)
	telemetry.loggerProvider = loggerProvider
	return telemetry, nil
}

// NewTelemetryProviderFrom wraps already-built SDK providers without
// touching the globals.
func NewTelemetryProviderFrom(serviceName string, tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) *TelemetryProvider {
	return &TelemetryProvider{
		tracerProvider: tp,
		meterProvider:  mp,
		tracer:         tp.Tracer(serviceName),
		meter:          mp.Meter(serviceName),
	}
}

func (tp *TelemetryProvider) Tracer() trace.Tracer {
	return tp.tracer
}

func (tp *TelemetryProvider) Meter() metric.Meter {
	return tp.meter
}

func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	err := errors.Join(
		tp.tracerProvider.Shutdown(ctx),
		tp.meterProvider.Shutdown(ctx),
	)
	if tp.loggerProvider != nil {
		err = errors.Join(err, tp.loggerProvider.Shutdown(ctx))
	}
	return err
}
