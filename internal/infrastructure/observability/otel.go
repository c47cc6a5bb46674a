package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/happyroy1004/ocs-patient-alert-sub000"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount       metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	UploadCount        metric.Int64Counter
	MatchedRowCount    metric.Int64Counter
	NotificationCount  metric.Int64Counter
	CalendarEventCount metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics export and runtime
// metrics. The returned function flushes and stops both providers.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(15 * time.Second)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics against the global meter
// provider. Without Setup the provider is a no-op and recording is free.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	uploadCount, err := meter.Int64Counter(
		"ocs.upload.count",
		metric.WithDescription("Number of processed OCS uploads"),
	)
	if err != nil {
		return nil, err
	}

	matchedRowCount, err := meter.Int64Counter(
		"ocs.match.rows",
		metric.WithDescription("Number of spreadsheet rows matched to recipients"),
	)
	if err != nil {
		return nil, err
	}

	notificationCount, err := meter.Int64Counter(
		"ocs.dispatch.notifications",
		metric.WithDescription("Per-recipient notification outcomes by channel and status"),
	)
	if err != nil {
		return nil, err
	}

	calendarEventCount, err := meter.Int64Counter(
		"ocs.dispatch.calendar_events",
		metric.WithDescription("Number of calendar events created"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:       requestCount,
		RequestDuration:    requestDuration,
		UploadCount:        uploadCount,
		MatchedRowCount:    matchedRowCount,
		NotificationCount:  notificationCount,
		CalendarEventCount: calendarEventCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records a request metric with attributes
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordUpload records a processed upload
func RecordUpload(ctx context.Context, metrics *Metrics, daily bool) {
	if metrics == nil {
		return
	}
	metrics.UploadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ocs.daily", daily)))
}

// RecordMatchedRows records how many rows matched a recipient kind
func RecordMatchedRows(ctx context.Context, metrics *Metrics, kind string, rows int) {
	if metrics == nil || rows == 0 {
		return
	}
	metrics.MatchedRowCount.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("recipient.kind", kind)))
}

// RecordNotification records one channel outcome for one recipient
func RecordNotification(ctx context.Context, metrics *Metrics, channel, status string) {
	if metrics == nil {
		return
	}
	metrics.NotificationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("notification.channel", channel),
		attribute.String("notification.status", status),
	))
}

// RecordCalendarEvents records created calendar events
func RecordCalendarEvents(ctx context.Context, metrics *Metrics, created int) {
	if metrics == nil || created == 0 {
		return
	}
	metrics.CalendarEventCount.Add(ctx, int64(created))
}
