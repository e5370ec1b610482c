package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	UploadCounter   metric.Int64Counter
	ImageOperations metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("picvault-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	uploadCounter, err := meter.Int64Counter(
		"media.uploads.total",
		metric.WithDescription("Total media host uploads"),
	)
	if err != nil {
		return nil, err
	}

	imageOperations, err := meter.Int64Counter(
		"gallery.operations.total",
		metric.WithDescription("Total image data-access operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		UploadCounter:   uploadCounter,
		ImageOperations: imageOperations,
	}, nil
}

// RecordRequest records one handled HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration, attrs)
}

// RecordUpload records one media host upload attempt.
func (m *Metrics) RecordUpload(success bool) {
	if m == nil {
		return
	}
	m.UploadCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordImageOp records one image data-access operation by name.
func (m *Metrics) RecordImageOp(op string, success bool) {
	if m == nil {
		return
	}
	m.ImageOperations.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Bool("success", success),
	))
}
