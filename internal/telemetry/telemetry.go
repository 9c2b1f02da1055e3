package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolio-api/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *metrics.Metrics
}

// InitMeterProvider installs the global meter provider. Without an endpoint
// instruments are recorded but never exported.
func InitMeterProvider(ctx context.Context, serviceName, serviceVersion, endpoint string, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if endpoint != "" {
		logger.Info("initializing OTel metrics", "endpoint", endpoint)

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second)),
		))
	} else {
		logger.Info("OTel metrics export disabled, no endpoint configured")
	}

	meterProvider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

func Init(ctx context.Context, serviceName, serviceVersion, endpoint string, logger *slog.Logger) (*Telemetry, error) {
	meterProvider, err := InitMeterProvider(ctx, serviceName, serviceVersion, endpoint, logger)
	if err != nil {
		return nil, err
	}

	meter := meterProvider.Meter(serviceName)
	m, err := metrics.New(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if err := metrics.RegisterRuntime(meter, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to initialize runtime metrics: %w", err)
	}

	logger.Info("metrics collectors initialized successfully")

	return &Telemetry{
		MeterProvider: meterProvider,
		Metrics:       m,
	}, nil
}

func (t *Telemetry) Shutdown(ctx context.Context, logger *slog.Logger) error {
	logger.Info("shutting down OTel meter provider")
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
