package telemetry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
)

// NewJaegerTracerProvider returns an OpenTelemetry TracerProvider configured to use
// the Jaeger exporter that will send spans to the provided url, and registers it
// as the global provider.
func NewJaegerTracerProvider(service string, url string) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(url)))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create jaeger exporter for %s", url)
	}
	tp := tracesdk.NewTracerProvider(
		// Always be sure to batch in production.
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(service),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

// SetUpTracing installs a jaeger provider when url is non-empty.  The returned
// function flushes and shuts it down; it is a no-op when tracing is disabled.
func SetUpTracing(service string, url string) (func(), error) {
	if url == "" {
		logrus.Debugf("no jaeger url configured, tracing disabled")
		return func() {}, nil
	}
	tp, err := NewJaegerTracerProvider(service, url)
	if err != nil {
		return nil, err
	}
	logrus.Infof("sending traces for %s to %s", service, url)
	return func() {
		// Do not make the application hang when it is shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logrus.Errorf("unable to shut down tracer provider: %+v", err)
		}
	}, nil
}

func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
