package metrics

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "dogwalks"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	AuthAttemptsTotal   metric.Int64Counter
	DBQueryErrorsTotal  metric.Int64Counter
	SessionsCreated     metric.Int64Counter
	SessionsRevoked     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Call it after the provider is installed so the instruments export.
func InitAppMetrics() error {
	once.Do(func() {
		appMetrics, initErr = newAppMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return initErr
}

// Get returns the instruments, falling back to no-op instruments when
// InitAppMetrics failed or was never called.
func Get() *AppMetrics {
	if err := InitAppMetrics(); err != nil || appMetrics == nil {
		m, _ := newAppMetrics(nil)
		return m
	}
	return appMetrics
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}

	var err error
	m := &AppMetrics{}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests completed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.AuthAttemptsTotal, err = meter.Int64Counter(
		"auth_attempts_total",
		metric.WithDescription("Login attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.DBQueryErrorsTotal, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Database errors surfaced to handlers"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.SessionsCreated, err = meter.Int64Counter(
		"sessions_created_total",
		metric.WithDescription("Sessions issued at login"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	// Sessions dropped by TTL eviction in redis or the reaper are not counted.
	m.SessionsRevoked, err = meter.Int64Counter(
		"sessions_revoked_total",
		metric.WithDescription("Sessions revoked by reason"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
