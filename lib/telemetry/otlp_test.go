package telemetry

import (
	"context"
	"nytbestsellers/lib/configutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNewResource(t *testing.T) {
	r, err := newResource("bestsellers", Config{})
	require.NoError(t, err)

	name, ok := r.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	require.Equal(t, "bestsellers", name.AsString())

	env, ok := r.Set().Value(semconv.DeploymentEnvironmentKey)
	require.True(t, ok)
	require.Equal(t, "local", env.AsString())

	r, err = newResource("bestsellers", Config{Environment: "cron"})
	require.NoError(t, err)
	env, _ = r.Set().Value(semconv.DeploymentEnvironmentKey)
	require.Equal(t, "cron", env.AsString())
}

func TestConfigDefaults(t *testing.T) {
	cases := []struct {
		name     string
		config   Config
		interval time.Duration
		sampler  string
	}{
		{
			name:     "zero",
			interval: defaultMetricInterval,
			sampler:  "AlwaysOnSampler",
		},
		{
			name:     "explicit",
			config:   Config{SampleRatio: 0.25, MetricIntervalSeconds: 60},
			interval: time.Minute,
			sampler:  "ParentBased{root:TraceIDRatioBased{0.25}",
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.interval, test.config.metricInterval())
			require.Contains(t, test.config.sampler().Description(), test.sampler)
		})
	}
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, configutil.Validate(Config{
		Otlp: OtlpConfig{Traces: OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}},
	}))
	require.Error(t, configutil.Validate(Config{SampleRatio: 2}))
	require.Error(t, configutil.Validate(Config{
		Otlp: OtlpConfig{Metrics: OtlpConnConfig{GrpcEndpoint: "not a url"}},
	}))
}

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "bestsellers", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
