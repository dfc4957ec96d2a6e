package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		noop    bool
		wantErr bool
	}{
		{name: "disabled", cfg: Config{}, noop: true},
		{name: "noop exporter", cfg: Config{Enabled: true, Exporter: "noop"}, noop: true},
		{name: "empty exporter", cfg: Config{Enabled: true}, noop: true},
		{name: "stdout exporter", cfg: Config{Enabled: true, Exporter: "stdout"}},
		{name: "unsupported exporter", cfg: Config{Enabled: true, Exporter: "jaeger"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Setup(t.Context(), tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, shutdown(t.Context())) }()

			_, isNoop := otel.GetTracerProvider().(noop.TracerProvider)
			assert.Equal(t, tt.noop, isNoop)
		})
	}
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, ok := StartSpan(t.Context(), tracer, "ok", attribute.String("node", "a"))
	SetOK(ok)
	ok.End()

	_, failed := StartSpan(t.Context(), tracer, "failed")
	RecordError(failed, errors.New("boom"))
	failed.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ok", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("node", "a"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}

func TestStartSpan_DefaultTracer(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())
	ctx, span := StartSpan(t.Context(), nil, "default")
	defer span.End()
	assert.NotNil(t, ctx)
}
