package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/haven-intake/internal/observability"
)

func TestLoggerFromContextAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	observability.Configure(&buf, slog.LevelInfo)
	t.Cleanup(func() { observability.Configure(os.Stdout, slog.LevelInfo) })

	ctx := observability.WithRequestID(context.Background(), "req-1")
	ctx = observability.WithSessionID(ctx, "sess-1")
	observability.LoggerFromContext(ctx).Info("hello", "phase", "early")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "sess-1", line["session_id"])
	assert.Equal(t, "early", line["phase"])
	assert.Equal(t, "req-1", observability.RequestIDFromContext(ctx))
}

func TestConfigureFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	observability.Configure(&buf, observability.ParseLevel("warn"))
	t.Cleanup(func() { observability.Configure(os.Stdout, slog.LevelInfo) })

	observability.Logger().Info("dropped")
	assert.Zero(t, buf.Len())

	observability.WithFields("k", "v").Warn("kept")
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, observability.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, observability.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, observability.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, observability.ParseLevel("loud"))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveBackendCall(observability.OpReply, 20*time.Millisecond, nil)
	m.ObserveBackendCall(observability.OpReply, time.Second, errors.New("boom"))
	m.RecordFallback(observability.OpReply, "unavailable")
	m.RecordSummary("fallback", "online", "high")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("reply", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCallsTotal.WithLabelValues("reply", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("reply", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummariesTotal.WithLabelValues("fallback", "online", "high")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackendCall(observability.OpSummary, time.Millisecond, nil)
		m.RecordFallback(observability.OpSummary, "empty_response")
		m.RecordSummary("backend", "other", "low")
	})
}
