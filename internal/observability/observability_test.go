package observability

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("variable aligned", "variable", "ctd1_temperature")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"variable":"ctd1_temperature"`)
}

func TestNewLoggerTo_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("skipping variable", "reason", "excessive_extrapolation")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "reason=excessive_extrapolation")
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.VariablesSkipped.WithLabelValues("no_depth_source").Inc()
	m.VariablesAligned.Add(3)

	assert.InDelta(t, 1, testutil.ToFloat64(m.VariablesSkipped.WithLabelValues("no_depth_source")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.VariablesAligned), 0)
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "align.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go_goroutines")
}
