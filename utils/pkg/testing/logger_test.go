package atomidtesting

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomID_Testing_LevelFromEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelError},
		{"0", slog.LevelError},
		{"1", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"2", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"verbose", slog.LevelError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, LevelFromEnv(tt.in), "DEBUG=%q", tt.in)
	}
}

func TestAtomID_Testing_NewLogger(t *testing.T) {
	t.Setenv("DEBUG", "")

	log := NewLogger()
	require.NotNil(t, log)
	require.True(t, log.Enabled(context.Background(), slog.LevelError))
	require.False(t, log.Enabled(context.Background(), slog.LevelInfo))
}
