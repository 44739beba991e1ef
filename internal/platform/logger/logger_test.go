package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{name: "debug", level: "debug"},
		{name: "info", level: "info"},
		{name: "warn", level: "warn"},
		{name: "error", level: "error"},
		{name: "mixed_case", level: "Debug"},
		{name: "invalid_falls_back_to_info", level: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Setup(tt.level)
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Equal(t, logger, slog.Default())
		})
	}
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()

	// Without a stored logger the default is returned.
	assert.Equal(t, slog.Default(), FromContext(ctx))

	stored := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx = WithLogger(ctx, stored)
	assert.Equal(t, stored, FromContext(ctx))
}

func TestFromContextOrDefault(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Falls back to the provided logger when the context carries none.
	assert.Equal(t, fallback, FromContextOrDefault(context.Background(), fallback))

	// Falls back to the global default when fallback is nil.
	assert.Equal(t, slog.Default(), FromContextOrDefault(context.Background(), nil))

	stored := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithLogger(context.Background(), stored)
	assert.Equal(t, stored, FromContextOrDefault(ctx, fallback))
}
