package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got, s)
	}

	_, ok := ParseLogLevel("verbose")
	require.False(t, ok)
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(zapcore.DebugLevel, &buf)

	ctx := ToContext(context.Background(), l)
	ctx = WithName(ctx, "update")
	ctx = WithKV(ctx, "component", "owner/repo")
	InfoKV(ctx, "resolved", "stable", "mod-1.0.jar")

	out := buf.String()
	require.Contains(t, out, "update")
	require.Contains(t, out, "resolved")
	require.Contains(t, out, `"component": "owner/repo"`)
	require.Contains(t, out, `"stable": "mod-1.0.jar"`)
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}
