package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logg := New(Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})
	return logg, buf
}

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &payload))
	return payload
}

func TestInfoIncludesServiceField(t *testing.T) {
	logg, buf := newBufferedLogger(t)
	logg.Info(context.Background(), "hello")

	payload := decodeLine(t, strings.TrimSpace(buf.String()))
	require.Equal(t, "test", payload["service"])
	require.Equal(t, "hello", payload["message"])
}

func TestContextFieldsPropagate(t *testing.T) {
	logg, buf := newBufferedLogger(t)

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithUserID(ctx, "user-1")
	ctx = logg.WithFields(ctx, map[string]any{"period": "2024-03"})
	logg.Info(ctx, "distribution")

	payload := decodeLine(t, strings.TrimSpace(buf.String()))
	require.Equal(t, "req-1", payload["request_id"])
	require.Equal(t, "user-1", payload["user_id"])
	require.Equal(t, "2024-03", payload["period"])
}

func TestErrorCarriesStack(t *testing.T) {
	logg, buf := newBufferedLogger(t)
	logg.Error(context.Background(), "boom", errors.New("db down"))

	payload := decodeLine(t, strings.TrimSpace(buf.String()))
	require.Equal(t, "db down", payload["error"])
	require.NotEmpty(t, payload["stack"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}
