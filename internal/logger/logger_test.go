package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CloudFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "debug", Format: FormatCloud, Output: &buf, ServiceName: "svc"})
	require.NoError(t, err)

	l.WithComponent("copier").WithError(errors.New("boom")).Warn("listing failed")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "WARNING", got["severity"])
	assert.Equal(t, "listing failed", got["message"])
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, map[string]interface{}{"logger_name": "copier"}, got["labels"])
	assert.Contains(t, got, sourceLocationKey)
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(&Config{Format: "xml"})
	var formatErr *InvalidFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "xml", formatErr.Format)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		level logrus.Level
		want  string
	}{
		{logrus.TraceLevel, "DEBUG"},
		{logrus.DebugLevel, "DEBUG"},
		{logrus.InfoLevel, "INFO"},
		{logrus.WarnLevel, "WARNING"},
		{logrus.ErrorLevel, "ERROR"},
		{logrus.FatalLevel, "CRITICAL"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, severity(tt.level))
		})
	}
}

func TestStreamSplitHook(t *testing.T) {
	var stdout, stderr bytes.Buffer
	hook := &streamSplitHook{formatter: &logrus.JSONFormatter{}, stdout: &stdout, stderr: &stderr}

	base := logrus.New()
	require.NoError(t, hook.Fire(&logrus.Entry{Logger: base, Level: logrus.InfoLevel, Message: "info"}))
	require.NoError(t, hook.Fire(&logrus.Entry{Logger: base, Level: logrus.ErrorLevel, Message: "error"}))

	assert.Contains(t, stdout.String(), `"msg":"info"`)
	assert.NotContains(t, stdout.String(), `"msg":"error"`)
	assert.Contains(t, stderr.String(), `"msg":"error"`)
}

func TestContextLogger(t *testing.T) {
	fallback := Discard()
	assert.Nil(t, FromContext(context.Background()))
	assert.Same(t, fallback, Or(context.Background(), fallback))

	ctx := SetRunID(context.Background(), fallback, "20240101_000000_abc")
	assert.Equal(t, "20240101_000000_abc", GetRunID(ctx))
	assert.NotNil(t, FromContext(ctx))
}
