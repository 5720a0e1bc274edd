package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForWorker().Info().Str("url", "https://example.com/dp/B000000001").Msg("Recorded price")
	ForHistory().Warn().Msg("Skipped row")

	out := buf.String()
	assert.Contains(t, out, "component=worker")
	assert.Contains(t, out, "Recorded price")
	assert.Contains(t, out, "component=history")
	assert.True(t, IsDebugEnabled())
}

func TestLogErrorIncludesComponent(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	LogError("archive", errors.New("bucket missing"), "upload of %s failed", "price_history.csv")

	out := buf.String()
	assert.Contains(t, out, "component=archive")
	assert.Contains(t, out, "bucket missing")
	assert.Contains(t, out, "upload of price_history.csv failed")
	assert.False(t, IsDebugEnabled())
}

func TestLevelFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PRICEWATCH_ENVIRONMENT", "production")
	assert.Equal(t, "info", getLogLevel().String())

	t.Setenv("PRICEWATCH_ENVIRONMENT", "development")
	assert.Equal(t, "debug", getLogLevel().String())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, "info", getLogLevel().String())
}
