package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/adapters/logger"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)

	l.Debug("hidden by default")
	l.Info("staged recipes", "count", 3)
	l.Warn("ledger missing, starting empty")
	l.Error(zerr.New("boom"), "recipe", "VLC")

	out := buf.String()
	assert.NotContains(t, out, "hidden by default")
	assert.Contains(t, out, "staged recipes")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "ledger missing, starting empty")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "recipe=VLC")
}

func TestLogger_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)
	l.SetDebug(true)

	l.Debug("probe response", "status", 200)
	assert.Contains(t, buf.String(), "probe response")
}
