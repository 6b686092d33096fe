package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestVerbosityGating(t *testing.T) {
	type gateTest = struct {
		verbosity int
		expect    string
	}

	tests := []gateTest{
		{0, "always\n"},
		{1, "error\nalways\n"},
		{2, "warning\nerror\nalways\n"},
		{3, "info\nwarning\nerror\nalways\n"},
	}

	for _, item := range tests {
		buf := bytes.Buffer{}
		p := New(item.verbosity, WithOutput(&buf))

		p.Info("info")
		p.Warning("warning")
		p.Error("error")
		p.Always("always")

		assert.Equal(t, item.expect, buf.String(), "verbosity %d", item.verbosity)
	}
}

func TestEverythingIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	buf := bytes.Buffer{}
	p := New(0, WithOutput(&buf), WithLogger(zap.New(core)))

	p.Infof("loaded %q", "x")
	p.Errorf("failed %d", 3)
	p.LogOnly("raw body")

	assert.Equal(t, "", buf.String())
	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage(`loaded "x"`).Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.FilterMessage("failed 3").All()[0].Level)
	assert.Equal(t, zapcore.DebugLevel, logs.FilterMessage("raw body").All()[0].Level)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "always", Always.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "level(7)", Level(7).String())
}
