package logging

import (
	"testing"

	"github.com/k-code-yt/paystack-payments/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	l := New(config.LogConfig{Level: "warn", Format: "json"}, false)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	assert.False(t, l.ReportCaller)

	l = New(config.LogConfig{Level: "bogus"}, false)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l = New(config.LogConfig{Level: "error"}, true)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.True(t, l.ReportCaller)
}
