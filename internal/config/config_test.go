package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("TOPICAL_ADDR", "")
	t.Setenv("TOPICAL_MESSAGE_TTL", "")
	t.Setenv("TOPICAL_SWEEP_INTERVAL", "")
	t.Setenv("TOPICAL_SEND_BUFFER", "")

	cfg := New()
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultMessageTTL, cfg.MessageTTL)
	assert.Equal(t, DefaultSweepInterval, cfg.SweepInterval)
	assert.Equal(t, DefaultSendBuffer, cfg.SendBuffer)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("TOPICAL_ADDR", ":9999")
	t.Setenv("TOPICAL_MESSAGE_TTL", "45s")
	t.Setenv("TOPICAL_SWEEP_INTERVAL", "2s")
	t.Setenv("TOPICAL_SEND_BUFFER", "64")

	cfg := New()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 45*time.Second, cfg.MessageTTL)
	assert.Equal(t, 2*time.Second, cfg.SweepInterval)
	assert.Equal(t, 64, cfg.SendBuffer)
}

func TestNew_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("TOPICAL_MESSAGE_TTL", "soon")
	t.Setenv("TOPICAL_SWEEP_INTERVAL", "-5s")
	t.Setenv("TOPICAL_SEND_BUFFER", "zero")

	cfg := New()
	assert.Equal(t, DefaultMessageTTL, cfg.MessageTTL)
	assert.Equal(t, DefaultSweepInterval, cfg.SweepInterval)
	assert.Equal(t, DefaultSendBuffer, cfg.SendBuffer)
}
