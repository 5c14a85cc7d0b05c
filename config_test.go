package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "cert without key", modify: func(c *Config) { c.tlsCert = "cert.pem" }, wantErr: "--tls-key"},
		{name: "port zero", modify: func(c *Config) { c.port = 0 }, wantErr: "invalid port"},
		{name: "port too high", modify: func(c *Config) { c.port = 70000 }, wantErr: "invalid port"},
		{name: "no max rounds", modify: func(c *Config) { c.maxRounds = 0 }, wantErr: "invalid max rounds"},
		{name: "default above max", modify: func(c *Config) { c.defaultRounds = 21 }, wantErr: "invalid default rounds"},
		{name: "huge factor", modify: func(c *Config) { c.defaultFactor = 1e305 }, wantErr: "invalid default factor"},
		{name: "nan factor", modify: func(c *Config) { c.defaultFactor = math.NaN() }, wantErr: "invalid default factor"},
		{name: "short player timeout", modify: func(c *Config) { c.playerTimeout = time.Millisecond }, wantErr: "invalid player timeout"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			tc.modify(cfg)

			err := cfg.validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewCmdEnvironment(t *testing.T) {
	t.Setenv("BEAUTYCONTEST_MAX_ROUNDS", "7")
	t.Setenv("BEAUTYCONTEST_DEFAULT_FACTOR", "0.75")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NotNil(t, cmd)

	assert.Equal(t, 7, cfg.maxRounds)
	assert.Equal(t, 0.75, cfg.defaultFactor)
	assert.Equal(t, 10, cfg.defaultRounds)
	assert.Equal(t, time.Hour, cfg.sessionTimeout)
}

func TestConfigScheme(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}
