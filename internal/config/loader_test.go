package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDecodeDurations(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("gate.base_interval", "5s")
	viper.Set("gate.max_interval", "45s")
	viper.Set("gate.max_per_minute", 8)
	viper.Set("gate.throttle_cooldown", "7m")
	viper.Set("server.read_timeout", "30s")
	viper.Set("store.path", "/tmp/kwradar-test.db")

	cfg, err := Decode()
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.Gate.BaseInterval)
	require.Equal(t, 45*time.Second, cfg.Gate.MaxInterval)
	require.Equal(t, 8, cfg.Gate.MaxPerMinute)
	require.Equal(t, 7*time.Minute, cfg.Gate.ThrottleCooldown)
	require.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestDecodeDefaultsStorePath(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Decode()
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Store.Path)
}

func TestDecodeSourcesList(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("collect.sources", "autocomplete,trends")

	cfg, err := Decode()
	require.NoError(t, err)
	require.Equal(t, []string{"autocomplete", "trends"}, cfg.Collect.Sources)
}

func TestGetConfigReflectsLastDecode(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("workers", 6)

	cfg, err := Decode()
	require.NoError(t, err)
	require.Same(t, cfg, GetConfig())
	require.Equal(t, 6, cfg.Workers)
}
