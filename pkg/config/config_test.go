package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "9090")
	t.Setenv("COMMUNITY_TIMEZONE", "Europe/Berlin")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("TX_MAX_ATTEMPTS", "nope")

	cfg := Load()

	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.Equal(t, 3, cfg.TxMaxAttempts)
	require.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	t.Setenv("COMMUNITY_TIMEZONE", "Mars/Olympus_Mons")

	cfg := Load()
	require.Equal(t, time.UTC, cfg.Location())
}

func TestZeroConfigLocation(t *testing.T) {
	var cfg Config
	require.Equal(t, time.UTC, cfg.Location())

	loc := time.FixedZone("X", 3600)
	require.Equal(t, loc, cfg.WithLocation(loc).Location())
}
