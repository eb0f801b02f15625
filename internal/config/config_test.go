package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "tenantd", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "postgres", cfg.DBType)
	require.Equal(t, 5*time.Minute, cfg.CacheOrgTTL)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, 24*time.Hour, cfg.AuthTokenTTL)
}

func TestGetenvDuration(t *testing.T) {
	t.Setenv("TEST_TTL_GO", "15m")
	t.Setenv("TEST_TTL_SECONDS", "300")
	t.Setenv("TEST_TTL_BAD", "soon")

	require.Equal(t, 15*time.Minute, getenvDuration("TEST_TTL_GO", time.Second))
	require.Equal(t, 300*time.Second, getenvDuration("TEST_TTL_SECONDS", time.Second))
	require.Equal(t, time.Second, getenvDuration("TEST_TTL_BAD", time.Second))
	require.Equal(t, time.Second, getenvDuration("TEST_TTL_UNSET", time.Second))
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "many")

	require.Equal(t, 42, getenvInt("TEST_INT", 7))
	require.Equal(t, 7, getenvInt("TEST_INT_BAD", 7))
	require.Equal(t, 7, getenvInt("TEST_INT_UNSET", 7))
}
