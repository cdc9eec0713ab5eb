package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	p := writeConfig(t, `
mode: dev
database:
  host: localhost
  user: lib
  password: from-file
  dbname: library
library:
  loan_days: 21
`)
	t.Setenv("LIB_DB_PASSWORD", "from-env")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.DB.Password)
	require.Equal(t, 3306, cfg.DB.Port)
	require.Equal(t, 21, cfg.Library.LoanDays)
	require.Equal(t, 1.00, cfg.Library.FinePerDay)
	require.Equal(t, 50.00, cfg.Library.LostFee)
	require.Equal(t, 7, cfg.Library.ReservationHoldDays)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "disk", cfg.Storage.Driver)
	require.Equal(t, ":8443", cfg.Addr)
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	p := writeConfig(t, "mode: staging\n")
	_, err := Load(p)
	require.Error(t, err)
}

func TestLoad_ReleaseNeedsSecret(t *testing.T) {
	p := writeConfig(t, "mode: release\n")
	_, err := Load(p)
	require.Error(t, err)

	t.Setenv("LIB_JWT_SECRET", "s3cr3t")
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
