package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
[auth]
jwt_secret = "secret"

[verification]
signing_key = "qr-key"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(minimal)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Booking.MaxAdvanceDays)
	assert.Equal(t, 12, cfg.Booking.ModificationCutoffHrs)
	assert.Equal(t, 30, cfg.Booking.MinDurationMinutes)
	assert.Equal(t, 240, cfg.Booking.MaxDurationMinutes)
	assert.Equal(t, 8, cfg.Schedule.HorizonDays)
	assert.Equal(t, "bookings:status-changed", cfg.Redis.Channel)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown storage driver", minimal + "\n[storage]\ndriver = \"mongo\"\n"},
		{"unknown database driver", minimal + "\n[database]\ndriver = \"mysql\"\n"},
		{"missing signing key", "[auth]\njwt_secret = \"x\"\n"},
		{"missing auth", "[verification]\nsigning_key = \"x\"\n"},
		{"placeholder jwt secret", "[auth]\njwt_secret = \"change-me\"\n[verification]\nsigning_key = \"qr-key\"\n"},
		{"placeholder signing key", "[auth]\njwt_secret = \"secret\"\n[verification]\nsigning_key = \"Change-Me-too\"\n"},
		{"horizon shorter than advance window", minimal + "\n[schedule]\nhorizon_days = 3\n"},
		{"duration off grid", minimal + "\n[booking]\nmin_duration_minutes = 45\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_ConfigPathOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(minimal+"\n[server]\nhttp_port = 9090\n"), 0o600))

	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("does-not-exist.toml")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "charging", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=charging sslmode=disable", d.DSN())
}

func TestParse_SecretsFromEnv(t *testing.T) {
	t.Setenv(EnvJWTSecret, "env-jwt")
	t.Setenv(EnvSigningKey, "env-qr")

	cfg, err := Parse("[auth]\njwt_secret = \"change-me\"\n")
	require.NoError(t, err)
	assert.Equal(t, "env-jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, "env-qr", cfg.Verification.SigningKey)
	assert.False(t, cfg.Auth.TrustHeaders)
}

func TestLoad_ShippedConfig(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvSigningKey, "")

	_, err := Load(filepath.Join("..", "..", "config.toml"))
	assert.ErrorIs(t, err, ErrInvalidConfig, "shipped config carries no secrets")

	t.Setenv(EnvJWTSecret, "jwt")
	t.Setenv(EnvSigningKey, "qr")
	cfg, err := Load(filepath.Join("..", "..", "config.toml"))
	require.NoError(t, err)
	assert.False(t, cfg.Auth.TrustHeaders, "gateway headers are off by default")
	assert.Zero(t, cfg.Schedule.RefreshInterval, "schedule is extended per request")
}
