package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "emergency", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, float64(40), cfg.Dispatch.AverageSpeedKmh)
	assert.Equal(t, "emergency:dispatch:", cfg.Dispatch.Cache.TrackingKeyPrefix)
	assert.Equal(t, ":tracking", cfg.Dispatch.Cache.TrackingSuffix)
	assert.Equal(t, 30, cfg.Dispatch.Cache.TrackingTTL)
	assert.Equal(t, "emergency:notify:doctors", cfg.Dispatch.Streams.Doctors)
	assert.Equal(t, 15, cfg.Dispatch.FleetSnapshotInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FromEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_HOST", "db.internal")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("REDIS_ADDR", "redis.internal:6380")
	os.Setenv("MQTT_BROKER", "tcp://mqtt.internal:1883")
	os.Setenv("EMERGENCY_OPS_URL", "https://api.118ancona.it/v1")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "tcp://mqtt.internal:1883", cfg.MQTT.Broker)
	assert.Equal(t, "https://api.118ancona.it/v1", cfg.EmergencyOps.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "emergency",
		SSLMode:  "disable",
	}

	dsn := cfg.GetDSN()
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=emergency sslmode=disable", dsn)
}
