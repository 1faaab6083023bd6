package config

import (
	"fmt"
	"os"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（救护车车载终端通道）
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config 急救调度服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 118 中央调度台 API
	EmergencyOps struct {
		BaseURL        string // 为空时禁用上报
		TimeoutSeconds int
	}

	// 调度服务特定配置
	Dispatch struct {
		AverageSpeedKmh float64 // ETA 计算使用的平均车速（km/h），默认 40

		// Redis 缓存配置
		Cache struct {
			TrackingKeyPrefix string // 行程进度缓存键前缀，如 "emergency:dispatch:"
			TrackingSuffix    string // 行程进度缓存键后缀，如 ":tracking"
			TrackingTTL       int    // 行程进度 TTL（秒），默认 30秒
			FleetKey          string // 车队快照缓存键
			FleetTTL          int    // 车队快照 TTL（秒），默认 60秒
		}

		// 通知流配置
		Streams struct {
			Doctors  string // 医生通知流
			Patients string // 患者通知流
			Ops      string // 急救运营通知流
		}

		// 车队快照刷新间隔（秒），默认 15秒
		FleetSnapshotInterval int
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "emergency")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-emergency")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.EmergencyOps.BaseURL = getEnv("EMERGENCY_OPS_URL", "")
	cfg.EmergencyOps.TimeoutSeconds = getEnvInt("EMERGENCY_OPS_TIMEOUT", 5)

	cfg.Dispatch.AverageSpeedKmh = 40

	cfg.Dispatch.Cache.TrackingKeyPrefix = getEnv("CACHE_TRACKING_PREFIX", "emergency:dispatch:")
	cfg.Dispatch.Cache.TrackingSuffix = ":tracking"
	cfg.Dispatch.Cache.TrackingTTL = 30
	cfg.Dispatch.Cache.FleetKey = getEnv("CACHE_FLEET_KEY", "emergency:fleet:snapshot")
	cfg.Dispatch.Cache.FleetTTL = 60

	cfg.Dispatch.Streams.Doctors = getEnv("STREAM_DOCTORS", "emergency:notify:doctors")
	cfg.Dispatch.Streams.Patients = getEnv("STREAM_PATIENTS", "emergency:notify:patients")
	cfg.Dispatch.Streams.Ops = getEnv("STREAM_OPS", "emergency:notify:ops")

	cfg.Dispatch.FleetSnapshotInterval = getEnvInt("FLEET_SNAPSHOT_INTERVAL", 15)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}
