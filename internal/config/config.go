package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Reports  ReportsConfig  `yaml:"reports"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxLifetime  time.Duration `yaml:"max_lifetime"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
	SeedData     bool          `yaml:"seed_data"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Enabled  bool          `yaml:"enabled"`
	TTL      time.Duration `yaml:"ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
	Topic   string   `yaml:"topic"`
	Enabled bool     `yaml:"enabled"`
}

type ReportsConfig struct {
	Timezone     string `yaml:"timezone"`
	DefaultCount int    `yaml:"default_count"`
	MaxCount     int    `yaml:"max_count"`
}

type ExportConfig struct {
	FilenamePrefix string `yaml:"filename_prefix"`
	QuoteFields    bool   `yaml:"quote_fields"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			DSN:          "file:museum_visits.db?cache=shared",
			MaxOpenConns: 25,
			MaxIdleConns: 25,
			MaxLifetime:  5 * time.Minute,
			AutoMigrate:  true,
			SeedData:     true,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Enabled: false,
			TTL:     5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			GroupID: "museum-visits-group",
			Topic:   "museum.visits.changed",
			Enabled: false,
		},
		Reports: ReportsConfig{
			Timezone:     "Local",
			DefaultCount: 4,
			MaxCount:     0,
		},
		Export: ExportConfig{
			FilenamePrefix: "museum_visits",
		},
		Log: LogConfig{
			Dir:   "logs",
			Level: "INFO",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if any, then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.MaxLifetime = getEnvDuration("DB_MAX_LIFETIME", c.Database.MaxLifetime)
	c.Database.AutoMigrate = getEnvBool("AUTO_MIGRATE", c.Database.AutoMigrate)
	c.Database.SeedData = getEnvBool("SEED_DATA", c.Database.SeedData)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.TTL = getEnvDuration("REPORT_CACHE_TTL", c.Redis.TTL)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC_VISITS", c.Kafka.Topic)
	c.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", c.Kafka.Enabled)

	c.Reports.Timezone = getEnv("REPORTS_TIMEZONE", c.Reports.Timezone)
	c.Reports.DefaultCount = getEnvInt("REPORTS_DEFAULT_COUNT", c.Reports.DefaultCount)
	c.Reports.MaxCount = getEnvInt("REPORTS_MAX_COUNT", c.Reports.MaxCount)

	c.Export.FilenamePrefix = getEnv("EXPORT_FILENAME_PREFIX", c.Export.FilenamePrefix)
	c.Export.QuoteFields = getEnvBool("EXPORT_QUOTE_FIELDS", c.Export.QuoteFields)

	c.Log.Dir = getEnv("LOG_DIR", c.Log.Dir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Location resolves the reporting time zone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Reports.Timezone)
}

// Validate checks the whole configuration and reports every problem at once
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port == "" {
		errors = append(errors, "server port cannot be empty")
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [%s %s]", c.Database.Driver, DriverSQLite, DriverPostgres))
	}
	if c.Database.DSN == "" {
		errors = append(errors, "database DSN cannot be empty")
	}
	if c.Database.MaxOpenConns < 1 {
		errors = append(errors, fmt.Sprintf("invalid max open connections %d: must be at least 1", c.Database.MaxOpenConns))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errors = append(errors, "redis address cannot be empty when redis is enabled")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errors = append(errors, "kafka brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			errors = append(errors, "kafka topic cannot be empty when kafka is enabled")
		}
		if c.Kafka.GroupID == "" {
			errors = append(errors, "kafka group id cannot be empty when kafka is enabled")
		}
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reports timezone '%s': %v", c.Reports.Timezone, err))
	}
	if c.Reports.DefaultCount < 1 {
		errors = append(errors, fmt.Sprintf("invalid default count %d: must be at least 1", c.Reports.DefaultCount))
	}
	if c.Reports.MaxCount > 0 && c.Reports.MaxCount < c.Reports.DefaultCount {
		errors = append(errors, fmt.Sprintf("invalid max count %d: must not be below default count %d", c.Reports.MaxCount, c.Reports.DefaultCount))
	}

	if c.Export.FilenamePrefix == "" {
		errors = append(errors, "export filename prefix cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
