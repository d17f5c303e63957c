// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the hub and the device agent
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database PostgresConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Device   DeviceConfig   `mapstructure:"device"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ArchiveConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// DeviceConfig drives the device agent's fixed-tick loop
type DeviceConfig struct {
	DeviceID       string        `mapstructure:"device_id"`
	HubURL         string        `mapstructure:"hub_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	UploadInterval time.Duration `mapstructure:"upload_interval"`
	BufferCapacity int           `mapstructure:"buffer_capacity"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("TOFHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// Archive defaults
	viper.SetDefault("archive.base_path", "./archives")

	// Device agent defaults
	viper.SetDefault("device.device_id", "tof-0")
	viper.SetDefault("device.hub_url", "http://localhost:8080")
	viper.SetDefault("device.poll_interval", "2s")
	viper.SetDefault("device.sample_interval", "100ms")
	viper.SetDefault("device.upload_interval", "1s")
	viper.SetDefault("device.buffer_capacity", 10)
	viper.SetDefault("device.http_timeout", "3s")
}

func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Device.BufferCapacity <= 0 {
		return fmt.Errorf("device buffer capacity must be positive")
	}
	if config.Device.HubURL == "" {
		return fmt.Errorf("device hub_url is required")
	}
	return nil
}
