package config

import (
	"errors"
	"fmt"
	"os"

	"kortovik/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Exports    ExportConfig     `yaml:"exports"`
	Managers   []int64          `yaml:"managers"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type BookingConfig struct {
	// DepositRate доля депозита для платных площадок; по умолчанию 30%
	DepositRate             float64 `yaml:"deposit_rate"`
	CancellationNoticeHours int     `yaml:"cancellation_notice_hours"`
	Timezone                string  `yaml:"timezone"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен: в проде переменные приходят из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Booking.DepositRate < 0 || c.Booking.DepositRate > 1 {
		return fmt.Errorf("booking.deposit_rate must be within [0, 1], got %v", c.Booking.DepositRate)
	}

	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api_keys configured")
	}

	return nil
}

// ValidateCourts проверяет инварианты каталога площадок из courts.yaml.
func ValidateCourts(courts []models.Court) error {
	seen := make(map[int64]bool)
	for _, court := range courts {
		if court.ID == 0 {
			return fmt.Errorf("court '%s' has invalid ID 0", court.Name)
		}
		if seen[court.ID] {
			return fmt.Errorf("duplicate court ID found: %d", court.ID)
		}
		seen[court.ID] = true

		if court.OpeningTime >= court.ClosingTime {
			return fmt.Errorf("court %d: opening_time %s must be before closing_time %s",
				court.ID, court.OpeningTime, court.ClosingTime)
		}
		if court.MinBookingHours <= 0 {
			return fmt.Errorf("court %d: min_booking_hours must be positive", court.ID)
		}
		if court.MinBookingHours > court.MaxBookingHours {
			return fmt.Errorf("court %d: min_booking_hours %d exceeds max_booking_hours %d",
				court.ID, court.MinBookingHours, court.MaxBookingHours)
		}
		if court.AdvanceBookingDays < 0 {
			return fmt.Errorf("court %d: advance_booking_days must not be negative", court.ID)
		}
		if !court.IsFree && court.PricePerHour < 0 {
			return fmt.Errorf("court %d: price_per_hour must not be negative", court.ID)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	if c.Booking.DepositRate == 0 {
		c.Booking.DepositRate = models.DefaultDepositRate
	}
	if c.Booking.CancellationNoticeHours == 0 {
		c.Booking.CancellationNoticeHours = models.CancellationNoticeHours
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Europe/Moscow"
	}
}
