package config

import (
	"errors"
	"fmt"
	"os"

	"washboard/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Business   BusinessConfig   `yaml:"business"`
	Journal    JournalConfig    `yaml:"journal"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Services   []models.Service `yaml:"services"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// APIConfig описывает подключение к серверу мойки.
type APIConfig struct {
	BaseURL         string             `yaml:"base_url"`
	APIKey          string             `yaml:"api_key"`
	APIExtra        string             `yaml:"api_extra"`
	TimeoutSeconds  int                `yaml:"timeout_seconds"`
	CacheTTLSeconds int                `yaml:"cache_ttl_seconds"`
	RateLimit       APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

// BusinessConfig задает границы рабочего дня мойки.
type BusinessConfig struct {
	RolloverHour          int `yaml:"rollover_hour"`
	ReloadIntervalSeconds int `yaml:"reload_interval_seconds"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile       string `yaml:"credentials_file"`
	ScheduleSpreadsheetID string `yaml:"schedule_spreadsheet_id"`
}

type TelegramConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BotToken      string `yaml:"bot_token"`
	ManagerChatID int64  `yaml:"manager_chat_id"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен; переменные из него подставляются в YAML ниже
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

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
	if c.API.BaseURL == "" {
		return errors.New("api base_url is required")
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required when telegram is enabled")
	}

	return ValidateServices(c.Services)
}

// ValidateServices проверяет каталог услуг на дубликаты и пустые идентификаторы.
func ValidateServices(services []models.Service) error {
	seen := make(map[string]bool)
	for _, svc := range services {
		if svc.ID == "" {
			return fmt.Errorf("service '%s' has empty id", svc.Name)
		}
		if seen[svc.ID] {
			return fmt.Errorf("duplicate service id found: %s", svc.ID)
		}
		seen[svc.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 10
	}
	if c.API.CacheTTLSeconds <= 0 {
		c.API.CacheTTLSeconds = models.DefaultCatalogCacheTTL
	}
	if c.API.RateLimit.RPS <= 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = 5
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Business.RolloverHour <= 0 || c.Business.RolloverHour > 23 {
		c.Business.RolloverHour = models.DefaultRolloverHour
	}
	if c.Business.ReloadIntervalSeconds <= 0 {
		c.Business.ReloadIntervalSeconds = 60
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "data/journal.db"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
