package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Security     SecurityConfig     `yaml:"security"`
	Log          LogConfig          `yaml:"log"`
	DefaultAdmin DefaultAdminConfig `yaml:"default_admin"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Mode           string   `yaml:"mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Type   string       `yaml:"type"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Charset  string `yaml:"charset"`
}

type SecurityConfig struct {
	BcryptCost          int    `yaml:"bcrypt_cost"`
	SessionTimeout      string `yaml:"session_timeout"`
	CSRFTokenLifetime   string `yaml:"csrf_token_lifetime"`
	RegenInterval       string `yaml:"session_regen_interval"`
	RegenLimit          int    `yaml:"session_regen_limit"`
	BruteForceWindow    string `yaml:"brute_force_window"`
	BruteForceThreshold int    `yaml:"brute_force_threshold"`
	CookieSecure        bool   `yaml:"cookie_secure"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DefaultAdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// SessionTimeoutDuration returns the inactivity timeout (default 30 minutes).
func (s SecurityConfig) SessionTimeoutDuration() time.Duration {
	return parseDuration(s.SessionTimeout, 30*time.Minute)
}

// CSRFTokenLifetimeDuration returns the CSRF token rotation interval (default 1 hour).
func (s SecurityConfig) CSRFTokenLifetimeDuration() time.Duration {
	return parseDuration(s.CSRFTokenLifetime, time.Hour)
}

// RegenIntervalDuration returns the periodic session ID regeneration interval (default 5 minutes).
func (s SecurityConfig) RegenIntervalDuration() time.Duration {
	return parseDuration(s.RegenInterval, 5*time.Minute)
}

// BruteForceWindowDuration returns the trailing window for failed-login counting (default 15 minutes).
func (s SecurityConfig) BruteForceWindowDuration() time.Duration {
	return parseDuration(s.BruteForceWindow, 15*time.Minute)
}

// RegenCap returns the maximum number of periodic session ID regenerations (default 5).
func (s SecurityConfig) RegenCap() int {
	if s.RegenLimit <= 0 {
		return 5
	}
	return s.RegenLimit
}

// BruteForceLimit returns the failed-attempt count that triggers a warning (default 5).
func (s SecurityConfig) BruteForceLimit() int {
	if s.BruteForceThreshold <= 0 {
		return 5
	}
	return s.BruteForceThreshold
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Load reads the configuration file and applies environment variable overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	if dbType := os.Getenv("OURHOTEL_DB_TYPE"); dbType != "" {
		cfg.Database.Type = dbType
	}

	if dbPath := os.Getenv("OURHOTEL_DB_PATH"); dbPath != "" {
		cfg.Database.SQLite.Path = dbPath
	}

	if mysqlHost := os.Getenv("OURHOTEL_MYSQL_HOST"); mysqlHost != "" {
		cfg.Database.MySQL.Host = mysqlHost
	}

	if mysqlUser := os.Getenv("OURHOTEL_MYSQL_USER"); mysqlUser != "" {
		cfg.Database.MySQL.Username = mysqlUser
	}

	if mysqlPass := os.Getenv("OURHOTEL_MYSQL_PASSWORD"); mysqlPass != "" {
		cfg.Database.MySQL.Password = mysqlPass
	}

	if mysqlDB := os.Getenv("OURHOTEL_MYSQL_DATABASE"); mysqlDB != "" {
		cfg.Database.MySQL.Database = mysqlDB
	}

	if adminPass := os.Getenv("OURHOTEL_ADMIN_PASSWORD"); adminPass != "" {
		cfg.DefaultAdmin.Password = adminPass
	}

	if cfg.Security.BcryptCost == 0 {
		cfg.Security.BcryptCost = 12
	}

	// Ensure data directory exists for SQLite
	if cfg.Database.Type == "sqlite" {
		dataDir := filepath.Dir(cfg.Database.SQLite.Path)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Validate MySQL configuration if MySQL is selected
	if cfg.Database.Type == "mysql" {
		if cfg.Database.MySQL.Username == "" {
			return nil, fmt.Errorf("MySQL username is required")
		}
		if cfg.Database.MySQL.Database == "" {
			return nil, fmt.Errorf("MySQL database name is required")
		}
	}

	return &cfg, nil
}
