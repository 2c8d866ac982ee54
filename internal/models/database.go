package models

import (
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ourhotel/internal/config"
)

var DB *gorm.DB

// InitDB initializes the database connection
func InitDB(cfg *config.Config) error {
	var dialector gorm.Dialector
	var err error

	switch cfg.Database.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.SQLite.Path)
	case "mysql":
		mc := mysqldriver.NewConfig()
		mc.User = cfg.Database.MySQL.Username
		mc.Passwd = cfg.Database.MySQL.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.Database.MySQL.Host, cfg.Database.MySQL.Port)
		mc.DBName = cfg.Database.MySQL.Database
		mc.ParseTime = true
		mc.Loc = time.Local
		if cfg.Database.MySQL.Charset != "" {
			mc.Params = map[string]string{"charset": cfg.Database.MySQL.Charset}
		}
		dialector = mysql.Open(mc.FormatDSN())
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate models
	if err := DB.AutoMigrate(&User{}, &Room{}, &Booking{}, &Session{}, &AuditLog{}, &FailedLogin{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
