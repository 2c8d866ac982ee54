package services

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ourhotel/internal/config"
	"ourhotel/internal/models"
)

// setupTestDB initializes a test database
func setupTestDB(t *testing.T) *config.Config {
	tmpDir := os.TempDir()
	testDBPath := fmt.Sprintf("%s/ourhotel_test_%d.db", tmpDir, time.Now().UnixNano())

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: "sqlite",
			SQLite: config.SQLiteConfig{
				Path: testDBPath,
			},
		},
		Security: config.SecurityConfig{
			BcryptCost: 10,
		},
	}

	err := models.InitDB(cfg)
	require.NoError(t, err)

	return cfg
}

// cleanupTestDB cleans up test database
func cleanupTestDB(t *testing.T, cfg *config.Config) {
	if models.DB != nil {
		sqlDB, err := models.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
		if cfg != nil && cfg.Database.Type == "sqlite" {
			os.Remove(cfg.Database.SQLite.Path)
		}
	}
	models.DB = nil
}

// createTestUser creates a test user and returns it
func createTestUser(t *testing.T, authService *AuthService, username, email, password, role string) *models.User {
	user, err := authService.CreateUser(username, email, password, role)
	require.NoError(t, err)
	return user
}

// createTestRoom creates a room to book against
func createTestRoom(t *testing.T, roomType, roomNumber string, price float64) *models.Room {
	room := &models.Room{RoomType: roomType, RoomNumber: roomNumber, Price: price}
	require.NoError(t, models.DB.Create(room).Error)
	return room
}

// date is shorthand for a UTC calendar date offset in days from today
func date(daysFromToday int) string {
	return Today().AddDate(0, 0, daysFromToday).Format(dateLayout)
}
