package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         string    `json:"role" gorm:"type:varchar(50);default:'user'"` // admin, user
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is the server-side session record. The ID is the opaque value sent
// in the session cookie; it is re-keyed periodically and on login.
type Session struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID       *uint      `json:"user_id" gorm:"index"`
	Role         string     `json:"role" gorm:"type:varchar(50)"`
	LoggedIn     bool       `json:"logged_in"`
	IPAddress    string     `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent    string     `json:"-" gorm:"type:varchar(500)"`
	CSRFToken    string     `json:"-" gorm:"type:varchar(64)"`
	CSRFIssuedAt time.Time  `json:"-"`
	RegenCount   int        `json:"-"`
	LoginTime    *time.Time `json:"login_time"`
	LastActivity time.Time  `json:"last_activity" gorm:"index"`
	CreatedAt    time.Time  `json:"created_at"`
}
