package models

import (
	"time"
)

// Audit action codes
const (
	ActionLoginSuccess      = "LOGIN_SUCCESS"
	ActionLogout            = "LOGOUT"
	ActionForceLogout       = "FORCE_LOGOUT"
	ActionSessionTimeout    = "SESSION_TIMEOUT"
	ActionSessionHijack     = "SESSION_HIJACK"
	ActionCSRFFailure       = "CSRF_FAILURE"
	ActionRegistration      = "REGISTRATION"
	ActionBookingCreated    = "BOOKING_CREATED"
	ActionUserCreated       = "USER_CREATED"
	ActionUserDeleted       = "USER_DELETED"
	ActionProfileUpdated    = "PROFILE_UPDATED"
	ActionBruteForceAttempt = "BRUTE_FORCE_ATTEMPT"
)

// AuditLog is an append-only record of security-relevant actions. UserID is
// nullable; the row is a historical fact and survives user deletion.
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    *uint     `json:"user_id" gorm:"index"`
	Action    string    `json:"action" gorm:"type:varchar(100);not null"`
	Details   string    `json:"details" gorm:"type:text"`
	IPAddress string    `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent string    `json:"user_agent" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// FailedLogin is an append-only record of a failed authentication attempt,
// read back only for brute-force window counting.
type FailedLogin struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"type:varchar(50);index"`
	Reason      string    `json:"reason" gorm:"type:varchar(100)"`
	IPAddress   string    `json:"ip_address" gorm:"type:varchar(45);index"`
	UserAgent   string    `json:"user_agent" gorm:"type:varchar(255)"`
	AttemptedAt time.Time `json:"attempted_at" gorm:"autoCreateTime;index"`
}
