package services

import (
	"log/slog"
	"time"

	"ourhotel/internal/config"
	"ourhotel/internal/models"
)

// AuditService appends audit and failed-login records. Appends are
// best-effort: a failed insert is reported to the operational log and never
// blocks the action being audited.
type AuditService struct {
	cfg *config.Config
}

func NewAuditService(cfg *config.Config) *AuditService {
	return &AuditService{cfg: cfg}
}

// Record appends an audit entry. userID may be nil for anonymous actions.
func (s *AuditService) Record(userID *uint, action, details, ip, userAgent string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    truncate(action, 100),
		Details:   truncate(details, 1000),
		IPAddress: truncate(ip, 45),
		UserAgent: truncate(userAgent, 255),
	}

	if err := models.DB.Create(entry).Error; err != nil {
		slog.Error("failed to append audit entry", "action", action, "error", err)
	}
}

// RecordFailedLogin appends a failed-login record and runs the brute-force
// check. It returns true when the trailing-window attempt count for the
// username or source IP has reached the configured threshold.
func (s *AuditService) RecordFailedLogin(username, reason, ip, userAgent string) bool {
	record := &models.FailedLogin{
		Username:  truncate(username, 50),
		Reason:    truncate(reason, 100),
		IPAddress: truncate(ip, 45),
		UserAgent: truncate(userAgent, 255),
	}

	if err := models.DB.Create(record).Error; err != nil {
		slog.Error("failed to append failed-login record", "username", record.Username, "error", err)
		return false
	}

	return s.checkBruteForce(record.Username, record.IPAddress, userAgent)
}

// checkBruteForce counts failed attempts for the username or IP inside the
// trailing window. Detection only: it emits a warning and an audit entry when
// the username resolves to a known user, no lockout is enforced.
func (s *AuditService) checkBruteForce(username, ip, userAgent string) bool {
	since := time.Now().Add(-s.cfg.Security.BruteForceWindowDuration())

	var count int64
	err := models.DB.Model(&models.FailedLogin{}).
		Where("(username = ? OR ip_address = ?) AND attempted_at > ?", username, ip, since).
		Count(&count).Error
	if err != nil {
		slog.Error("brute-force check failed", "username", username, "error", err)
		return false
	}

	if count < int64(s.cfg.Security.BruteForceLimit()) {
		return false
	}

	slog.Warn("brute-force warning", "attempts", count, "username", username, "ip", ip)

	var user models.User
	if err := models.DB.Where("username = ?", username).First(&user).Error; err == nil {
		s.Record(&user.ID, models.ActionBruteForceAttempt,
			"Multiple failed login attempts detected for user from IP: "+ip, ip, userAgent)
	}

	return true
}

// AuditEntry is an audit row joined with the actor's username for display.
type AuditEntry struct {
	models.AuditLog
	Username string `json:"username"`
}

// AuditLogs returns audit entries newest first, joined with usernames.
func (s *AuditService) AuditLogs(limit, offset int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []AuditEntry
	err := models.DB.Model(&models.AuditLog{}).
		Select("audit_logs.*, users.username").
		Joins("LEFT JOIN users ON users.id = audit_logs.user_id").
		Order("audit_logs.created_at DESC, audit_logs.id DESC").
		Limit(limit).Offset(offset).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FailedLogins returns failed-login records newest first.
func (s *AuditService) FailedLogins(limit, offset int) ([]models.FailedLogin, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var records []models.FailedLogin
	err := models.DB.
		Order("attempted_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
