package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"ourhotel/internal/config"
	"ourhotel/internal/models"
)

var (
	ErrSessionTimeout  = errors.New("session timed out")
	ErrSessionHijacked = errors.New("session hijack detected")
)

const (
	sessionIDBytes = 16
	csrfTokenBytes = 32
)

// SessionService manages the server-side session lifecycle: creation, IP and
// user-agent binding, inactivity timeout, periodic ID regeneration, and the
// CSRF token lifecycle.
type SessionService struct {
	cfg   *config.Config
	audit *AuditService
}

func NewSessionService(cfg *config.Config, audit *AuditService) *SessionService {
	return &SessionService{cfg: cfg, audit: audit}
}

// Start creates a fresh anonymous session bound to the requesting client.
func (s *SessionService) Start(ip, userAgent string) (*models.Session, error) {
	now := time.Now()
	sess := &models.Session{
		ID:           randomHex(sessionIDBytes),
		IPAddress:    truncate(ip, 45),
		UserAgent:    truncate(userAgent, 500),
		CSRFToken:    randomHex(csrfTokenBytes),
		CSRFIssuedAt: now,
		LastActivity: now,
		CreatedAt:    now,
	}

	if err := models.DB.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// StartOrRefresh runs the per-request session checks. An unknown or empty
// session ID yields a fresh anonymous session. A bound-IP mismatch destroys
// the session and returns ErrSessionHijacked; inactivity beyond the timeout
// destroys it and returns ErrSessionTimeout. On the surviving path the session
// is re-keyed when due, its CSRF token is rotated when expired, and its
// last-activity time is touched.
func (s *SessionService) StartOrRefresh(sessionID, ip, userAgent string) (*models.Session, error) {
	if sessionID == "" {
		return s.Start(ip, userAgent)
	}

	var sess models.Session
	if err := models.DB.First(&sess, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.Start(ip, userAgent)
		}
		return nil, err
	}

	now := time.Now()

	// Binding check: a changed IP is treated as a hijacked session.
	if sess.IPAddress != "" && ip != sess.IPAddress {
		slog.Warn("session hijack detected", "session_ip", sess.IPAddress, "request_ip", ip)
		s.audit.Record(sess.UserID, models.ActionSessionHijack,
			fmt.Sprintf("Session bound to %s presented from %s", sess.IPAddress, ip), ip, userAgent)
		if err := s.Destroy(&sess); err != nil {
			return nil, err
		}
		return nil, ErrSessionHijacked
	}

	// Inactivity timeout.
	if now.Sub(sess.LastActivity) > s.cfg.Security.SessionTimeoutDuration() {
		if sess.UserID != nil {
			slog.Info("session timeout", "user_id", *sess.UserID)
			s.audit.Record(sess.UserID, models.ActionSessionTimeout, "Session expired after inactivity", ip, userAgent)
		}
		if err := s.Destroy(&sess); err != nil {
			return nil, err
		}
		return nil, ErrSessionTimeout
	}

	rekey := false

	// A changed user-agent is lower severity than a changed IP: force a
	// re-key and rebind instead of destroying the session.
	if userAgent != sess.UserAgent {
		slog.Warn("session user-agent changed, re-keying", "session_id_user", sess.UserID)
		sess.UserAgent = truncate(userAgent, 500)
		rekey = true
	} else if now.Sub(sess.CreatedAt) > s.cfg.Security.RegenIntervalDuration() && sess.RegenCount < s.cfg.Security.RegenCap() {
		sess.RegenCount++
		rekey = true
	}

	sess.LastActivity = now

	if sess.CSRFToken == "" || now.Sub(sess.CSRFIssuedAt) > s.cfg.Security.CSRFTokenLifetimeDuration() {
		sess.CSRFToken = randomHex(csrfTokenBytes)
		sess.CSRFIssuedAt = now
	}

	if rekey {
		if err := s.regenerate(&sess, now); err != nil {
			return nil, err
		}
		return &sess, nil
	}

	if err := models.DB.Save(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// Login transitions the session to authenticated: the ID is regenerated to
// defeat fixation, the user and role are attached, the authenticating IP is
// bound, and the CSRF token is rotated.
func (s *SessionService) Login(sess *models.Session, user *models.User, ip string) error {
	now := time.Now()

	sess.UserID = &user.ID
	sess.Role = user.Role
	sess.LoggedIn = true
	sess.LoginTime = &now
	sess.IPAddress = truncate(ip, 45)
	sess.LastActivity = now
	sess.CSRFToken = randomHex(csrfTokenBytes)
	sess.CSRFIssuedAt = now

	return s.regenerate(sess, now)
}

// Logout destroys the session and starts a fresh anonymous one. It reports
// whether an authenticated session was actually ended.
func (s *SessionService) Logout(sess *models.Session, ip, userAgent string) (*models.Session, bool, error) {
	wasLoggedIn := sess.LoggedIn

	if err := s.Destroy(sess); err != nil {
		return nil, false, err
	}

	fresh, err := s.Start(ip, userAgent)
	if err != nil {
		return nil, false, err
	}
	return fresh, wasLoggedIn, nil
}

// ForceLogout terminates the session for an operator-supplied reason, records
// the action, and hands back a fresh anonymous session.
func (s *SessionService) ForceLogout(sess *models.Session, reason, ip, userAgent string) (*models.Session, error) {
	s.audit.Record(sess.UserID, models.ActionForceLogout, reason, ip, userAgent)

	if err := s.Destroy(sess); err != nil {
		return nil, err
	}
	return s.Start(ip, userAgent)
}

// Destroy removes the session record.
func (s *SessionService) Destroy(sess *models.Session) error {
	return models.DB.Delete(&models.Session{}, "id = ?", sess.ID).Error
}

// ValidateCSRF compares the submitted token against the session's current
// token in constant time. Empty tokens never validate.
func (s *SessionService) ValidateCSRF(sess *models.Session, token string) bool {
	if sess.CSRFToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(token)) == 1
}

// regenerate re-keys the session: the old row is removed and the record is
// re-inserted under a fresh ID in one transaction. CreatedAt restarts the
// periodic regeneration clock.
func (s *SessionService) regenerate(sess *models.Session, now time.Time) error {
	oldID := sess.ID
	sess.ID = randomHex(sessionIDBytes)
	sess.CreatedAt = now

	return models.DB.Transaction(func(tx *gorm.DB) error {
		if oldID != "" {
			if err := tx.Delete(&models.Session{}, "id = ?", oldID).Error; err != nil {
				return err
			}
		}
		return tx.Create(sess).Error
	})
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails on catastrophic OS errors
		panic("session: failed to generate random token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
