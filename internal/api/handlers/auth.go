package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"ourhotel/internal/api/middleware"
	"ourhotel/internal/config"
	"ourhotel/internal/models"
	"ourhotel/internal/services"
)

type AuthHandler struct {
	authService    *services.AuthService
	sessionService *services.SessionService
	auditService   *services.AuditService
	userService    *services.UserService
	cfg            *config.Config
}

func NewAuthHandler(authService *services.AuthService, sessionService *services.SessionService, auditService *services.AuditService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionService: sessionService,
		auditService:   auditService,
		userService:    services.NewUserService(cfg),
		cfg:            cfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login. Failures are reported with one generic message
// whether the username or the password was at fault; the specific reason goes
// only to the failed-login log.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}

	ip := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	if !services.ValidUsername(req.Username) {
		h.auditService.RecordFailedLogin(req.Username, "Invalid username format", ip, userAgent)
		c.JSON(401, gin.H{"error": "Invalid username or password"})
		return
	}

	if len(req.Password) < 8 {
		h.auditService.RecordFailedLogin(req.Username, "Password too short", ip, userAgent)
		c.JSON(401, gin.H{"error": "Invalid username or password"})
		return
	}

	user, err := h.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.auditService.RecordFailedLogin(req.Username, "Invalid credentials", ip, userAgent)
			c.JSON(401, gin.H{"error": "Invalid username or password"})
			return
		}
		slog.Error("authentication failed", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}

	sess := middleware.CurrentSession(c)
	if err := h.sessionService.Login(sess, user, ip); err != nil {
		slog.Error("session login transition failed", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}
	middleware.ReplaceSession(c, h.cfg, sess)

	h.auditService.Record(&user.ID, models.ActionLoginSuccess, "User logged in from IP: "+ip, ip, userAgent)

	user.PasswordHash = ""
	c.JSON(200, gin.H{"user": user})
}

// Register creates a self-service account with the fixed "user" role.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserExists):
			c.JSON(409, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidUsername),
			errors.Is(err, services.ErrInvalidEmail),
			errors.Is(err, services.ErrWeakPassword):
			c.JSON(400, gin.H{"error": err.Error()})
		default:
			slog.Error("registration failed", "error", err)
			c.JSON(500, gin.H{"error": "Please try again later"})
		}
		return
	}

	h.auditService.Record(&user.ID, models.ActionRegistration,
		"New user registered from IP: "+c.ClientIP(), c.ClientIP(), c.GetHeader("User-Agent"))

	user.PasswordHash = ""
	c.JSON(201, gin.H{"message": "Registration successful! Please login.", "user": user})
}

// Logout destroys the session and hands the client a fresh anonymous one.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	ip := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	if sess.LoggedIn && sess.UserID != nil {
		h.auditService.Record(sess.UserID, models.ActionLogout,
			fmt.Sprintf("User logged out from IP: %s", ip), ip, userAgent)
	}

	fresh, wasLoggedIn, err := h.sessionService.Logout(sess, ip, userAgent)
	if err != nil {
		slog.Error("logout failed", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}
	middleware.ReplaceSession(c, h.cfg, fresh)

	if wasLoggedIn {
		c.JSON(200, gin.H{"message": "You have been successfully logged out."})
		return
	}
	c.JSON(200, gin.H{"message": "No active session found."})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	user, err := h.userService.GetUser(*sess.UserID)
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	c.JSON(200, user)
}
