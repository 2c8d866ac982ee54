package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"ourhotel/internal/api/middleware"
	"ourhotel/internal/config"
	"ourhotel/internal/models"
	"ourhotel/internal/services"
)

type UserHandler struct {
	userService  *services.UserService
	auditService *services.AuditService
}

func NewUserHandler(cfg *config.Config, auditService *services.AuditService) *UserHandler {
	return &UserHandler{
		userService:  services.NewUserService(cfg),
		auditService: auditService,
	}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// GetUsers returns all users
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.GetUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(200, gin.H{"users": users})
}

// CreateUser creates a new user (admin operation).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.userService.CreateUser(req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	sess := middleware.CurrentSession(c)
	h.auditService.Record(sess.UserID, models.ActionUserCreated,
		fmt.Sprintf("Admin created new user: %s (ID: %d)", user.Username, user.ID),
		c.ClientIP(), c.GetHeader("User-Agent"))

	c.JSON(201, user)
}

// DeleteUser deletes a user and their bookings. Self-deletion is rejected.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid user ID"})
		return
	}

	sess := middleware.CurrentSession(c)
	actingID := *sess.UserID

	if err := h.userService.DeleteCascade(actingID, uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrCannotDeleteSelf):
			c.JSON(400, gin.H{"error": "You cannot delete your own account!"})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(404, gin.H{"error": err.Error()})
		default:
			slog.Error("user delete failed", "error", err)
			c.JSON(500, gin.H{"error": "Error during deletion. Please try again."})
		}
		return
	}

	h.auditService.Record(&actingID, models.ActionUserDeleted,
		fmt.Sprintf("Admin deleted user ID: %d", id),
		c.ClientIP(), c.GetHeader("User-Agent"))

	c.JSON(200, gin.H{"message": "User and booking records successfully deleted!"})
}

// GetProfile returns the authenticated user's own account.
func (h *UserHandler) GetProfile(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	user, err := h.userService.GetUser(*sess.UserID)
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	c.JSON(200, user)
}

// UpdateProfile updates the authenticated user's username and email.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}

	sess := middleware.CurrentSession(c)
	userID := *sess.UserID

	user, err := h.userService.UpdateProfile(userID, req.Username, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserExists):
			c.JSON(409, gin.H{"error": "Email or username may already be in use."})
		case errors.Is(err, services.ErrInvalidUsername), errors.Is(err, services.ErrInvalidEmail):
			c.JSON(400, gin.H{"error": err.Error()})
		default:
			slog.Error("profile update failed", "error", err)
			c.JSON(500, gin.H{"error": "Please try again later"})
		}
		return
	}

	h.auditService.Record(&userID, models.ActionProfileUpdated,
		"User updated profile information", c.ClientIP(), c.GetHeader("User-Agent"))

	c.JSON(200, gin.H{"message": "Profile successfully updated!", "user": user})
}
