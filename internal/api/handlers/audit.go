package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"ourhotel/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetAuditLogs returns audit entries newest first (admin only).
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	limit, offset := pagination(c)

	entries, err := h.auditService.AuditLogs(limit, offset)
	if err != nil {
		slog.Error("failed to read audit log", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(200, gin.H{"entries": entries})
}

// GetFailedLogins returns failed-login records newest first (admin only).
func (h *AuditHandler) GetFailedLogins(c *gin.Context) {
	limit, offset := pagination(c)

	records, err := h.auditService.FailedLogins(limit, offset)
	if err != nil {
		slog.Error("failed to read failed-login log", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(200, gin.H{"records": records})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
