package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"ourhotel/internal/api/middleware"
	"ourhotel/internal/config"
	"ourhotel/internal/services"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(cfg *config.Config, auditService *services.AuditService) *BookingHandler {
	return &BookingHandler{
		bookingService: services.NewBookingService(cfg, auditService),
	}
}

type CreateBookingRequest struct {
	RoomID       uint   `json:"room_id" binding:"required"`
	CheckInDate  string `json:"check_in_date" binding:"required"`
	CheckOutDate string `json:"check_out_date" binding:"required"`
}

// CreateBooking validates and books a room for the authenticated user. A
// conflicting reservation answers 409 together with the overlapping range so
// the client can show it.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}

	sess := middleware.CurrentSession(c)
	userID := *sess.UserID

	booking, err := h.bookingService.CheckAndCreate(userID, req.RoomID,
		req.CheckInDate, req.CheckOutDate, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		var unavailable *services.RoomUnavailableError
		switch {
		case errors.As(err, &unavailable):
			c.JSON(409, gin.H{
				"error": "This room is already booked for the selected dates. Please choose different dates.",
				"conflict": gin.H{
					"start": unavailable.CheckIn.Format("2006-01-02"),
					"end":   unavailable.CheckOut.Format("2006-01-02"),
				},
			})
		case errors.Is(err, services.ErrInvalidRoom),
			errors.Is(err, services.ErrInvalidDate),
			errors.Is(err, services.ErrInvalidRange),
			errors.Is(err, services.ErrPastDate):
			c.JSON(400, gin.H{"error": err.Error()})
		default:
			slog.Error("booking failed", "error", err)
			c.JSON(500, gin.H{"error": "Error processing your booking. Please try again."})
		}
		return
	}

	c.JSON(201, booking)
}

// GetMyBookings lists the authenticated user's reservations.
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	bookings, err := h.bookingService.BookingsForUser(*sess.UserID)
	if err != nil {
		slog.Error("failed to list bookings", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(200, gin.H{"bookings": bookings})
}

// GetBookedRanges returns reserved intervals keyed by room, for calendar
// pre-population. The optional room_id query narrows to one room.
func (h *BookingHandler) GetBookedRanges(c *gin.Context) {
	var roomID uint
	if raw := c.Query("room_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid room ID"})
			return
		}
		roomID = uint(parsed)
	}

	ranges, err := h.bookingService.BookedRanges(roomID)
	if err != nil {
		slog.Error("failed to list booked ranges", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(200, gin.H{"booked": ranges})
}

// GetRooms returns the room catalog.
func (h *BookingHandler) GetRooms(c *gin.Context) {
	rooms, err := h.bookingService.Rooms()
	if err != nil {
		slog.Error("failed to list rooms", "error", err)
		c.JSON(500, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(200, gin.H{"rooms": rooms})
}
