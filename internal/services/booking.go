package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ourhotel/internal/config"
	"ourhotel/internal/models"
)

var (
	ErrInvalidRoom  = errors.New("please select a valid room")
	ErrInvalidDate  = errors.New("please select both check-in and check-out dates")
	ErrInvalidRange = errors.New("check-out date must be after the check-in date")
	ErrPastDate     = errors.New("check-in date cannot be in the past")
)

// RoomUnavailableError reports a booking conflict together with the stored
// range that overlaps the requested one, so the caller can display it.
type RoomUnavailableError struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room is already booked from %s to %s",
		e.CheckIn.Format(dateLayout), e.CheckOut.Format(dateLayout))
}

// BookedRange is one reserved interval, half-open [Start, End).
type BookedRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type BookingService struct {
	cfg   *config.Config
	audit *AuditService
}

func NewBookingService(cfg *config.Config, audit *AuditService) *BookingService {
	return &BookingService{cfg: cfg, audit: audit}
}

// CheckAndCreate validates a booking request and inserts it if the room is
// free. Validation order: room exists, dates well-formed, check-out after
// check-in, check-in not in the past, no overlap. Two half-open intervals
// overlap iff a_in < b_out AND b_in < a_out, so back-to-back stays where one
// checkout equals the next check-in do not conflict. The overlap check and the
// insert run inside one transaction, with the conflict probe locking matching
// rows, so two concurrent submissions for overlapping dates cannot both
// succeed; the loser sees the winner's row as a conflict. A successful booking
// is audited here so every caller leaves a trail.
func (s *BookingService) CheckAndCreate(userID, roomID uint, checkIn, checkOut, ip, userAgent string) (*models.Booking, error) {
	var room models.Room
	if err := models.DB.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRoom
		}
		return nil, err
	}

	in, okIn := ParseDate(checkIn)
	out, okOut := ParseDate(checkOut)
	if !okIn || !okOut {
		return nil, ErrInvalidDate
	}

	if !out.After(in) {
		return nil, ErrInvalidRange
	}

	if in.Before(Today()) {
		return nil, ErrPastDate
	}

	booking := &models.Booking{
		UserID:       userID,
		RoomID:       roomID,
		CheckInDate:  in,
		CheckOutDate: out,
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = models.DB.Transaction(func(tx *gorm.DB) error {
			var conflict models.Booking
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("room_id = ? AND check_in_date < ? AND check_out_date > ?", roomID, out, in).
				Order("check_in_date").
				First(&conflict).Error
			if err == nil {
				return &RoomUnavailableError{CheckIn: conflict.CheckInDate, CheckOut: conflict.CheckOutDate}
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			return tx.Create(booking).Error
		})
		// Under concurrent submissions the loser's locked probe can abort
		// the whole transaction instead of waiting; one re-run then sees the
		// winner's row and reports the conflict.
		if err != nil && attempt == 0 && retryableTxError(err) {
			booking.ID = 0
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(&userID, models.ActionBookingCreated,
		fmt.Sprintf("User booked room ID: %d (Booking ID: %d)", booking.RoomID, booking.ID), ip, userAgent)

	return booking, nil
}

// retryableTxError reports whether the transaction failed on lock contention
// rather than on a real error: a MySQL deadlock or lock wait timeout, or
// sqlite's busy error.
func retryableTxError(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return strings.Contains(err.Error(), "database is locked")
}

// BookedRanges returns the reserved intervals keyed by room. A zero roomID
// returns every room's ranges; callers use this to pre-populate calendars.
func (s *BookingService) BookedRanges(roomID uint) (map[uint][]BookedRange, error) {
	query := models.DB.Model(&models.Booking{}).Order("room_id, check_in_date")
	if roomID != 0 {
		query = query.Where("room_id = ?", roomID)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}

	ranges := make(map[uint][]BookedRange)
	for _, b := range bookings {
		ranges[b.RoomID] = append(ranges[b.RoomID], BookedRange{
			Start: b.CheckInDate.Format(dateLayout),
			End:   b.CheckOutDate.Format(dateLayout),
		})
	}
	return ranges, nil
}

// UserBooking is a booking joined with its room, plus the derived stay length
// and total price.
type UserBooking struct {
	ID           uint    `json:"id"`
	RoomType     string  `json:"room_type"`
	RoomNumber   string  `json:"room_number"`
	Price        float64 `json:"price"`
	CheckInDate  string  `json:"check_in_date"`
	CheckOutDate string  `json:"check_out_date"`
	Nights       int     `json:"nights"`
	TotalPrice   float64 `json:"total_price"`
}

// BookingsForUser returns the user's reservations newest first.
func (s *BookingService) BookingsForUser(userID uint) ([]UserBooking, error) {
	var bookings []models.Booking
	err := models.DB.Preload("Room").
		Where("user_id = ?", userID).
		Order("check_in_date DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	out := make([]UserBooking, 0, len(bookings))
	for _, b := range bookings {
		nights := int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
		out = append(out, UserBooking{
			ID:           b.ID,
			RoomType:     b.Room.RoomType,
			RoomNumber:   b.Room.RoomNumber,
			Price:        b.Room.Price,
			CheckInDate:  b.CheckInDate.Format(dateLayout),
			CheckOutDate: b.CheckOutDate.Format(dateLayout),
			Nights:       nights,
			TotalPrice:   float64(nights) * b.Room.Price,
		})
	}
	return out, nil
}

// Rooms returns the room catalog ordered by id.
func (s *BookingService) Rooms() ([]models.Room, error) {
	var rooms []models.Room
	if err := models.DB.Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// SeedRooms creates the default room catalog on an empty database.
func (s *BookingService) SeedRooms() error {
	var count int64
	models.DB.Model(&models.Room{}).Count(&count)
	if count > 0 {
		return nil
	}

	rooms := []models.Room{
		{RoomType: "Standard", RoomNumber: "101", Price: 120.00},
		{RoomType: "Deluxe", RoomNumber: "102", Price: 180.00},
		{RoomType: "Family", RoomNumber: "103", Price: 250.00},
		{RoomType: "Suite", RoomNumber: "104", Price: 350.00},
	}
	return models.DB.Create(&rooms).Error
}
