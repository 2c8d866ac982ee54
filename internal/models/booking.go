package models

import (
	"time"
)

type Room struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RoomType   string    `json:"room_type" gorm:"type:varchar(100);not null"`
	RoomNumber string    `json:"room_number" gorm:"type:varchar(20);not null"`
	Price      float64   `json:"price" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// Booking holds a half-open [CheckInDate, CheckOutDate) reservation.
// Bookings for the same room must never overlap.
type Booking struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	RoomID       uint      `json:"room_id" gorm:"index;not null"`
	CheckInDate  time.Time `json:"check_in_date" gorm:"type:date;not null"`
	CheckOutDate time.Time `json:"check_out_date" gorm:"type:date;not null"`
	CreatedAt    time.Time `json:"created_at"`
	User         User      `json:"-" gorm:"foreignKey:UserID"`
	Room         Room      `json:"room,omitempty" gorm:"foreignKey:RoomID"`
}
