package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account created through the Google sign-in
// exchange. There are no passwords anywhere; the identity provider
// owns authentication.
type User struct {
	BaseModel
	Email   string `json:"email" gorm:"uniqueIndex;not null"`
	Name    string `json:"name" gorm:"not null"`
	Picture string `json:"picture"`
	Role    string `json:"role" gorm:"not null;default:user"`
}

// WasteType represents a bookable waste category.
type WasteType struct {
	BaseModel
	Name        string  `json:"name" gorm:"uniqueIndex;not null"`
	Description string  `json:"description"`
	PricePerKG  float64 `json:"price_per_kg" gorm:"not null"`
}

// Booking statuses. Only pending and cancelled bookings may be
// deleted.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingInTransit = "in-transit"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Payment statuses for bookings and payment sessions.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Booking represents a waste pickup booking.
type Booking struct {
	BaseModel
	UserID          string  `json:"user_id" gorm:"index;not null"`
	WasteTypeID     string  `json:"waste_type_id" gorm:"not null"`
	WasteTypeName   string  `json:"waste_type_name" gorm:"not null"`
	EstimatedWeight float64 `json:"estimated_weight" gorm:"not null"`
	EstimatedPrice  float64 `json:"estimated_price" gorm:"not null"`
	PickupDate      string  `json:"pickup_date" gorm:"not null"`
	PickupTime      string  `json:"pickup_time" gorm:"not null"`
	PickupAddress   string  `json:"pickup_address" gorm:"not null"`
	Notes           string  `json:"notes"`
	Status          string  `json:"status" gorm:"not null;default:pending"`
	PaymentStatus   string  `json:"payment_status" gorm:"not null;default:unpaid"`
}

// Deletable reports whether the booking may be deleted by its owner.
func (b *Booking) Deletable() bool {
	return b.Status == BookingPending || b.Status == BookingCancelled
}

// Payment session states. A sandbox session auto-settles shortly after
// creation and expires when left unpaid past its deadline.
const (
	SessionOpen    = "open"
	SessionPaid    = "paid"
	SessionExpired = "expired"
)

// PaymentSession represents a mock checkout session.
type PaymentSession struct {
	BaseModel
	BookingID string    `json:"booking_id" gorm:"index;not null"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Amount    float64   `json:"amount" gorm:"not null"`
	Status    string    `json:"status" gorm:"not null;default:open"`
	SettleAt  time.Time `json:"settle_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AutoMigrate creates or updates the sandbox schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&WasteType{},
		&Booking{},
		&PaymentSession{},
	)
}
