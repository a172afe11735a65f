package api

import "time"

// UserProfile represents the authenticated user as returned by the backend.
// It is replaced wholesale on login and cleared on logout or invalidation,
// never partially mutated.
type UserProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role"`
}

// IsAdmin reports whether the profile carries the admin role.
func (u *UserProfile) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// User roles known to the backend.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// LoginRequest carries the identity-provider credential exchanged for a
// backend session token.
type LoginRequest struct {
	Credential string `json:"credential"`
}

// LoginResponse represents the session exchange response.
type LoginResponse struct {
	Token string       `json:"session_token"`
	User  *UserProfile `json:"user"`
}

// WasteType represents a bookable waste category from the public catalog.
type WasteType struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	PricePerKG  float64 `json:"price_per_kg"`
}

// Booking statuses as reported by the backend.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingInTransit = "in-transit"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentUnpaid  = "unpaid"
	PaymentPaid    = "paid"
	PaymentExpired = "expired"
)

// CreateBookingRequest represents a new pickup booking. The estimated
// price is computed server-side from the waste type's price per kg.
type CreateBookingRequest struct {
	WasteTypeID     string  `json:"waste_type_id" validate:"required"`
	EstimatedWeight float64 `json:"estimated_weight" validate:"required,gt=0"`
	PickupDate      string  `json:"pickup_date" validate:"required"`
	PickupTime      string  `json:"pickup_time" validate:"required"`
	PickupAddress   string  `json:"pickup_address" validate:"required"`
	Notes           string  `json:"notes,omitempty"`
}

// Booking represents a pickup booking.
type Booking struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	WasteTypeID     string    `json:"waste_type_id"`
	WasteTypeName   string    `json:"waste_type_name"`
	EstimatedWeight float64   `json:"estimated_weight"`
	EstimatedPrice  float64   `json:"estimated_price"`
	PickupDate      string    `json:"pickup_date"`
	PickupTime      string    `json:"pickup_time"`
	PickupAddress   string    `json:"pickup_address"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`
}

// UpdateBookingStatusRequest updates a booking's status (admin only).
type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed in-transit completed cancelled"`
}

// CheckoutRequest creates a payment session for a booking.
type CheckoutRequest struct {
	BookingID string `json:"booking_id"`
}

// CheckoutSession is returned by the payment checkout endpoint. URL is
// where the user completes payment.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentStatus reports the state of a payment session.
type PaymentStatus struct {
	SessionID     string  `json:"session_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Amount        float64 `json:"amount"`
}

// AdminStats holds the aggregate counters shown on the admin dashboard.
type AdminStats struct {
	TotalBookings       int64   `json:"total_bookings"`
	PendingBookings     int64   `json:"pending_bookings"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalWasteCollected float64 `json:"total_waste_collected"`
}

// SeedResult reports the outcome of demo-data seeding.
type SeedResult struct {
	Message string `json:"message"`
	Seeded  bool   `json:"seeded"`
}
