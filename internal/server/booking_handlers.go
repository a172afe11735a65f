package server

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecocollect-dev/ecocollect/internal/models"
)

// CreateBookingRequest represents a new pickup booking
type CreateBookingRequest struct {
	WasteTypeID     string  `json:"waste_type_id" binding:"required"`
	EstimatedWeight float64 `json:"estimated_weight" binding:"required,gt=0"`
	PickupDate      string  `json:"pickup_date" binding:"required"`
	PickupTime      string  `json:"pickup_time" binding:"required"`
	PickupAddress   string  `json:"pickup_address" binding:"required"`
	Notes           string  `json:"notes"`
}

// estimatePrice computes the pickup price from the waste type rate,
// rounded to cents.
func estimatePrice(pricePerKG, weight float64) float64 {
	return math.Round(pricePerKG*weight*100) / 100
}

func (s *Server) createBooking(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	var wasteType models.WasteType
	if err := s.db.Where("id = ?", req.WasteTypeID).First(&wasteType).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Unknown waste type"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find waste type")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	booking := models.Booking{
		UserID:          sessionData.UserID,
		WasteTypeID:     wasteType.ID,
		WasteTypeName:   wasteType.Name,
		EstimatedWeight: req.EstimatedWeight,
		EstimatedPrice:  estimatePrice(wasteType.PricePerKG, req.EstimatedWeight),
		PickupDate:      req.PickupDate,
		PickupTime:      req.PickupTime,
		PickupAddress:   req.PickupAddress,
		Notes:           req.Notes,
		Status:          models.BookingPending,
		PaymentStatus:   models.PaymentUnpaid,
	}

	if err := s.db.Create(&booking).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create booking")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create booking"})
		return
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("user_id", sessionData.UserID).
		Str("waste_type", wasteType.Name).
		Msg("Booking created")

	c.JSON(http.StatusCreated, booking)
}

func (s *Server) listBookings(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var bookings []models.Booking
	if err := s.db.Where("user_id = ?", sessionData.UserID).
		Order("created_at DESC").Find(&bookings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// findOwnBooking loads a booking and checks ownership. Admins may not
// use the owner endpoints to reach other users' bookings either; the
// admin listing serves that.
func (s *Server) findOwnBooking(c *gin.Context) (*models.Booking, bool) {
	sessionData, _ := GetSessionData(c)
	bookingID := c.Param("id")

	var booking models.Booking
	if err := s.db.Where("id = ? AND user_id = ?", bookingID, sessionData.UserID).
		First(&booking).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Booking not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find booking")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return nil, false
	}

	return &booking, true
}

func (s *Server) getBooking(c *gin.Context) {
	booking, ok := s.findOwnBooking(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (s *Server) deleteBooking(c *gin.Context) {
	booking, ok := s.findOwnBooking(c)
	if !ok {
		return
	}

	if !booking.Deletable() {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Only pending or cancelled bookings can be deleted",
		})
		return
	}

	if err := s.db.Delete(booking).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete booking")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to delete booking"})
		return
	}

	s.logger.Info().Str("booking_id", booking.ID).Msg("Booking deleted")

	c.JSON(http.StatusOK, gin.H{"detail": "Booking deleted"})
}
