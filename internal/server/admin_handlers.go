package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecocollect-dev/ecocollect/internal/models"
)

// AdminStatsResponse holds the dashboard aggregates
type AdminStatsResponse struct {
	TotalBookings       int64   `json:"total_bookings"`
	PendingBookings     int64   `json:"pending_bookings"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalWasteCollected float64 `json:"total_waste_collected"`
}

// UpdateBookingStatusRequest changes a booking's status
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed in-transit completed cancelled"`
}

// adminStats aggregates across all users. Revenue counts paid
// bookings; waste collected counts completed pickups.
func (s *Server) adminStats(c *gin.Context) {
	var stats AdminStatsResponse

	if err := s.db.Model(&models.Booking{}).Count(&stats.TotalBookings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if err := s.db.Model(&models.Booking{}).
		Where("status = ?", models.BookingPending).
		Count(&stats.PendingBookings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count pending bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if err := s.db.Model(&models.Booking{}).
		Where("payment_status = ?", models.PaymentPaid).
		Select("COALESCE(SUM(estimated_price), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to sum revenue")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if err := s.db.Model(&models.Booking{}).
		Where("status = ?", models.BookingCompleted).
		Select("COALESCE(SUM(estimated_weight), 0)").
		Scan(&stats.TotalWasteCollected).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to sum collected waste")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) adminListBookings(c *gin.Context) {
	var bookings []models.Booking
	if err := s.db.Order("created_at DESC").Find(&bookings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (s *Server) updateBookingStatus(c *gin.Context) {
	bookingID := c.Param("id")

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "status must be one of pending, confirmed, in-transit, completed, cancelled"})
		return
	}

	var booking models.Booking
	if err := s.db.Where("id = ?", bookingID).First(&booking).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Booking not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find booking")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if err := s.db.Model(&booking).Update("status", req.Status).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update booking status")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to update booking"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("status", req.Status).
		Str("updated_by", sessionData.UserID).
		Msg("Booking status updated")

	booking.Status = req.Status
	c.JSON(http.StatusOK, booking)
}
