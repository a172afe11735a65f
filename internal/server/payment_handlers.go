package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecocollect-dev/ecocollect/internal/models"
)

// CheckoutRequest creates a payment session for a booking
type CheckoutRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// CheckoutResponse points the client at the mock payment page
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentStatusResponse reports a payment session's state
type PaymentStatusResponse struct {
	SessionID     string  `json:"session_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Amount        float64 `json:"amount"`
}

// checkoutPayment opens a mock payment session for an unpaid booking.
// The session settles itself after a short delay so polling clients
// observe the transition without a real gateway.
func (s *Server) checkoutPayment(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "booking_id is required"})
		return
	}

	var booking models.Booking
	if err := s.db.Where("id = ? AND user_id = ?", req.BookingID, sessionData.UserID).
		First(&booking).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Booking not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find booking")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if booking.PaymentStatus == models.PaymentPaid {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Booking is already paid"})
		return
	}
	if booking.Status == models.BookingCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Cannot pay for a cancelled booking"})
		return
	}

	now := time.Now()
	session := models.PaymentSession{
		BookingID: booking.ID,
		UserID:    sessionData.UserID,
		Amount:    booking.EstimatedPrice,
		Status:    models.SessionOpen,
		SettleAt:  now.Add(paymentSettleDelay),
		ExpiresAt: now.Add(paymentExpiryWindow),
	}

	if err := s.db.Create(&session).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create payment session")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create payment session"})
		return
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Str("booking_id", booking.ID).
		Float64("amount", session.Amount).
		Msg("Payment session created")

	c.JSON(http.StatusOK, CheckoutResponse{
		SessionID: session.ID,
		URL:       fmt.Sprintf("http://%s/pay/%s", c.Request.Host, session.ID),
	})
}

// paymentPage is the mock checkout page. There is nothing to fill in:
// the session settles on its own and the page tells the user so.
func (s *Server) paymentPage(c *gin.Context) {
	sessionID := c.Param("session_id")

	var session models.PaymentSession
	if err := s.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		c.String(http.StatusNotFound, "Payment session not found")
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK,
		"<html><body><h1>EcoCollect sandbox checkout</h1>"+
			"<p>Session %s for $%.2f settles automatically in a few seconds.</p>"+
			"<p>You can close this tab and check the status from the CLI.</p>"+
			"</body></html>",
		session.ID, session.Amount)
}

// paymentStatus reports a session's state, advancing the mock
// lifecycle on read: open sessions settle after the settle delay and
// expire past the deadline.
func (s *Server) paymentStatus(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	sessionID := c.Param("session_id")

	var session models.PaymentSession
	if err := s.db.Where("id = ? AND user_id = ?", sessionID, sessionData.UserID).
		First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Payment session not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find payment session")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if session.Status == models.SessionOpen {
		now := time.Now()
		switch {
		case now.After(session.ExpiresAt):
			if err := s.expireSession(&session); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
				return
			}
		case now.After(session.SettleAt):
			if err := s.settleSession(&session); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
				return
			}
		}
	}

	var booking models.Booking
	if err := s.db.Where("id = ?", session.BookingID).First(&booking).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to find booking for payment session")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, PaymentStatusResponse{
		SessionID:     session.ID,
		Status:        session.Status,
		PaymentStatus: booking.PaymentStatus,
		Amount:        session.Amount,
	})
}

// settleSession marks the session paid and confirms the booking.
func (s *Server) settleSession(session *models.PaymentSession) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(session).Update("status", models.SessionPaid).Error; err != nil {
			return err
		}
		return tx.Model(&models.Booking{}).
			Where("id = ?", session.BookingID).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentPaid,
				"status":         models.BookingConfirmed,
			}).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Failed to settle payment session")
		return err
	}

	session.Status = models.SessionPaid
	s.logger.Info().Str("session_id", session.ID).Msg("Payment session settled")
	return nil
}

func (s *Server) expireSession(session *models.PaymentSession) error {
	if err := s.db.Model(session).Update("status", models.SessionExpired).Error; err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Failed to expire payment session")
		return err
	}

	session.Status = models.SessionExpired
	s.logger.Info().Str("session_id", session.ID).Msg("Payment session expired")
	return nil
}
