package server

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecocollect-dev/ecocollect/internal/auth"
	"github.com/ecocollect-dev/ecocollect/internal/models"
)

// GoogleLoginRequest carries the identity-provider credential.
type GoogleLoginRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// LoginResponse represents a successful credential exchange
type LoginResponse struct {
	SessionToken string      `json:"session_token"`
	User         *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	Role    string `json:"role"`
}

func userDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Picture: user.Picture,
		Role:    user.Role,
	}
}

// googleLogin exchanges a google credential for a session token,
// creating the account on first sign-in.
func (s *Server) googleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "credential is required"})
		return
	}

	identity, err := auth.ParseCredential(req.Credential)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credential"})
		return
	}

	role := models.RoleUser
	for _, email := range s.config.Auth.AdminEmails {
		if email == identity.Email {
			role = models.RoleAdmin
			break
		}
	}

	var user models.User
	err = s.db.Where("email = ?", identity.Email).First(&user).Error
	switch {
	case err == nil:
		// Refresh profile fields from the provider on each login.
		updates := map[string]interface{}{
			"name":    identity.Name,
			"picture": identity.Picture,
			"role":    role,
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update user profile")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
		user.Name = identity.Name
		user.Picture = identity.Picture
		user.Role = role
	case err == gorm.ErrRecordNotFound:
		user = models.User{
			Email:   identity.Email,
			Name:    identity.Name,
			Picture: identity.Picture,
			Role:    role,
		}
		if err := s.db.Create(&user).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to create user")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
		s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User created")
	default:
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		SessionToken: token,
		User:         userDetail(&user),
	})
}

// googleStart completes the browser sign-in flow for the CLI. The
// sandbox has no real provider round trip, so it redirects straight
// back to the CLI's loopback listener with a development credential.
func (s *Server) googleStart(c *gin.Context) {
	redirectURI := c.Query("redirect_uri")
	if redirectURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "redirect_uri is required"})
		return
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Hostname() != "127.0.0.1" && parsed.Hostname() != "localhost" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "redirect_uri must be a loopback address"})
		return
	}

	email := c.Query("email")
	if email == "" {
		email = "dev@ecocollect.local"
	}

	query := parsed.Query()
	query.Set("credential", email)
	parsed.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, parsed.String())
}

func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Unauthorized"})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, userDetail(&user))
}

// logout acknowledges the sign-out. Session tokens are stateless, so
// there is nothing to revoke server-side; the client discards its copy.
func (s *Server) logout(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	if sessionData != nil {
		s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Logged out"})
}
