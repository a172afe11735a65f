package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecocollect-dev/ecocollect/internal/models"
)

// defaultWasteTypes are the categories created by seed-data.
var defaultWasteTypes = []models.WasteType{
	{Name: "Organic", Description: "Food scraps, garden waste and other compostables", PricePerKG: 0.50},
	{Name: "Plastic", Description: "Bottles, packaging and other recyclable plastics", PricePerKG: 1.20},
	{Name: "Paper", Description: "Newspapers, cardboard and office paper", PricePerKG: 0.80},
	{Name: "Metal", Description: "Cans, scrap metal and appliances", PricePerKG: 2.50},
	{Name: "Electronic", Description: "Phones, computers and other e-waste", PricePerKG: 5.00},
	{Name: "Glass", Description: "Bottles, jars and flat glass", PricePerKG: 0.60},
}

func (s *Server) listWasteTypes(c *gin.Context) {
	var wasteTypes []models.WasteType
	if err := s.db.Order("name ASC").Find(&wasteTypes).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list waste types")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, wasteTypes)
}

// seedData populates the default waste types. Idempotent: a second
// call reports the data is already present and changes nothing.
func (s *Server) seedData(c *gin.Context) {
	var count int64
	if err := s.db.Model(&models.WasteType{}).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count waste types")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if count > 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "Demo data already seeded",
			"seeded":  false,
		})
		return
	}

	wasteTypes := make([]models.WasteType, len(defaultWasteTypes))
	copy(wasteTypes, defaultWasteTypes)
	if err := s.db.Create(&wasteTypes).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to seed waste types")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to seed demo data"})
		return
	}

	s.logger.Info().Int("count", len(wasteTypes)).Msg("Seeded waste types")

	c.JSON(http.StatusOK, gin.H{
		"message": "Demo data seeded",
		"seeded":  true,
	})
}
