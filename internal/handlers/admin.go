package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/example/allergen-scan/internal/catalog"
	"github.com/example/allergen-scan/internal/profile"
	"github.com/example/allergen-scan/internal/scan"
)

type foodRequest struct {
	Name        string   `json:"name" binding:"required"`
	Ingredients string   `json:"ingredients"`
	Allergens   []string `json:"allergens"`
}

type allergenRequest struct {
	Name string `json:"name" binding:"required"`
}

func registerAdminRoutes(admin *gin.RouterGroup, profiles *profile.Store, catalogRepo *catalog.Repository, scans *scan.Sink) {
	admin.GET("/dashboard", getDashboard(profiles, catalogRepo, scans))

	admin.GET("/foods", listFoods(catalogRepo))
	admin.POST("/foods", createFood(catalogRepo))
	admin.PUT("/foods/:id", updateFood(catalogRepo))
	admin.DELETE("/foods/:id", deleteFood(catalogRepo))

	admin.GET("/allergens", listAllergens(catalogRepo))
	admin.POST("/allergens", createAllergen(catalogRepo))
	admin.PUT("/allergens/:id", updateAllergen(catalogRepo))
	admin.DELETE("/allergens/:id", deleteAllergen(catalogRepo))

	admin.GET("/scans", listScans(scans))
	admin.DELETE("/scans/:id", deleteScan(scans))
}

func getDashboard(profiles *profile.Store, catalogRepo *catalog.Repository, scans *scan.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		counts, err := catalogRepo.Counts(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog counts"})
			return
		}
		profileCount, err := profiles.Count(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile count"})
			return
		}
		stats, err := scans.Stats(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan stats"})
			return
		}
		recent, err := scans.ListRecent(ctx, 15)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent scans"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stats": gin.H{
				"profiles":  profileCount,
				"foods":     counts.Foods,
				"allergens": counts.Allergens,
				"scans":     stats.TotalScans,
				"alerts":    stats.Alerts,
			},
			"top_foods":    stats.TopFoods,
			"recent_scans": recent,
		})
	}
}

func listFoods(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		foods, err := catalogRepo.ListFoods(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list foods"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"foods": foods})
	}
}

func createFood(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req foodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		allergens, missing, err := catalogRepo.FindAllergensByName(c.Request.Context(), req.Allergens)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve allergens"})
			return
		}
		if len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown allergens", "unknown": missing})
			return
		}

		food := &catalog.Food{Name: req.Name, Ingredients: req.Ingredients, Allergens: allergens}
		if err := catalogRepo.CreateFood(c.Request.Context(), food); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "failed to create food"})
			return
		}
		c.JSON(http.StatusCreated, food)
	}
}

func updateFood(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req foodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		allergens, missing, err := catalogRepo.FindAllergensByName(c.Request.Context(), req.Allergens)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve allergens"})
			return
		}
		if len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown allergens", "unknown": missing})
			return
		}

		food := &catalog.Food{ID: id, Name: req.Name, Ingredients: req.Ingredients, Allergens: allergens}
		if err := catalogRepo.UpdateFood(c.Request.Context(), food); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "food not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update food"})
			return
		}
		c.JSON(http.StatusOK, food)
	}
}

func deleteFood(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := catalogRepo.DeleteFood(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete food"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func listAllergens(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		allergens, err := catalogRepo.ListAllergens(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list allergens"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"allergens": allergens})
	}
}

func createAllergen(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req allergenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		allergen := &catalog.Allergen{Name: req.Name}
		if err := catalogRepo.CreateAllergen(c.Request.Context(), allergen); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "failed to create allergen"})
			return
		}
		c.JSON(http.StatusCreated, allergen)
	}
}

func updateAllergen(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req allergenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		allergen := &catalog.Allergen{ID: id, Name: req.Name}
		if err := catalogRepo.UpdateAllergen(c.Request.Context(), allergen); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update allergen"})
			return
		}
		c.JSON(http.StatusOK, allergen)
	}
}

func deleteAllergen(catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := catalogRepo.DeleteAllergen(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete allergen"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func listScans(scans *scan.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = parsed
		}
		records, err := scans.ListRecent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list scans"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scans": records})
	}
}

func deleteScan(scans *scan.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		scanID := c.Param("id")
		if err := scans.Delete(c.Request.Context(), scanID); err != nil {
			if errors.Is(err, scan.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete scan"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": scanID})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
