package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/allergen-scan/internal/auth"
	"github.com/example/allergen-scan/internal/catalog"
	"github.com/example/allergen-scan/internal/classifier"
	"github.com/example/allergen-scan/internal/engine"
	"github.com/example/allergen-scan/internal/profile"
	"github.com/example/allergen-scan/internal/scan"
)

// MaxUploadSize caps scan image uploads at 10 MiB.
const MaxUploadSize = 10 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, eng *engine.Engine, profiles *profile.Store, catalogRepo *catalog.Repository, scans *scan.Sink, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authorized := router.Group("/", authMiddleware)

	authorized.POST("/scan", postScan(eng))
	authorized.GET("/scans/:id", getScan(eng))
	authorized.GET("/history", getHistory(scans))
	authorized.GET("/profile", getProfile(profiles))
	authorized.PUT("/profile", putProfile(profiles, catalogRepo))

	registerAdminRoutes(authorized.Group("/admin", auth.RequireStaff()), profiles, catalogRepo, scans)
}

func postScan(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if file.Size > MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return
		}
		if contentType := file.Header.Get("Content-Type"); contentType != "image/jpeg" && contentType != "image/jpg" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only JPEG images are supported"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		outcome, err := eng.Evaluate(c.Request.Context(), userID, data, file.Filename)
		if err != nil {
			if classifier.IsClassificationError(err) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "classification failed, please try again"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
			return
		}

		c.JSON(http.StatusOK, outcome)
	}
}

func getScan(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		scanID := c.Param("id")
		if scanID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		outcome, err := eng.GetResult(c.Request.Context(), userID, scanID)
		if err != nil {
			switch {
			case errors.Is(err, engine.ErrEvaluationPending):
				c.JSON(http.StatusAccepted, gin.H{"status": "processing", "scan_id": scanID})
			case errors.Is(err, scan.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan"})
			}
			return
		}

		c.JSON(http.StatusOK, outcome)
	}
}

func getHistory(scans *scan.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		records, err := scans.ListByUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"scans": records})
	}
}

func getProfile(profiles *profile.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		prof, err := profiles.Get(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
			return
		}
		if prof == nil {
			c.JSON(http.StatusOK, gin.H{"user_id": userID, "allergens": []string{}})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user_id": userID, "allergens": prof.AllergenNames()})
	}
}

type profileRequest struct {
	Allergens []string `json:"allergens"`
}

func putProfile(profiles *profile.Store, catalogRepo *catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var req profileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
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

		prof, err := profiles.Upsert(c.Request.Context(), userID, allergens)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user_id": userID, "allergens": prof.AllergenNames()})
	}
}
