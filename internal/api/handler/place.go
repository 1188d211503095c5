package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/timmy/colorwalk/internal/service"
)

// maxPhotoSize caps uploaded photo payloads at 10MB.
const maxPhotoSize = 10 << 20

// PlaceHandler handles place CRUD endpoints.
type PlaceHandler struct {
	placeService *service.PlaceService
	scheduler    *service.EnrichmentScheduler
}

// NewPlaceHandler creates a new place handler.
// Parameters:
//   - placeService: place service instance.
//   - scheduler: enrichment scheduler for newly created places.
// Returns:
//   - *PlaceHandler: initialized handler.
func NewPlaceHandler(placeService *service.PlaceService, scheduler *service.EnrichmentScheduler) *PlaceHandler {
	return &PlaceHandler{
		placeService: placeService,
		scheduler:    scheduler,
	}
}

// CreatePlace handles POST /api/v1/places. It responds as soon as the place
// record is saved; feature enrichment is scheduled after the response is
// committed and never blocks or fails the request.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Field 'title' is required",
		})
		return
	}

	ownerID := c.PostForm("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Field 'owner_id' is required",
		})
		return
	}

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "File 'photo' is required",
		})
		return
	}
	defer file.Close()

	photoData, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read photo: " + err.Error(),
		})
		return
	}
	if len(photoData) > maxPhotoSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "Photo exceeds the 10MB limit",
		})
		return
	}

	place, err := h.placeService.Create(c.Request.Context(), &service.CreatePlaceInput{
		OwnerID:     ownerID,
		Title:       title,
		Description: c.PostForm("description"),
		Address:     c.PostForm("address"),
		PhotoData:   photoData,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to create place: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"place":     place,
		"photo_url": h.placeService.PhotoURL(place),
	})

	h.scheduler.Schedule(place.ID)
}

// GetPlace handles GET /api/v1/places/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *PlaceHandler) GetPlace(c *gin.Context) {
	place, err := h.placeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Place not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get place: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"place":     place,
		"photo_url": h.placeService.PhotoURL(place),
	})
}

// GetPhoto handles GET /api/v1/places/:id/photo. It streams the stored photo
// through the API, which keeps private buckets usable.
// Parameters:
//   - c: Gin request context.
// Returns: none (streams the photo body).
func (h *PlaceHandler) GetPhoto(c *gin.Context) {
	body, contentType, err := h.placeService.Photo(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Place not found",
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Photo not available: " + err.Error(),
		})
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

// ListPlaces handles GET /api/v1/places.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *PlaceHandler) ListPlaces(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'owner_id' is required",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	places, err := h.placeService.List(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list places: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"places": places,
		"total":  len(places),
	})
}

// DeletePlace handles DELETE /api/v1/places/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *PlaceHandler) DeletePlace(c *gin.Context) {
	err := h.placeService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Place not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete place: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": true,
	})
}

// GetStats handles GET /api/v1/stats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *PlaceHandler) GetStats(c *gin.Context) {
	stats, err := h.placeService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get stats: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
