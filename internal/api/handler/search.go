package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/colorwalk/internal/service"
)

// SearchHandler handles visual search endpoints.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - searchService: search service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// VisualSearch handles POST /api/v1/search/visual. The query image and an
// optional text query are analyzed and scored against saved places,
// restricted to one owner when 'owner_id' is supplied.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) VisualSearch(c *gin.Context) {
	req := service.VisualSearchRequest{
		OwnerID:   c.PostForm("owner_id"),
		QueryText: c.PostForm("query_text"),
	}

	if file, _, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Failed to read image: " + err.Error(),
			})
			return
		}
		if len(data) > maxPhotoSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Image exceeds the 10MB limit",
			})
			return
		}
		req.ImageData = data
		req.Format = c.PostForm("format")
	}

	if req.ImageData == nil && req.QueryText == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "At least one of 'image' or 'query_text' is required",
		})
		return
	}

	if threshold := c.PostForm("threshold"); threshold != "" {
		value, err := strconv.ParseFloat(threshold, 64)
		if err != nil || value < 0 || value > 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Field 'threshold' must be a number between 0 and 1",
			})
			return
		}
		req.Threshold = &value
	}

	if limit := c.PostForm("limit"); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil || value < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Field 'limit' must be a positive integer",
			})
			return
		}
		req.Limit = value
	}

	result, err := h.searchService.VisualSearch(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNoUsableSignal) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Could not extract any usable signal from the query",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
