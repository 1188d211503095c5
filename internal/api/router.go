package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/colorwalk/internal/api/handler"
	"github.com/timmy/colorwalk/internal/api/middleware"
	"github.com/timmy/colorwalk/internal/config"
	"github.com/timmy/colorwalk/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	placeService *service.PlaceService,
	searchService *service.SearchService,
	scheduler *service.EnrichmentScheduler,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	placeHandler := handler.NewPlaceHandler(placeService, scheduler)
	searchHandler := handler.NewSearchHandler(searchService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Places
		v1.POST("/places", placeHandler.CreatePlace)
		v1.GET("/places", placeHandler.ListPlaces)
		v1.GET("/places/:id", placeHandler.GetPlace)
		v1.GET("/places/:id/photo", placeHandler.GetPhoto)
		v1.DELETE("/places/:id", placeHandler.DeletePlace)

		// Visual search
		v1.POST("/search/visual", searchHandler.VisualSearch)

		// Stats
		v1.GET("/stats", placeHandler.GetStats)
	}

	return r
}
