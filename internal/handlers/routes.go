package handlers

import (
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
)

// galleryCachePattern matches every cached gallery response
const galleryCachePattern = "response:/api/v1/gallery*"

// RouteConfig tunes the middleware RegisterRoutes installs
type RouteConfig struct {
	// ResponseCacheTTL enables the Redis response cache on gallery listings
	// when positive
	ResponseCacheTTL time.Duration
	// RateLimits disables the limiters when false, as tests do
	RateLimits bool
}

// RegisterRoutes mounts the API on r. Request-scoped middleware such as
// logging and tracing is installed by the caller.
func RegisterRoutes(r *gin.Engine, h *Handlers, cfg RouteConfig) {
	authService := h.kernel.Auth()

	limit := func(config middleware.RateLimitConfig) gin.HandlerFunc {
		if !cfg.RateLimits {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimitSmart(config)
	}
	responseCache := func(c *gin.Context) { c.Next() }
	if cfg.ResponseCacheTTL > 0 {
		responseCache = middleware.ResponseCacheMiddleware(cfg.ResponseCacheTTL)
	}
	invalidateGallery := middleware.CacheInvalidationMiddleware(galleryCachePattern)

	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth(authService))
	{
		// Gallery routes
		gallery := api.Group("/gallery")
		gallery.Use(limit(middleware.DefaultRateLimitConfig()))
		{
			gallery.GET("", responseCache, h.ListGallery)
			gallery.GET("/:id", h.GetGalleryItem)
			gallery.POST("/:id/like", middleware.AuthMiddleware(authService), invalidateGallery, h.LikeGalleryItem)
			gallery.GET("/:id/related", h.GetRelated)
			gallery.POST("/:id/related/click", h.RecordRelatedClick)

			gallery.POST("/:id/image/load", h.LoadImage)
			gallery.POST("/:id/image/retry", h.RetryImage)
			gallery.GET("/:id/image/status", h.GetImageStatus)
		}

		// Lightbox routes. Navigation is chatty, so it gets its own budget.
		sessions := api.Group("/lightbox/sessions")
		sessions.Use(limit(middleware.LightboxRateLimitConfig()))
		{
			sessions.POST("", h.CreateLightboxSession)
			sessions.GET("/:id", h.GetLightboxSession)
			sessions.DELETE("/:id", h.DeleteLightboxSession)
			sessions.POST("/:id/open", h.OpenLightbox)
			sessions.POST("/:id/close", h.CloseLightbox)
			sessions.POST("/:id/next", h.NextLightboxItem)
			sessions.POST("/:id/previous", h.PreviousLightboxItem)
			sessions.POST("/:id/goto", h.GoToLightboxItem)
			sessions.POST("/:id/zoom", h.ZoomLightbox)
			sessions.POST("/:id/pan", h.PanLightbox)
			sessions.POST("/:id/keys", h.LightboxKey)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(authService), middleware.RequireAdmin())
		{
			admin.POST("/gallery", limit(middleware.UploadRateLimitConfig()), invalidateGallery, h.UploadGalleryItem)
			admin.GET("/recommendations/ctr", h.GetRecommendationCTR)
		}
	}
}
