// Package kernel provides dependency injection for the gallery service.
// It holds every long-lived service and shuts them down in reverse order.
package kernel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/auth"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/cache"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/lightbox"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/preload"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/recommendations"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kernel holds all application dependencies and provides type-safe access
type Kernel struct {
	// Core infrastructure
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.RedisClient

	// Repositories
	gallery repository.GalleryRepository
	users   repository.UserRepository

	// API clients
	gorse    *recommendations.GorseRESTClient
	uploader storage.ImageUploader
	auth     auth.AuthServiceInterface

	// Gallery subsystem
	recommendations *recommendations.Service
	preloader       *preload.Manager
	images          *preload.Tracker
	sessions        *lightbox.Registry

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty kernel.
// Services should be registered using Set* methods.
func New() *Kernel {
	return &Kernel{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// ============================================================================
// CORE INFRASTRUCTURE
// ============================================================================

// SetDB registers the database connection
func (c *Kernel) SetDB(db *gorm.DB) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Kernel) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger
func (c *Kernel) SetLogger(l *zap.Logger) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance, falling back to the global logger
func (c *Kernel) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggerLocked()
}

func (c *Kernel) loggerLocked() *zap.Logger {
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the Redis client
func (c *Kernel) SetCache(client *cache.RedisClient) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis client, nil when Redis is not configured
func (c *Kernel) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// ============================================================================
// REPOSITORIES
// ============================================================================

// SetGalleryRepository registers the gallery repository
func (c *Kernel) SetGalleryRepository(repo repository.GalleryRepository) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gallery = repo
	return c
}

// Gallery returns the gallery repository
func (c *Kernel) Gallery() repository.GalleryRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gallery
}

// SetUserRepository registers the user repository
func (c *Kernel) SetUserRepository(repo repository.UserRepository) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = repo
	return c
}

// Users returns the user repository
func (c *Kernel) Users() repository.UserRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users
}

// ============================================================================
// API CLIENTS
// ============================================================================

// SetGorseClient registers the Gorse recommendation client
func (c *Kernel) SetGorseClient(client *recommendations.GorseRESTClient) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gorse = client
	return c
}

// Gorse returns the Gorse client, nil when Gorse is not configured
func (c *Kernel) Gorse() *recommendations.GorseRESTClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gorse
}

// SetUploader registers the image uploader
func (c *Kernel) SetUploader(uploader storage.ImageUploader) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploader = uploader
	return c
}

// Uploader returns the image uploader, nil when S3 is not configured
func (c *Kernel) Uploader() storage.ImageUploader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploader
}

// SetAuthService registers the authentication service
func (c *Kernel) SetAuthService(service auth.AuthServiceInterface) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = service
	return c
}

// Auth returns the authentication service
func (c *Kernel) Auth() auth.AuthServiceInterface {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// ============================================================================
// GALLERY SUBSYSTEM
// ============================================================================

// SetRecommendations registers the related-content service
func (c *Kernel) SetRecommendations(svc *recommendations.Service) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recommendations = svc
	return c
}

// Recommendations returns the related-content service
func (c *Kernel) Recommendations() *recommendations.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recommendations
}

// SetPreloader registers the image preload manager
func (c *Kernel) SetPreloader(m *preload.Manager) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preloader = m
	return c
}

// Preloader returns the image preload manager
func (c *Kernel) Preloader() *preload.Manager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preloader
}

// SetImageTracker registers the per-image load tracker
func (c *Kernel) SetImageTracker(t *preload.Tracker) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = t
	return c
}

// Images returns the per-image load tracker
func (c *Kernel) Images() *preload.Tracker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.images
}

// SetSessions registers the lightbox session registry
func (c *Kernel) SetSessions(r *lightbox.Registry) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = r
	return c
}

// Sessions returns the lightbox session registry
func (c *Kernel) Sessions() *lightbox.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (c *Kernel) OnCleanup(fn func(context.Context) error) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup runs every cleanup function in reverse order of registration.
// Failures are logged and the first one is returned after all have run.
func (c *Kernel) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	log := c.loggerLocked()
	c.mu.Unlock()

	var firstErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			log.Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ============================================================================
// VALIDATION
// ============================================================================

// InitializationError lists dependencies missing at startup
type InitializationError struct {
	Message string
	Missing []string
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Missing, ", "))
}

// NewInitializationError creates an InitializationError
func NewInitializationError(message string, missing []string) *InitializationError {
	return &InitializationError{Message: message, Missing: missing}
}

// Validate checks that all required dependencies are registered.
// This should be called after initialization and before starting the server.
func (c *Kernel) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	required := []struct {
		name    string
		present bool
	}{
		{"database (DB)", c.db != nil},
		{"gallery repository", c.gallery != nil},
		{"user repository", c.users != nil},
		{"auth service", c.auth != nil},
		{"recommendation service", c.recommendations != nil},
		{"preload manager", c.preloader != nil},
		{"image tracker", c.images != nil},
		{"lightbox sessions", c.sessions != nil},
	}

	var missing []string
	for _, dep := range required {
		if !dep.present {
			missing = append(missing, dep.name)
		}
	}
	if len(missing) > 0 {
		return NewInitializationError("Missing required dependencies", missing)
	}

	// Optional but warn if missing
	optional := []struct {
		name    string
		present bool
	}{
		{"Redis cache", c.cache != nil},
		{"Gorse recommendations", c.gorse != nil},
		{"S3 uploader", c.uploader != nil},
	}
	for _, dep := range optional {
		if !dep.present {
			c.loggerLocked().Warn("Optional dependency not configured", zap.String("dependency", dep.name))
		}
	}
	return nil
}
