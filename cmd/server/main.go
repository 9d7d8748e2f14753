package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/auth"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/cache"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/config"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/database"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/handlers"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/kernel"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/lightbox"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/metrics"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/middleware"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/preload"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/recommendations"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/storage"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/telemetry"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/validation"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "fanhub-gallery"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Gallery server starting ===", zap.String("environment", cfg.Environment))

	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TelemetryEnabled,
		SamplingRate: cfg.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}

	// Database
	if err := database.Initialize(cfg); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if cfg.TelemetryEnabled {
		if err := database.DB.Use(telemetry.GORMTracingPlugin()); err != nil {
			logger.Log.Warn("Failed to install database tracing", zap.Error(err))
		}
	}
	if err := database.Migrate(database.DB); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	k := kernel.New().SetLogger(logger.Log).SetDB(database.DB)

	// Redis is optional: without it the response cache is off and rate limits
	// are per instance
	if cfg.RedisHost != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		} else {
			k.SetCache(redisClient)
			k.OnCleanup(func(context.Context) error { return redisClient.Close() })
		}
	}

	gallery := repository.NewGalleryRepository(database.DB)
	users := repository.NewUserRepository(database.DB)
	k.SetGalleryRepository(gallery).
		SetUserRepository(users).
		SetAuthService(auth.NewService([]byte(cfg.JWTSecret), users))

	// S3 uploads
	if cfg.AWSBucket != "" {
		uploader, err := storage.NewS3Uploader(context.Background(), cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("S3 unavailable, uploads disabled", zap.Error(err))
		} else {
			k.SetUploader(uploader)
		}
	}

	// Gorse. The neighbor source stays a nil interface when unconfigured so the
	// service goes straight to the tag fallback.
	var neighbors recommendations.NeighborSource
	if cfg.GorseURL != "" {
		gorse := recommendations.NewGorseRESTClient(cfg.GorseURL, cfg.GorseAPIKey,
			telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{ServiceName: "gorse", Timeout: 10 * time.Second}))
		k.SetGorseClient(gorse)
		neighbors = gorse
		logger.Log.Info("✅ Gorse client configured", zap.String("url", cfg.GorseURL))
	}

	relatedCache := recommendations.NewCache[[]recommendations.ScoredItem](
		recommendations.WithSweepInterval(cfg.CacheSweepInterval),
		recommendations.WithName("related"),
	)
	relatedCache.Start()
	recs := recommendations.NewService(relatedCache, gallery, neighbors, recommendations.ServiceConfig{
		TTL: cfg.RecommendationTTL,
	})
	k.SetRecommendations(recs)
	k.OnCleanup(func(context.Context) error { relatedCache.Stop(); recs.Close(); return nil })

	// Image loading shares one traced client for preloads and tracked loads
	fetcher := preload.NewHTTPFetcher(telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
		ServiceName: "cdn",
		Timeout:     cfg.PreloadTimeout,
	}))
	preloader := preload.NewManager(fetcher, preload.Config{
		Timeout:       cfg.PreloadTimeout,
		MaxTracked:    cfg.PreloadMaxTracked,
		ReleaseOnLoad: cfg.PreloadReleaseOnLoad,
	})
	tracker := preload.NewTracker(fetcher, preload.TrackerConfig{
		AttemptTimeout: preload.DefaultAttemptTimeout,
		IdleTTL:        cfg.ImageLoadIdleTTL,
		SweepInterval:  cfg.CacheSweepInterval,
	})
	tracker.Start()
	k.SetPreloader(preloader).SetImageTracker(tracker)
	k.OnCleanup(func(context.Context) error { preloader.Close(); tracker.Close(); return nil })

	sessions := lightbox.NewRegistry(lightbox.RegistryConfig{
		IdleTTL:       cfg.SessionIdleTTL,
		SweepInterval: cfg.CacheSweepInterval,
		SessionOptions: []lightbox.Option{
			lightbox.WithCooldown(cfg.NavigationCooldown),
			lightbox.WithPreloader(preloader),
		},
	})
	sessions.Start()
	k.SetSessions(sessions)
	k.OnCleanup(func(context.Context) error { sessions.Stop(); return nil })

	if err := k.Validate(); err != nil {
		logger.Log.Fatal("Kernel validation failed", zap.Error(err))
	}

	if err := requiredServices(k).ValidateServices(context.Background()); err != nil {
		logger.FatalWithFields("Required service validation failed", err)
	}

	// Router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if cfg.TelemetryEnabled {
		r.Use(middleware.TracingMiddleware(serviceName))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "X-Cache", "X-RateLimit-Remaining", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(r, handlers.NewHandlers(k), handlers.RouteConfig{
		ResponseCacheTTL: cfg.ResponseCacheTTL,
		RateLimits:       true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("🖼️  Gallery server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Periodic CTR report
	ctrCtx, stopCTR := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctrCtx.Done():
				return
			case <-ticker.C:
				if err := recommendations.LogCTRMetrics(database.DB); err != nil {
					logger.Log.Warn("Failed to log CTR metrics", zap.Error(err))
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	stopCTR()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := k.Cleanup(ctx); err != nil {
		logger.Log.Warn("Cleanup failed", zap.Error(err))
	}
	if err := telemetry.Shutdown(ctx, tp); err != nil {
		logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		logger.Log.Warn("Failed to close database", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

// requiredServices registers a check for each optional dependency that was
// configured. Unconfigured ones stay nil so FANHUB_REQUIRE_* can reject them.
func requiredServices(k *kernel.Kernel) *validation.ServiceValidator {
	sv := validation.NewServiceValidator()

	var redisCheck validation.Check
	if rc := k.Cache(); rc != nil {
		redisCheck = rc.Ping
	}
	sv.Register(validation.ServiceRedis, redisCheck)

	var s3Check validation.Check
	if bucket, ok := k.Uploader().(interface {
		CheckBucketAccess(ctx context.Context) error
	}); ok {
		s3Check = bucket.CheckBucketAccess
	}
	sv.Register(validation.ServiceS3, s3Check)

	var gorseCheck validation.Check
	if gorse := k.Gorse(); gorse != nil {
		gorseCheck = gorse.Health
	}
	sv.Register(validation.ServiceGorse, gorseCheck)

	return sv
}
