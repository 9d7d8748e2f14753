// Package fanhub provides the fan gallery API server.
//
// The executables live under cmd/ (server, seed, cli). The code is organized
// into subpackages:
//
//   - internal/handlers: HTTP request handlers for the gallery, lightbox and admin endpoints
//   - internal/lightbox: Lightbox session state machine and session registry
//   - internal/preload: Neighbor image preloading and image load/retry tracking
//   - internal/recommendations: Related-item cache, Gorse client and CTR analysis
//   - internal/models: Data models and database schemas
//   - internal/repository: Gallery and user queries
//   - internal/auth: Token validation
//   - internal/kernel: Dependency container
//   - internal/storage: S3 image uploads
//   - internal/database: Database connection and migrations
//   - internal/middleware: HTTP middleware (rate limiting, caching, tracing)
//   - internal/validation: Startup checks for required services
//
// See the individual package documentation for detailed API reference.
package fanhub
