package kernel

import (
	"context"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/auth"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/lightbox"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/preload"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/recommendations"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/storage"
	"gorm.io/gorm"
)

// MockKernel is a kernel designed for testing.
// It allows easy overriding of dependencies with test doubles.
type MockKernel struct {
	*Kernel
}

// NewMock creates an empty mock kernel
func NewMock() *MockKernel {
	return &MockKernel{Kernel: New()}
}

// MockOptions configures FullMock
type MockOptions struct {
	// Fetcher backs the preload manager and image tracker. Defaults to a
	// fetcher that succeeds immediately.
	Fetcher preload.Fetcher
	// Gorse is used as the neighbor source when set
	Gorse recommendations.NeighborSource
	// Now drives the lightbox registry and sessions
	Now func() time.Time
	// AttemptTimeout bounds each image load attempt
	AttemptTimeout time.Duration
}

// FullMock wires a working gallery subsystem over db with a mock auth
// service, the way cmd/server wires the real one
func FullMock(db *gorm.DB, opts MockOptions) (*MockKernel, *auth.MockAuthService) {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = preload.FetcherFunc(func(ctx context.Context, url string) error { return nil })
	}
	attemptTimeout := opts.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = time.Second
	}

	gallery := repository.NewGalleryRepository(db)
	users := repository.NewUserRepository(db)
	authSvc := auth.NewMockAuthService()

	preloader := preload.NewManager(fetcher, preload.Config{})
	tracker := preload.NewTracker(fetcher, preload.TrackerConfig{AttemptTimeout: attemptTimeout, Now: opts.Now})
	recs := recommendations.NewService(
		recommendations.NewCache[[]recommendations.ScoredItem](),
		gallery, opts.Gorse, recommendations.ServiceConfig{},
	)
	sessions := lightbox.NewRegistry(lightbox.RegistryConfig{
		Now:            opts.Now,
		SessionOptions: []lightbox.Option{lightbox.WithPreloader(preloader)},
	})

	m := NewMock()
	m.SetLogger(logger.Log).
		SetDB(db).
		SetGalleryRepository(gallery).
		SetUserRepository(users).
		SetAuthService(authSvc).
		SetRecommendations(recs).
		SetPreloader(preloader).
		SetImageTracker(tracker).
		SetSessions(sessions)

	m.OnCleanup(func(context.Context) error { preloader.Close(); return nil })
	m.OnCleanup(func(context.Context) error { tracker.Close(); return nil })
	m.OnCleanup(func(context.Context) error { recs.Close(); return nil })

	return m, authSvc
}

// WithMockUploader sets a test image uploader
func (m *MockKernel) WithMockUploader(uploader storage.ImageUploader) *MockKernel {
	m.SetUploader(uploader)
	return m
}

// Clean cleans up test kernels after tests complete
func (m *MockKernel) Clean(ctx context.Context) error {
	return m.Cleanup(ctx)
}
