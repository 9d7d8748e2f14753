package lightbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/metrics"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultIdleTTL is how long an untouched session survives
	DefaultIdleTTL = 30 * time.Minute

	defaultSweepInterval = time.Minute
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("lightbox session not found")

// RegistryConfig tunes a Registry
type RegistryConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration

	// Now replaces time.Now for the registry and its sessions
	Now func() time.Time

	// Defaults applied to every session before per-call options
	SessionOptions []Option
}

// Registry holds the server-side lightbox sessions
type Registry struct {
	cfg RegistryConfig
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRegistry creates an empty registry
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	return &Registry{
		cfg:      cfg,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session over items with a fresh id and its own
// FocusRecorder
func (r *Registry) Create(items []models.GalleryItem, opts ...Option) *Session {
	all := make([]Option, 0, len(r.cfg.SessionOptions)+len(opts)+3)
	all = append(all, WithClock(r.now), WithFocusTracker(NewFocusRecorder()))
	all = append(all, r.cfg.SessionOptions...)
	all = append(all, opts...)
	all = append(all, WithID(uuid.New().String()))

	s := NewSession(items, all...)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.Get().LightboxSessionsActive.Set(float64(count))
	return s
}

// Get returns the session with id
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes the session with id
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.Get().LightboxSessionsActive.Set(float64(count))
	return nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle longer than IdleTTL and returns how many
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.Get().LightboxSessionsActive.Set(float64(count))
	return removed
}

// Start runs Sweep periodically until Stop
func (r *Registry) Start() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	logger.Log.Info("🖼️ Starting lightbox session sweep",
		zap.Duration("idle_ttl", r.cfg.IdleTTL),
		zap.Duration("interval", r.cfg.SweepInterval),
	)
	go r.run(ctx, r.done)
}

// Stop ends the sweep loop. Safe to call repeatedly.
func (r *Registry) Stop() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

func (r *Registry) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				logger.Log.Debug("Expired idle lightbox sessions", zap.Int("removed", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}
