package preload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/metrics"
	"go.uber.org/zap"
)

// LoadState is the display state of one image
type LoadState string

const (
	StateLoading LoadState = "loading"
	StateLoaded  LoadState = "loaded"
	StateError   LoadState = "error"
	StateTimeout LoadState = "timeout"
)

const (
	// DefaultAttemptTimeout bounds a single load attempt
	DefaultAttemptTimeout = 3 * time.Second

	// MaxRetries is how many user-triggered retries an image gets
	MaxRetries = 3

	// DefaultLoadIdleTTL is how long a finished load is remembered
	DefaultLoadIdleTTL = 10 * time.Minute

	defaultLoadSweepInterval = time.Minute
)

var (
	// ErrMaxRetries is returned by Retry once an image has used all its retries
	ErrMaxRetries = errors.New("maximum retries reached")

	// ErrNotTracked is returned for an item that was never loaded
	ErrNotTracked = errors.New("image load not tracked")

	// ErrNotRetryable is returned when the image is loading or already loaded
	ErrNotRetryable = errors.New("image load is not in a failed state")
)

// ImageLoad is a snapshot of one image's load state
type ImageLoad struct {
	ItemID    string    `json:"item_id"`
	URL       string    `json:"url"`
	State     LoadState `json:"state"`
	Retries   int       `json:"retries"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Failed reports whether the load ended in error or timeout
func (l ImageLoad) Failed() bool {
	return l.State == StateError || l.State == StateTimeout
}

// MaxRetriesReached reports whether the failure is terminal
func (l ImageLoad) MaxRetriesReached() bool {
	return l.Failed() && l.Retries >= MaxRetries
}

// CanRetry reports whether Retry would start a new attempt
func (l ImageLoad) CanRetry() bool {
	return l.Failed() && l.Retries < MaxRetries
}

type loadKey struct {
	viewer string
	itemID string
}

type trackedLoad struct {
	ImageLoad
	key     loadKey
	attempt int
}

// expired reports whether a settled load has sat untouched past the idle TTL
func (l *trackedLoad) expired(cutoff time.Time) bool {
	return l.State != StateLoading && l.UpdatedAt.Before(cutoff)
}

// TrackerConfig tunes a Tracker
type TrackerConfig struct {
	// AttemptTimeout bounds one attempt; <= 0 means DefaultAttemptTimeout
	AttemptTimeout time.Duration

	// IdleTTL is how long a settled load is kept; <= 0 means DefaultLoadIdleTTL
	IdleTTL       time.Duration
	SweepInterval time.Duration

	// Now replaces time.Now
	Now func() time.Time
}

// Tracker keeps the load state of each image a viewer is looking at. State
// and the retry budget belong to one viewer and one item; other viewers of the
// same item start fresh. Attempts run in the background with a per-attempt
// deadline; retries only happen when asked for.
type Tracker struct {
	fetcher Fetcher
	cfg     TrackerConfig
	now     func() time.Time

	mu    sync.Mutex
	loads map[loadKey]*trackedLoad

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lifecycle sync.Mutex
	stopSweep context.CancelFunc
	sweepDone chan struct{}
}

// NewTracker creates a tracker
func NewTracker(fetcher Fetcher, cfg TrackerConfig) *Tracker {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultLoadIdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultLoadSweepInterval
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		fetcher: fetcher,
		cfg:     cfg,
		now:     now,
		loads:   make(map[loadKey]*trackedLoad),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Load begins loading the image for itemID on behalf of viewer. If the viewer
// already tracks the same URL its current state is returned and no new attempt
// starts, unless that state has gone idle past the TTL.
func (t *Tracker) Load(viewer, itemID, url string) ImageLoad {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := loadKey{viewer: viewer, itemID: itemID}
	if existing, ok := t.loads[key]; ok && existing.URL == url && !existing.expired(t.cutoff()) {
		return existing.ImageLoad
	}

	l := &trackedLoad{ImageLoad: ImageLoad{ItemID: itemID, URL: url}, key: key}
	t.loads[key] = l
	t.begin(l)
	return l.ImageLoad
}

// Retry starts another attempt for a viewer's failed image
func (t *Tracker) Retry(viewer, itemID string) (ImageLoad, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.loads[loadKey{viewer: viewer, itemID: itemID}]
	if !ok {
		return ImageLoad{}, ErrNotTracked
	}
	if !l.Failed() {
		return l.ImageLoad, ErrNotRetryable
	}
	if l.Retries >= MaxRetries {
		return l.ImageLoad, ErrMaxRetries
	}

	l.Retries++
	t.begin(l)
	return l.ImageLoad, nil
}

// Status returns the viewer's current state for itemID
func (t *Tracker) Status(viewer, itemID string) (ImageLoad, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.loads[loadKey{viewer: viewer, itemID: itemID}]
	if !ok {
		return ImageLoad{}, false
	}
	return l.ImageLoad, true
}

// Forget drops the viewer's state for itemID
func (t *Tracker) Forget(viewer, itemID string) {
	t.mu.Lock()
	delete(t.loads, loadKey{viewer: viewer, itemID: itemID})
	t.mu.Unlock()
}

// Len returns the number of tracked loads
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.loads)
}

// Sweep removes settled loads idle longer than IdleTTL and returns how many
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.cutoff()
	removed := 0
	for key, l := range t.loads {
		if l.expired(cutoff) {
			delete(t.loads, key)
			removed++
		}
	}
	return removed
}

// Start runs Sweep periodically until Stop
func (t *Tracker) Start() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	if t.stopSweep != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.stopSweep = cancel
	t.sweepDone = make(chan struct{})

	go t.run(ctx, t.sweepDone)
}

// Stop ends the sweep loop. Safe to call repeatedly.
func (t *Tracker) Stop() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	if t.stopSweep == nil {
		return
	}
	t.stopSweep()
	<-t.sweepDone
	t.stopSweep = nil
	t.sweepDone = nil
}

// Close stops the sweep, cancels running attempts and waits for them
func (t *Tracker) Close() {
	t.Stop()
	t.cancel()
	t.wg.Wait()
}

func (t *Tracker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := t.Sweep(); removed > 0 {
				logger.Log.Debug("Dropped idle image loads", zap.Int("removed", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (t *Tracker) cutoff() time.Time {
	return t.now().Add(-t.cfg.IdleTTL)
}

// begin marks l loading and launches an attempt; t.mu must be held
func (t *Tracker) begin(l *trackedLoad) {
	l.attempt++
	l.State = StateLoading
	l.LastError = ""
	l.UpdatedAt = t.now()

	attempt := l.attempt
	url := l.URL

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(t.ctx, t.cfg.AttemptTimeout)
		defer cancel()

		err := t.fetcher.Fetch(ctx, url)
		state := StateLoaded
		switch {
		case err == nil:
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			state = StateTimeout
		default:
			state = StateError
		}
		t.finish(l, attempt, state, err)
	}()
}

func (t *Tracker) finish(l *trackedLoad, attempt int, state LoadState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A newer attempt or a Load with another URL superseded this one
	if l.attempt != attempt || t.loads[l.key] != l {
		return
	}

	l.State = state
	l.UpdatedAt = t.now()
	if err != nil {
		l.LastError = err.Error()
		logger.Log.Debug("Image load attempt failed",
			logger.WithItemID(l.ItemID),
			zap.String("state", string(state)),
			zap.Int("retries", l.Retries),
			zap.Error(err),
		)
	}
	metrics.Get().ImageLoadAttempts.WithLabelValues(string(state)).Inc()
}
