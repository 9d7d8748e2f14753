package lightbox

import (
	"sync"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/metrics"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
)

const (
	// DefaultNavigationCooldown is how long Next and Previous stay locked
	// after a successful move
	DefaultNavigationCooldown = 300 * time.Millisecond

	// PreloadAhead is how many following items are warmed on each move
	PreloadAhead = 2
)

// Preloader warms image URLs ahead of navigation
type Preloader interface {
	Preload(urls []string) int
}

// State is a point-in-time view of a session
type State struct {
	ID               string              `json:"id"`
	IsOpen           bool                `json:"is_open"`
	CurrentIndex     int                 `json:"current_index"`
	Zoom             Zoom                `json:"zoom"`
	NavigationLocked bool                `json:"navigation_locked"`
	CanNext          bool                `json:"can_next"`
	CanPrev          bool                `json:"can_prev"`
	Length           int                 `json:"length"`
	CurrentItem      *models.GalleryItem `json:"current_item,omitempty"`
}

// Session is the lightbox over an ordered list of gallery items. All
// transitions are synchronous; the only timed behavior is the navigation
// cooldown, which is derived from the clock rather than a timer.
type Session struct {
	id    string
	items []models.GalleryItem

	cooldown   time.Duration
	now        func() time.Time
	preloader  Preloader
	focus      FocusTracker
	viewerTier string

	mu          sync.Mutex
	isOpen      bool
	index       int
	zoom        Zoom
	lockedUntil time.Time
	returnFocus string
	lastActive  time.Time
}

// Option configures a Session
type Option func(*Session)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithCooldown overrides the navigation cooldown
func WithCooldown(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

// WithPreloader sets where upcoming images are sent for warming
func WithPreloader(p Preloader) Option {
	return func(s *Session) { s.preloader = p }
}

// WithFocusTracker sets the focus collaborator
func WithFocusTracker(f FocusTracker) Option {
	return func(s *Session) { s.focus = f }
}

// WithViewerTier sets the membership tier used to decide which locked items
// may be preloaded
func WithViewerTier(tier string) Option {
	return func(s *Session) { s.viewerTier = tier }
}

// WithID sets the session id
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession creates a closed session over items. The slice is copied.
func NewSession(items []models.GalleryItem, opts ...Option) *Session {
	s := &Session{
		items:    append([]models.GalleryItem(nil), items...),
		cooldown: DefaultNavigationCooldown,
		now:      time.Now,
		zoom:     IdentityZoom,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive = s.now()
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Len returns the number of items
func (s *Session) Len() int {
	return len(s.items)
}

// Focus returns the focus collaborator, nil if none
func (s *Session) Focus() FocusTracker {
	return s.focus
}

// Open shows the item at index, clamped into range. It returns false and
// does nothing when there are no items.
func (s *Session) Open(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.items) == 0 {
		return false
	}

	index = clamp(index, 0, len(s.items)-1)
	wasOpen := s.isOpen
	s.isOpen = true
	s.index = index
	s.zoom = IdentityZoom

	if !wasOpen && s.focus != nil {
		s.returnFocus = s.focus.ActiveElement()
	}
	s.preloadLocked()
	return true
}

// Close hides the lightbox. Closing a closed session is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	wasOpen := s.isOpen
	s.isOpen = false
	s.zoom = IdentityZoom

	if wasOpen && s.focus != nil && s.returnFocus != "" {
		s.focus.Focus(s.returnFocus)
	}
	s.returnFocus = ""
}

// Next moves to the following item unless navigation is locked or the
// current item is the last. It reports whether the index changed.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.stepLocked(1, "next")
}

// Previous moves to the preceding item unless navigation is locked or the
// current item is the first. It reports whether the index changed.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.stepLocked(-1, "previous")
}

func (s *Session) stepLocked(delta int, operation string) bool {
	navs := metrics.Get().LightboxNavigations

	if s.navigationLocked() {
		navs.WithLabelValues(operation, "locked").Inc()
		return false
	}
	target := s.index + delta
	if target < 0 || target >= len(s.items) {
		navs.WithLabelValues(operation, "boundary").Inc()
		return false
	}

	s.index = target
	s.zoom = IdentityZoom
	s.lockedUntil = s.now().Add(s.cooldown)
	s.preloadLocked()

	navs.WithLabelValues(operation, "moved").Inc()
	return true
}

// GoToIndex jumps straight to index. Out-of-range indexes are ignored. The
// jump does not consult or engage the navigation cooldown.
func (s *Session) GoToIndex(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	navs := metrics.Get().LightboxNavigations
	if index < 0 || index >= len(s.items) {
		navs.WithLabelValues("goto", "rejected").Inc()
		return false
	}

	s.index = index
	s.zoom = IdentityZoom
	s.preloadLocked()

	navs.WithLabelValues("goto", "moved").Inc()
	return true
}

// SetZoom replaces the zoom with updater's result, unclamped
func (s *Session) SetZoom(updater func(Zoom) Zoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.zoom = updater(s.zoom)
}

// ResetZoom restores the identity zoom
func (s *Session) ResetZoom() {
	s.SetZoom(func(Zoom) Zoom { return IdentityZoom })
}

// ZoomIn magnifies by one step up to MaxScale
func (s *Session) ZoomIn() {
	s.SetZoom(func(z Zoom) Zoom { return zoomBy(z, ZoomStep) })
}

// ZoomOut reduces magnification by one step down to MinScale
func (s *Session) ZoomOut() {
	s.SetZoom(func(z Zoom) Zoom { return zoomBy(z, -ZoomStep) })
}

// Pan drags the zoomed image by (dx, dy) within a viewport of the given
// size. It does nothing at scale 1 and reports whether it applied.
func (s *Session) Pan(dx, dy, width, height float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.zoom.Scale <= MinScale {
		return false
	}
	s.zoom.OffsetX = ClampPan(s.zoom.OffsetX+dx, s.zoom.Scale, width)
	s.zoom.OffsetY = ClampPan(s.zoom.OffsetY+dy, s.zoom.Scale, height)
	return true
}

// CanNext reports whether a following item exists
func (s *Session) CanNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index < len(s.items)-1
}

// CanPrev reports whether a preceding item exists
func (s *Session) CanPrev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

// Current returns the displayed item; ok is false while closed
func (s *Session) Current() (models.GalleryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen || len(s.items) == 0 {
		return models.GalleryItem{}, false
	}
	return s.items[s.index], true
}

// IsOpen reports whether the lightbox is showing
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// CurrentIndex returns the index of the displayed item
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Zoom returns the current zoom
func (s *Session) Zoom() Zoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// NavigationLocked reports whether Next and Previous are in their cooldown
func (s *Session) NavigationLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigationLocked()
}

// Snapshot returns the whole state at once
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:               s.id,
		IsOpen:           s.isOpen,
		CurrentIndex:     s.index,
		Zoom:             s.zoom,
		NavigationLocked: s.navigationLocked(),
		CanNext:          s.index < len(s.items)-1,
		CanPrev:          s.index > 0,
		Length:           len(s.items),
	}
	if s.isOpen && len(s.items) > 0 {
		item := s.items[s.index]
		st.CurrentItem = &item
	}
	return st
}

// LastActive returns when the session was last used
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) navigationLocked() bool {
	return s.now().Before(s.lockedUntil)
}

func (s *Session) touch() {
	s.lastActive = s.now()
}

// preloadLocked warms the next PreloadAhead images the viewer may see.
// Items the viewer's tier cannot open are skipped.
func (s *Session) preloadLocked() {
	if !s.isOpen || s.preloader == nil {
		return
	}

	urls := make([]string, 0, PreloadAhead)
	for i := s.index + 1; i <= s.index+PreloadAhead && i < len(s.items); i++ {
		item := &s.items[i]
		if !item.VisibleTo(s.viewerTier) || item.ImageURL == "" {
			continue
		}
		urls = append(urls, item.ImageURL)
	}
	if len(urls) > 0 {
		s.preloader.Preload(urls)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
