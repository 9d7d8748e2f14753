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

const (
	// DefaultTimeout is how long a URL stays tracked after its preload starts
	DefaultTimeout = 10 * time.Second

	// DefaultMaxTracked bounds the number of URLs tracked at once
	DefaultMaxTracked = 32
)

// Fetcher retrieves an image so it lands in a cache closer to the viewer
type Fetcher interface {
	Fetch(ctx context.Context, url string) error
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, url string) error

// Fetch calls f(ctx, url)
func (f FetcherFunc) Fetch(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Config tunes a Manager
type Config struct {
	Timeout    time.Duration
	MaxTracked int

	// ReleaseOnLoad untracks a URL as soon as its fetch finishes instead of
	// waiting for the timeout
	ReleaseOnLoad bool
}

type inflight struct {
	cancel context.CancelFunc
	timer  *time.Timer
}

// Manager warms images ahead of navigation. Each URL is fetched at most once
// while tracked; tracking ends when the timeout fires, whatever the fetch
// outcome. Failures are logged and never retried.
type Manager struct {
	fetcher Fetcher
	cfg     Config

	mu      sync.Mutex
	tracked map[string]*inflight
	closed  bool

	wg sync.WaitGroup
}

// NewManager creates a manager that fetches through fetcher
func NewManager(fetcher Fetcher, cfg Config) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTracked <= 0 {
		cfg.MaxTracked = DefaultMaxTracked
	}
	return &Manager{
		fetcher: fetcher,
		cfg:     cfg,
		tracked: make(map[string]*inflight),
	}
}

// Preload starts fetching every URL not already tracked and returns how many
// fetches were started. Empty URLs are ignored.
func (m *Manager) Preload(urls []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	met := metrics.Get()
	if m.closed {
		met.PreloadsSkipped.WithLabelValues("closed").Add(float64(len(urls)))
		return 0
	}

	started := 0
	for _, url := range urls {
		if url == "" {
			continue
		}
		if _, ok := m.tracked[url]; ok {
			met.PreloadsSkipped.WithLabelValues("duplicate").Inc()
			continue
		}
		if len(m.tracked) >= m.cfg.MaxTracked {
			met.PreloadsSkipped.WithLabelValues("capacity").Inc()
			logger.Log.Debug("Preload capacity reached, skipping",
				zap.String("url", url),
				zap.Int("max_tracked", m.cfg.MaxTracked),
			)
			continue
		}

		m.start(url)
		started++
	}

	met.PreloadsInFlight.Set(float64(len(m.tracked)))
	return started
}

// start registers url and launches its fetch; m.mu must be held
func (m *Manager) start(url string) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &inflight{cancel: cancel}
	p.timer = time.AfterFunc(m.cfg.Timeout, func() {
		m.release(url, p)
	})
	m.tracked[url] = p
	metrics.Get().PreloadsStarted.Inc()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		err := m.fetcher.Fetch(ctx, url)
		outcome := "loaded"
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			outcome = "canceled"
		default:
			outcome = "error"
			logger.Log.Debug("Image preload failed", zap.String("url", url), zap.Error(err))
		}
		metrics.Get().PreloadsFinished.WithLabelValues(outcome).Inc()

		if m.cfg.ReleaseOnLoad {
			m.release(url, p)
		}
	}()
}

// release untracks url if it still refers to p
func (m *Manager) release(url string, p *inflight) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.tracked[url]; !ok || current != p {
		return
	}
	p.timer.Stop()
	p.cancel()
	delete(m.tracked, url)
	metrics.Get().PreloadsInFlight.Set(float64(len(m.tracked)))
}

// IsTracked reports whether url has a preload in progress or recently finished
func (m *Manager) IsTracked(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tracked[url]
	return ok
}

// Tracked returns the URLs currently tracked, in no particular order
func (m *Manager) Tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	urls := make([]string, 0, len(m.tracked))
	for url := range m.tracked {
		urls = append(urls, url)
	}
	return urls
}

// Close cancels every preload and rejects new ones. It is meant for process
// shutdown; closing a lightbox does not call it.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for url, p := range m.tracked {
		p.timer.Stop()
		p.cancel()
		delete(m.tracked, url)
	}
	metrics.Get().PreloadsInFlight.Set(0)
	m.mu.Unlock()

	m.wg.Wait()
}
