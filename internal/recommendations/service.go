package recommendations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/metrics"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Recommendation sources, also stored on impressions
const (
	SourceGorse = "gorse"
	SourceTags  = "tags"
)

const (
	// DefaultRelatedLimit is used when the caller does not pass a limit
	DefaultRelatedLimit = 8
	// MaxRelated is both the per-request cap and the size of the cached list
	MaxRelated = 24

	// DefaultFetchTimeout bounds a shared related-content fetch
	DefaultFetchTimeout = 10 * time.Second

	impressionWriteTimeout = 5 * time.Second
)

// ScoredItem is a related gallery item with the reason it was chosen
type ScoredItem struct {
	Item   models.GalleryItem `json:"item"`
	Score  float64            `json:"score"`
	Source string             `json:"source"`
	Reason string             `json:"reason,omitempty"`
}

// NeighborSource returns similar item ids, typically Gorse
type NeighborSource interface {
	GetItemNeighbors(ctx context.Context, itemID string, n int) ([]Neighbor, error)
}

// ItemStore is the slice of the gallery repository the service reads and writes
type ItemStore interface {
	GetByID(ctx context.Context, id string) (*models.GalleryItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.GalleryItem, error)
	FindByTagOverlap(ctx context.Context, tags []string, excludeID string, limit int) ([]models.GalleryItem, error)
	CreateImpressions(ctx context.Context, impressions []models.RecommendationImpression) error
}

// ServiceConfig tunes the related-content service
type ServiceConfig struct {
	TTL          time.Duration
	FetchTimeout time.Duration
}

// Service answers "what else should I look at" for a gallery item. Results are
// served from the in-memory cache when fresh, otherwise fetched from Gorse
// behind a circuit breaker, falling back to tag overlap in the database.
type Service struct {
	cache   *Cache[[]ScoredItem]
	store   ItemStore
	gorse   NeighborSource
	breaker *gobreaker.CircuitBreaker[[]Neighbor]
	group   singleflight.Group
	ttl     time.Duration
	timeout time.Duration

	pending sync.WaitGroup
}

// NewService wires the cache, the item store and an optional neighbor source.
// A nil gorse makes every lookup use the tag fallback.
func NewService(cache *Cache[[]ScoredItem], store ItemStore, gorse NeighborSource, cfg ServiceConfig) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	s := &Service{
		cache: cache,
		store: store,
		gorse: gorse,
		ttl:     cfg.TTL,
		timeout: cfg.FetchTimeout,
	}
	s.breaker = newGorseBreaker()
	return s
}

func newGorseBreaker() *gobreaker.CircuitBreaker[[]Neighbor] {
	const name = "gorse"
	metrics.Get().CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]Neighbor](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller going away says nothing about Gorse's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.Get().CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// Related returns up to limit items related to itemID. A limit outside
// (0, MaxRelated] is replaced by DefaultRelatedLimit or MaxRelated.
func (s *Service) Related(ctx context.Context, itemID string, limit int) ([]ScoredItem, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	if limit > MaxRelated {
		limit = MaxRelated
	}

	if cached, ok := s.cache.Get(itemID); ok {
		return truncate(cached, limit), nil
	}

	// The fetch is shared by every caller waiting on itemID, so it must not
	// die with whichever request happened to start it
	ch := s.group.DoChan(itemID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.fetch(fetchCtx, itemID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return truncate(res.Val.([]ScoredItem), limit), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached list for itemID
func (s *Service) Invalidate(itemID string) {
	s.cache.Delete(itemID)
}

// fetch loads the full related list and caches it when it came from a
// successful upstream call
func (s *Service) fetch(ctx context.Context, itemID string) ([]ScoredItem, error) {
	if s.gorse != nil {
		items, err := s.fromGorse(ctx, itemID)
		if err == nil && len(items) > 0 {
			s.cache.Set(itemID, items, s.ttl)
			return items, nil
		}
		if err != nil {
			logger.Log.Warn("Gorse related lookup failed, using tag fallback",
				logger.WithItemID(itemID),
				zap.Error(err),
			)
		}
	}

	items, err := s.fromTags(ctx, itemID)
	if err != nil {
		return nil, err
	}
	metrics.Get().RelatedFallbacks.Inc()

	// With no recommender configured the tag result is the authoritative
	// answer; otherwise Gorse gets another chance on the next request.
	if s.gorse == nil {
		s.cache.Set(itemID, items, s.ttl)
	}
	return items, nil
}

func (s *Service) fromGorse(ctx context.Context, itemID string) ([]ScoredItem, error) {
	neighbors, err := s.breaker.Execute(func() ([]Neighbor, error) {
		return s.gorse.GetItemNeighbors(ctx, itemID, MaxRelated)
	})
	if err != nil {
		errType := "request"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			errType = "circuit_open"
		}
		metrics.Get().GorseErrors.WithLabelValues(errType).Inc()
		return nil, err
	}

	ids := make([]string, 0, len(neighbors))
	scores := make(map[string]float64, len(neighbors))
	for _, n := range neighbors {
		if n.ID == itemID {
			continue
		}
		ids = append(ids, n.ID)
		scores[n.ID] = n.Score
	}
	if len(ids) == 0 {
		return nil, nil
	}

	items, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load gorse neighbors: %w", err)
	}

	result := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		result = append(result, ScoredItem{
			Item:   item,
			Score:  scores[item.ID],
			Source: SourceGorse,
			Reason: "fans who viewed this also viewed",
		})
	}
	metrics.Get().GorseRecommendations.WithLabelValues("item_neighbors").Add(float64(len(result)))
	return result, nil
}

func (s *Service) fromTags(ctx context.Context, itemID string) ([]ScoredItem, error) {
	source, err := s.store.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(source.Tags) == 0 {
		return []ScoredItem{}, nil
	}

	items, err := s.store.FindByTagOverlap(ctx, source.Tags, itemID, MaxRelated)
	if err != nil {
		return nil, fmt.Errorf("failed to find items by tag: %w", err)
	}

	result := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		shared := sharedTags(source.Tags, item.Tags)
		result = append(result, ScoredItem{
			Item:   item,
			Score:  float64(len(shared)),
			Source: SourceTags,
			Reason: "shares tags: " + joinTags(shared),
		})
	}
	sortByScore(result)
	return result, nil
}

// RecordImpressions writes impression rows in the background. Failures are
// logged and never reach the caller.
func (s *Service) RecordImpressions(userID, sessionID, sourceItemID string, items []ScoredItem) {
	if len(items) == 0 {
		return
	}

	impressions := make([]models.RecommendationImpression, 0, len(items))
	for i, it := range items {
		score := it.Score
		reason := it.Reason
		imp := models.RecommendationImpression{
			UserID:       userID,
			ItemID:       it.Item.ID,
			SourceItemID: sourceItemID,
			Source:       it.Source,
			Position:     i,
			Score:        &score,
			Reason:       &reason,
		}
		if sessionID != "" {
			sid := sessionID
			imp.SessionID = &sid
		}
		impressions = append(impressions, imp)
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), impressionWriteTimeout)
		defer cancel()

		if err := s.store.CreateImpressions(ctx, impressions); err != nil {
			logger.Log.Warn("Failed to record recommendation impressions",
				logger.WithItemID(sourceItemID),
				zap.Int("count", len(impressions)),
				zap.Error(err),
			)
		}
	}()
}

// Close waits for outstanding impression writes
func (s *Service) Close() {
	s.pending.Wait()
}

func truncate(items []ScoredItem, limit int) []ScoredItem {
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}
