package recommendations

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

// mockStore implements ItemStore over an in-memory slice
type mockStore struct {
	mu          sync.Mutex
	items       []models.GalleryItem
	impressions []models.RecommendationImpression
	overlapHits int
	failWrites  bool
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*models.GalleryItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			item := m.items[i]
			return &item, nil
		}
	}
	return nil, errNotFound
}

func (m *mockStore) GetByIDs(ctx context.Context, ids []string) ([]models.GalleryItem, error) {
	result := make([]models.GalleryItem, 0, len(ids))
	for _, id := range ids {
		if item, err := m.GetByID(ctx, id); err == nil {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (m *mockStore) FindByTagOverlap(ctx context.Context, tags []string, excludeID string, limit int) ([]models.GalleryItem, error) {
	m.mu.Lock()
	m.overlapHits++
	m.mu.Unlock()

	result := make([]models.GalleryItem, 0)
	for _, item := range m.items {
		if item.ID == excludeID {
			continue
		}
		if len(sharedTags(tags, item.Tags)) > 0 {
			result = append(result, item)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockStore) CreateImpressions(ctx context.Context, impressions []models.RecommendationImpression) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.impressions = append(m.impressions, impressions...)
	return nil
}

// mockNeighbors implements NeighborSource
type mockNeighbors struct {
	neighbors []Neighbor
	err       error
	calls     atomic.Int32
	delay     time.Duration
}

func (m *mockNeighbors) GetItemNeighbors(ctx context.Context, itemID string, n int) ([]Neighbor, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.neighbors, m.err
}

func galleryFixture() *mockStore {
	return &mockStore{items: []models.GalleryItem{
		{ID: "src", Title: "Opening night", Tags: models.StringArray{"tour", "live", "stage"}},
		{ID: "a", Title: "Encore", Tags: models.StringArray{"tour", "live"}},
		{ID: "b", Title: "Crowd", Tags: models.StringArray{"live"}},
		{ID: "c", Title: "Merch table", Tags: models.StringArray{"merch"}},
	}}
}

func TestRelatedFromGorseIsCached(t *testing.T) {
	store := galleryFixture()
	gorse := &mockNeighbors{neighbors: []Neighbor{{ID: "c", Score: 0.8}, {ID: "src", Score: 1}, {ID: "a", Score: 0.5}}}
	svc := NewService(NewCache[[]ScoredItem](), store, gorse, ServiceConfig{})

	items, err := svc.Related(context.Background(), "src", 10)
	require.NoError(t, err)
	require.Len(t, items, 2, "the source item itself is excluded")
	assert.Equal(t, "c", items[0].Item.ID)
	assert.Equal(t, 0.8, items[0].Score)
	assert.Equal(t, SourceGorse, items[0].Source)
	assert.Equal(t, "a", items[1].Item.ID)

	_, err = svc.Related(context.Background(), "src", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gorse.calls.Load(), "second lookup should be served from cache")
}

func TestRelatedFallsBackToTagsOnGorseError(t *testing.T) {
	store := galleryFixture()
	gorse := &mockNeighbors{err: errors.New("connection refused")}
	svc := NewService(NewCache[[]ScoredItem](), store, gorse, ServiceConfig{})

	items, err := svc.Related(context.Background(), "src", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Item.ID, "two shared tags rank above one")
	assert.Equal(t, float64(2), items[0].Score)
	assert.Equal(t, SourceTags, items[0].Source)
	assert.Equal(t, "shares tags: tour, live", items[0].Reason)
	assert.Equal(t, "b", items[1].Item.ID)

	// Failed upstream results are not cached
	_, err = svc.Related(context.Background(), "src", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gorse.calls.Load())
}

func TestRelatedWithoutGorseCachesTagResult(t *testing.T) {
	store := galleryFixture()
	svc := NewService(NewCache[[]ScoredItem](), store, nil, ServiceConfig{})

	for i := 0; i < 3; i++ {
		_, err := svc.Related(context.Background(), "src", 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.overlapHits)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	store := galleryFixture()
	svc := NewService(NewCache[[]ScoredItem](), store, nil, ServiceConfig{})

	_, err := svc.Related(context.Background(), "src", 10)
	require.NoError(t, err)
	svc.Invalidate("src")
	_, err = svc.Related(context.Background(), "src", 10)
	require.NoError(t, err)

	assert.Equal(t, 2, store.overlapHits)
}

func TestRelatedEmptyGorseResultFallsBack(t *testing.T) {
	store := galleryFixture()
	gorse := &mockNeighbors{neighbors: []Neighbor{}}
	svc := NewService(NewCache[[]ScoredItem](), store, gorse, ServiceConfig{})

	items, err := svc.Related(context.Background(), "src", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, items)
	assert.Equal(t, SourceTags, items[0].Source)
}

func TestRelatedUnknownItem(t *testing.T) {
	svc := NewService(NewCache[[]ScoredItem](), galleryFixture(), nil, ServiceConfig{})

	_, err := svc.Related(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, errNotFound)
}

func TestRelatedLimit(t *testing.T) {
	svc := NewService(NewCache[[]ScoredItem](), galleryFixture(), nil, ServiceConfig{})

	items, err := svc.Related(context.Background(), "src", 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// The cached list is the full one, later calls can ask for more
	items, err = svc.Related(context.Background(), "src", 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRelatedExpiresWithCache(t *testing.T) {
	clock := newFakeClock()
	store := galleryFixture()
	gorse := &mockNeighbors{neighbors: []Neighbor{{ID: "a", Score: 1}}}
	svc := NewService(NewCache[[]ScoredItem](WithClock(clock.Now)), store, gorse, ServiceConfig{TTL: time.Minute})

	_, err := svc.Related(context.Background(), "src", 5)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.Related(context.Background(), "src", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gorse.calls.Load(), "expired entry should trigger a refetch")
}

func TestRelatedConcurrentMissesShareOneFetch(t *testing.T) {
	store := galleryFixture()
	gorse := &mockNeighbors{neighbors: []Neighbor{{ID: "a", Score: 1}}, delay: 50 * time.Millisecond}
	svc := NewService(NewCache[[]ScoredItem](), store, gorse, ServiceConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Related(context.Background(), "src", 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, gorse.calls.Load(), int32(2))
}

func TestRelatedSharedFetchOutlivesFirstCaller(t *testing.T) {
	store := galleryFixture()
	gorse := &mockNeighbors{neighbors: []Neighbor{{ID: "a", Score: 1}}, delay: 50 * time.Millisecond}
	svc := NewService(NewCache[[]ScoredItem](), store, gorse, ServiceConfig{})

	first, cancel := context.WithCancel(context.Background())
	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, firstErr = svc.Related(first, "src", 5)
	}()

	time.Sleep(time.Millisecond)
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	items, err := svc.Related(context.Background(), "src", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, SourceGorse, items[0].Source)

	<-done
	assert.ErrorIs(t, firstErr, context.Canceled)
	assert.Equal(t, uint32(0), svc.breaker.Counts().ConsecutiveFailures)
}

func TestCanceledCallsDoNotTripBreaker(t *testing.T) {
	gorse := &mockNeighbors{delay: time.Second}
	svc := NewService(NewCache[[]ScoredItem](), galleryFixture(), gorse, ServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		_, err := svc.fromGorse(ctx, "src")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, svc.breaker.State())
}

func TestRelatedBreakerOpensAfterRepeatedFailures(t *testing.T) {
	store := galleryFixture()
	gorse := &mockNeighbors{err: errors.New("boom")}
	svc := NewService(NewCache[[]ScoredItem](), store, gorse, ServiceConfig{})

	for i := 0; i < 10; i++ {
		_, err := svc.Related(context.Background(), "src", 5)
		require.NoError(t, err, "fallback keeps serving while gorse is down")
	}
	assert.Equal(t, int32(5), gorse.calls.Load(), "breaker should stop calling gorse after 5 consecutive failures")
}

func TestRecordImpressions(t *testing.T) {
	store := galleryFixture()
	svc := NewService(NewCache[[]ScoredItem](), store, nil, ServiceConfig{})

	items, err := svc.Related(context.Background(), "src", 5)
	require.NoError(t, err)

	svc.RecordImpressions("user-1", "session-1", "src", items)
	svc.RecordImpressions("user-1", "", "src", nil)
	svc.Close()

	require.Len(t, store.impressions, 2)
	assert.Equal(t, "a", store.impressions[0].ItemID)
	assert.Equal(t, 0, store.impressions[0].Position)
	assert.Equal(t, 1, store.impressions[1].Position)
	assert.Equal(t, SourceTags, store.impressions[0].Source)
	require.NotNil(t, store.impressions[0].SessionID)
	assert.Equal(t, "session-1", *store.impressions[0].SessionID)
}

func TestRecordImpressionsFailureIsSwallowed(t *testing.T) {
	store := galleryFixture()
	store.failWrites = true
	svc := NewService(NewCache[[]ScoredItem](), store, nil, ServiceConfig{})

	svc.RecordImpressions("user-1", "", "src", []ScoredItem{{Item: models.GalleryItem{ID: "a"}, Source: SourceTags}})
	svc.Close()

	assert.Empty(t, store.impressions)
}
