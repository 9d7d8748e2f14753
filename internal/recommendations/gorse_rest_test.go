package recommendations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGorseRESTClient(t *testing.T) {
	client := NewGorseRESTClient("http://localhost:8087", "test-api-key", nil)

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8087", client.baseURL)
	assert.Equal(t, "test-api-key", client.apiKey)
	require.NotNil(t, client.client)
	assert.Equal(t, 10*time.Second, client.client.Timeout)
}

func TestGetItemNeighbors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/item/item-1/neighbors", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("n"))
		assert.Equal(t, "test-api-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Id":"item-2","Score":0.9},{"Id":"item-3","Score":0.4}]`))
	}))
	defer server.Close()

	client := NewGorseRESTClient(server.URL, "test-api-key", server.Client())
	neighbors, err := client.GetItemNeighbors(context.Background(), "item-1", 5)

	require.NoError(t, err)
	assert.Equal(t, []Neighbor{{ID: "item-2", Score: 0.9}, {ID: "item-3", Score: 0.4}}, neighbors)
}

func TestGetItemNeighbors_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewGorseRESTClient(server.URL, "test-api-key", server.Client())
	_, err := client.GetItemNeighbors(context.Background(), "item-1", 5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestGetItemNeighbors_BadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer server.Close()

	client := NewGorseRESTClient(server.URL, "test-api-key", server.Client())
	_, err := client.GetItemNeighbors(context.Background(), "item-1", 5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestSyncItem(t *testing.T) {
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	item := models.GalleryItem{
		ID:         "item-1",
		CreatorID:  "creator-1",
		Title:      "Soundcheck",
		Tags:       models.StringArray{"tour", "backstage"},
		TierLocked: true,
		CreatedAt:  created,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/item", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var received GorseItem
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		assert.Equal(t, "item-1", received.ItemId)
		assert.Equal(t, []string{"tour", "backstage"}, received.Categories)
		assert.Equal(t, "2026-03-14T12:00:00Z", received.Timestamp)
		assert.Equal(t, "creator-1", received.Labels.CreatorID)
		assert.Equal(t, models.TierSupporter, received.Labels.Tier)
		assert.Equal(t, "Soundcheck", received.Comment)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewGorseRESTClient(server.URL, "test-api-key", server.Client())
	assert.NoError(t, client.SyncItem(context.Background(), item))
}

func TestBatchSyncItems(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/items", r.URL.Path)

		var received []GorseItem
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		assert.Len(t, received, 2)
	}))
	defer server.Close()

	client := NewGorseRESTClient(server.URL, "test-api-key", server.Client())

	assert.NoError(t, client.BatchSyncItems(context.Background(), nil))
	assert.Equal(t, 0, calls, "empty batch should not hit the API")

	items := []models.GalleryItem{{ID: "a"}, {ID: "b"}}
	assert.NoError(t, client.BatchSyncItems(context.Background(), items))
	assert.Equal(t, 1, calls)
}

func TestSyncFeedback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/feedback", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-API-Key"))

		var received []GorseFeedback
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		require.Len(t, received, 1)
		assert.Equal(t, FeedbackLike, received[0].FeedbackType)
		assert.Equal(t, "user-1", received[0].UserId)
		assert.Equal(t, "item-1", received[0].ItemId)
		assert.NotEmpty(t, received[0].Timestamp)
	}))
	defer server.Close()

	client := NewGorseRESTClient(server.URL, "test-api-key", server.Client())
	assert.NoError(t, client.SyncFeedback(context.Background(), "user-1", "item-1", FeedbackLike))
}

func TestHealth(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health/ready", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"Ready":true}`))
	}))
	defer server.Close()

	client := NewGorseRESTClient(server.URL, "test-api-key", server.Client())
	require.NoError(t, client.Health(context.Background()))

	healthy = false
	assert.Error(t, client.Health(context.Background()))
}
