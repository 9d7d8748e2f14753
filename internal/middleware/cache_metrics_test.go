package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCacheMetrics(t *testing.T) {
	m := metrics.Initialize()

	t.Run("hits and misses are counted per cache", func(t *testing.T) {
		m.CacheHitsTotal.Reset()
		m.CacheMissesTotal.Reset()

		RecordCacheHit("cache1")
		RecordCacheHit("cache1")
		RecordCacheHit("cache2")
		RecordCacheMiss("cache1")

		assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("cache1")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("cache2")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("cache1")))
	})

	t.Run("operations record counter and histogram", func(t *testing.T) {
		m.CacheOperationsTotal.Reset()
		m.CacheOperationDuration.Reset()

		RecordCacheOperation("GET", "test_cache", 10*time.Millisecond)
		RecordCacheOperation("GET", "test_cache", 20*time.Millisecond)
		RecordCacheOperation("SET", "test_cache", 15*time.Millisecond)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheOperationsTotal.WithLabelValues("GET", "test_cache")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOperationsTotal.WithLabelValues("SET", "test_cache")))
		assert.Equal(t, 2, testutil.CollectAndCount(m.CacheOperationDuration))
	})

	t.Run("evictions add the count", func(t *testing.T) {
		m.CacheEvictionsTotal.Reset()
		RecordCacheEviction("test_cache", 4)
		assert.Equal(t, 4.0, testutil.ToFloat64(m.CacheEvictionsTotal.WithLabelValues("test_cache")))
	})
}

func TestResponseCachePassesThroughWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ResponseCacheMiddleware(time.Minute))
	calls := 0
	router.GET("/gallery", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gallery", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "response:/api/v1/gallery", generateCacheKey("/api/v1/gallery", "", ""))
	assert.Equal(t, "response:/api/v1/gallery:tag=tour", generateCacheKey("/api/v1/gallery", "tag=tour", ""))
	assert.Equal(t, "response:/api/v1/gallery:tag=tour:u1", generateCacheKey("/api/v1/gallery", "tag=tour", "u1"))
}

func TestSetCacheHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		auth   string
		userID string
		want   string
	}{
		{"anonymous", "", "", "public, max-age=60"},
		{"bearer token", "Bearer vip-token", "", "private, max-age=60"},
		{"authenticated user", "", "u1", "private, max-age=60"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/gallery", nil)
			if tt.auth != "" {
				c.Request.Header.Set("Authorization", tt.auth)
			}
			if tt.userID != "" {
				c.Set("user_id", tt.userID)
			}

			setCacheHeaders(c, time.Minute)

			assert.Equal(t, tt.want, w.Header().Get("Cache-Control"))
			assert.Equal(t, "Authorization", w.Header().Get("Vary"))
		})
	}
}
