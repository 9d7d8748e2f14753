package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/storage"
	"github.com/gin-gonic/gin"
)

// MockImageUploader records uploads in memory
type MockImageUploader struct {
	mu       sync.Mutex
	uploads  map[string][]byte
	deleted  []string
	fail     error
	uploaded int
}

func NewMockImageUploader() *MockImageUploader {
	return &MockImageUploader{uploads: make(map[string][]byte)}
}

func (m *MockImageUploader) UploadGalleryImage(ctx context.Context, data []byte, creatorID, filename string) (*storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	m.uploaded++
	key := "gallery/test/" + creatorID + "/" + filename
	m.uploads[key] = data
	return &storage.UploadResult{
		Key:         key,
		URL:         "https://cdn.example.com/" + key,
		ContentType: "image/png",
		Size:        int64(len(data)),
	}, nil
}

func (m *MockImageUploader) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.uploads, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (s *HandlersTestSuite) upload(token string, fields map[string]string, filename string, data []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		s.Require().NoError(err)
		_, err = part.Write(data)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/gallery", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) TestUploadGalleryItem() {
	uploader := NewMockImageUploader()
	s.kernel.WithMockUploader(uploader)

	w := s.upload(adminToken, map[string]string{
		"title":         "Green room",
		"description":   "Before the show",
		"tags":          "Tour, backstage, tour",
		"tier_locked":   "true",
		"required_tier": "vip",
		"creator_id":    s.creator.ID,
	}, "green-room.png", []byte("\x89PNG fake"))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created models.GalleryItem
	s.decode(w, &created)
	s.NotEmpty(created.ID)
	s.Equal(s.creator.ID, created.CreatorID)
	s.Equal(models.StringArray{"tour", "backstage"}, created.Tags)
	s.True(created.TierLocked)
	s.Equal(models.TierVIP, created.RequiredTier)
	s.Contains(created.ImageURL, "green-room.png")
	s.Equal(1, uploader.uploaded)

	stored, err := s.kernel.Gallery().GetByID(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal("gallery/test/"+s.creator.ID+"/green-room.png", stored.ImageKey)
}

func (s *HandlersTestSuite) TestUploadGalleryItemValidation() {
	uploader := NewMockImageUploader()
	s.kernel.WithMockUploader(uploader)
	png := []byte("png")

	s.Equal(http.StatusUnauthorized, s.upload("", map[string]string{"title": "x"}, "a.png", png).Code)
	s.Equal(http.StatusForbidden, s.upload(fanToken, map[string]string{"title": "x"}, "a.png", png).Code)

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		want     int
	}{
		{"missing file", map[string]string{"title": "x"}, "", http.StatusUnprocessableEntity},
		{"not an image", map[string]string{"title": "x"}, "notes.txt", http.StatusUnprocessableEntity},
		{"missing title", map[string]string{}, "a.png", http.StatusUnprocessableEntity},
		{"unknown tier", map[string]string{"title": "x", "tier_locked": "true", "required_tier": "platinum"}, "a.png", http.StatusUnprocessableEntity},
		{"unknown creator", map[string]string{"title": "x", "creator_id": "missing"}, "a.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.want, s.upload(adminToken, tt.fields, tt.filename, png).Code)
		})
	}
	s.Zero(uploader.uploaded)
}

func (s *HandlersTestSuite) TestUploadWithoutStorage() {
	w := s.upload(adminToken, map[string]string{"title": "x"}, "a.png", []byte("png"))
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlersTestSuite) TestRecommendationCTR() {
	path := "/api/v1/gallery/" + s.items[1].ID + "/related/click"
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, path, fanToken, gin.H{
		"item_id": s.items[0].ID, "source": "tags", "position": 0,
	}).Code)
	s.Require().NoError(s.db.Create(&[]models.RecommendationImpression{
		{ItemID: s.items[0].ID, SourceItemID: s.items[1].ID, Source: "tags"},
		{ItemID: s.items[2].ID, SourceItemID: s.items[1].ID, Source: "tags", Position: 1},
	}).Error)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/recommendations/ctr", fanToken, nil).Code)

	w := s.do(http.MethodGet, "/api/v1/admin/recommendations/ctr?hours=1", adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Hours   int `json:"hours"`
		Metrics []struct {
			Source      string  `json:"source"`
			Impressions int64   `json:"impressions"`
			Clicks      int64   `json:"clicks"`
			CTR         float64 `json:"ctr"`
		} `json:"metrics"`
	}
	s.decode(w, &resp)
	s.Equal(1, resp.Hours)
	s.Require().Len(resp.Metrics, 2)
	s.Equal("tags", resp.Metrics[1].Source)
	s.Equal(int64(2), resp.Metrics[1].Impressions)
	s.Equal(int64(1), resp.Metrics[1].Clicks)
	s.Equal(50.0, resp.Metrics[1].CTR)

	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/v1/admin/recommendations/ctr?hours=0", adminToken, nil).Code)
}

func (s *HandlersTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"database":"ok"`)
	s.Contains(w.Body.String(), `"redis":"not configured"`)
}
