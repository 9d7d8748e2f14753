package handlers

import (
	"net/http"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/gin-gonic/gin"
)

type itemJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	ImageURL  string   `json:"image_url"`
	Tags      []string `json:"tags"`
	LikeCount int64    `json:"like_count"`
	ViewCount int64    `json:"view_count"`
	Locked    bool     `json:"locked"`
}

type listJSON struct {
	Items []itemJSON `json:"items"`
	Meta  struct {
		Total  int64 `json:"total"`
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Count  int   `json:"count"`
	} `json:"meta"`
}

func (s *HandlersTestSuite) TestListGallery() {
	w := s.do(http.MethodGet, "/api/v1/gallery", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp listJSON
	s.decode(w, &resp)
	s.Require().Len(resp.Items, 4)
	s.Equal(int64(4), resp.Meta.Total)
	s.Equal("Fan mural", resp.Items[0].Title)

	// Secret set is VIP only, anonymous viewers see it without its image
	secret := resp.Items[1]
	s.Equal("Secret set", secret.Title)
	s.True(secret.Locked)
	s.Empty(secret.ImageURL)
	s.False(resp.Items[0].Locked)
	s.NotEmpty(resp.Items[0].ImageURL)
}

func (s *HandlersTestSuite) TestListGalleryUnlocksForTier() {
	w := s.do(http.MethodGet, "/api/v1/gallery?tag=live", vipToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp listJSON
	s.decode(w, &resp)
	s.Require().Len(resp.Items, 2)
	s.Equal(int64(2), resp.Meta.Total)
	for _, item := range resp.Items {
		s.False(item.Locked)
		s.NotEmpty(item.ImageURL)
	}
}

func (s *HandlersTestSuite) TestListGalleryPaging() {
	w := s.do(http.MethodGet, "/api/v1/gallery?limit=2&offset=1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp listJSON
	s.decode(w, &resp)
	s.Require().Len(resp.Items, 2)
	s.Equal("Secret set", resp.Items[0].Title)
	s.Equal(2, resp.Meta.Limit)
	s.Equal(1, resp.Meta.Offset)

	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/v1/gallery?limit=500", "", nil).Code)
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/v1/gallery?offset=-1", "", nil).Code)
}

func (s *HandlersTestSuite) TestGetGalleryItemCountsView() {
	path := "/api/v1/gallery/" + s.items[0].ID
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, path, "", nil).Code)

	w := s.do(http.MethodGet, path, fanToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var item itemJSON
	s.decode(w, &item)
	s.Equal("Soundcheck", item.Title)
	s.Equal(int64(1), item.ViewCount, "the response is read before this request's view lands")

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/gallery/missing", "", nil).Code)
}

func (s *HandlersTestSuite) TestLikeGalleryItem() {
	path := "/api/v1/gallery/" + s.items[1].ID + "/like"
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, path, "", nil).Code)

	w := s.do(http.MethodPost, path, fanToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		LikeCount int64 `json:"like_count"`
	}
	s.decode(w, &resp)
	s.Equal(int64(1), resp.LikeCount)

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/v1/gallery/missing/like", fanToken, nil).Code)
}

func (s *HandlersTestSuite) TestGetRelatedRecordsImpressions() {
	path := "/api/v1/gallery/" + s.items[1].ID + "/related?session_id=sess-1"
	w := s.do(http.MethodGet, path, fanToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			Item   itemJSON `json:"item"`
			Score  float64  `json:"score"`
			Source string   `json:"source"`
			Reason string   `json:"reason"`
		} `json:"items"`
		Meta struct {
			ItemID string `json:"item_id"`
			Count  int    `json:"count"`
		} `json:"meta"`
	}
	s.decode(w, &resp)
	s.Require().Len(resp.Items, 2)
	s.Equal(s.items[1].ID, resp.Meta.ItemID)

	titles := map[string]itemJSON{}
	for _, r := range resp.Items {
		s.Equal("tags", r.Source)
		s.NotEqual(s.items[1].ID, r.Item.ID)
		titles[r.Item.Title] = r.Item
	}
	s.Contains(titles, "Soundcheck")
	s.Require().Contains(titles, "Secret set")
	s.True(titles["Secret set"].Locked, "fans below VIP do not get the locked image")

	s.Eventually(func() bool {
		var count int64
		s.db.Model(&models.RecommendationImpression{}).
			Where("session_id = ? AND user_id = ?", "sess-1", s.fan.ID).
			Count(&count)
		return count == 2
	}, time.Second, 10*time.Millisecond)
}

func (s *HandlersTestSuite) TestGetRelatedLimitAndMissing() {
	w := s.do(http.MethodGet, "/api/v1/gallery/"+s.items[1].ID+"/related?limit=1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Items []interface{} `json:"items"`
	}
	s.decode(w, &resp)
	s.Len(resp.Items, 1)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/gallery/missing/related", "", nil).Code)
}

func (s *HandlersTestSuite) TestRecordRelatedClick() {
	path := "/api/v1/gallery/" + s.items[1].ID + "/related/click"

	w := s.do(http.MethodPost, path, fanToken, gin.H{
		"item_id":    s.items[0].ID,
		"source":     "tags",
		"position":   1,
		"session_id": "sess-2",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var click models.RecommendationClick
	s.Require().NoError(s.db.Where("session_id = ?", "sess-2").First(&click).Error)
	s.Equal(s.fan.ID, click.UserID)
	s.Equal(s.items[1].ID, click.SourceItemID)
	s.Equal(1, click.Position)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, path, "", gin.H{"item_id": s.items[0].ID, "source": "editorial"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, path, "", gin.H{"source": "tags"}).Code)
}
