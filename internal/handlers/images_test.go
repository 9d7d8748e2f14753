package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/preload"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
)

type imageStatusJSON struct {
	Load              preload.ImageLoad `json:"load"`
	CanRetry          bool              `json:"can_retry"`
	MaxRetriesReached bool              `json:"max_retries_reached"`
}

func (s *HandlersTestSuite) imageStatus(itemID string) (imageStatusJSON, int) {
	return s.imageStatusAs(itemID, "")
}

func (s *HandlersTestSuite) imageStatusAs(itemID, token string) (imageStatusJSON, int) {
	w := s.do(http.MethodGet, "/api/v1/gallery/"+itemID+"/image/status", token, nil)
	var resp imageStatusJSON
	if w.Code == http.StatusOK {
		s.decode(w, &resp)
	}
	return resp, w.Code
}

func (s *HandlersTestSuite) waitForImageState(itemID string, want preload.LoadState) imageStatusJSON {
	return s.waitForImageStateAs(itemID, "", want)
}

func (s *HandlersTestSuite) waitForImageStateAs(itemID, token string, want preload.LoadState) imageStatusJSON {
	var last imageStatusJSON
	s.Require().Eventually(func() bool {
		status, code := s.imageStatusAs(itemID, token)
		last = status
		return code == http.StatusOK && status.Load.State == want
	}, time.Second, 5*time.Millisecond)
	return last
}

func (s *HandlersTestSuite) TestLoadImage() {
	item := s.items[0]
	_, code := s.imageStatus(item.ID)
	s.Equal(http.StatusNotFound, code)

	w := s.do(http.MethodPost, "/api/v1/gallery/"+item.ID+"/image/load", "", nil)
	s.Require().Equal(http.StatusAccepted, w.Code)
	var load preload.ImageLoad
	s.decode(w, &load)
	s.Equal(item.ID, load.ItemID)
	s.Equal(item.ImageURL, load.URL)

	status := s.waitForImageState(item.ID, preload.StateLoaded)
	s.False(status.CanRetry)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/gallery/"+item.ID+"/image/retry", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/v1/gallery/"+s.items[3].ID+"/image/retry", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/v1/gallery/missing/image/load", "", nil).Code)
}

func (s *HandlersTestSuite) TestLoadImageTierLocked() {
	locked := s.items[2]

	w := s.do(http.MethodPost, "/api/v1/gallery/"+locked.ID+"/image/load", fanToken, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "TIER_LOCKED")

	s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/api/v1/gallery/"+locked.ID+"/image/load", vipToken, nil).Code)
}

func (s *HandlersTestSuite) TestRetryImageUntilExhausted() {
	s.failing.Store(true)
	item := s.items[3]
	path := "/api/v1/gallery/" + item.ID + "/image"

	s.Require().Equal(http.StatusAccepted, s.do(http.MethodPost, path+"/load", "", nil).Code)
	status := s.waitForImageState(item.ID, preload.StateError)
	s.True(status.CanRetry)
	s.Equal("connection reset", status.Load.LastError)

	for i := 1; i <= preload.MaxRetries; i++ {
		s.Require().Equal(http.StatusAccepted, s.do(http.MethodPost, path+"/retry", "", nil).Code)
		status = s.waitForImageState(item.ID, preload.StateError)
		s.Equal(i, status.Load.Retries)
	}

	s.True(status.MaxRetriesReached)
	s.False(status.CanRetry)

	w := s.do(http.MethodPost, path+"/retry", "", nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Contains(w.Body.String(), "MAX_RETRIES_REACHED")

	var apiErr util.ErrorResponse
	s.decode(w, &apiErr)
	s.Equal(fmt.Sprintf("%d of %d retries used", preload.MaxRetries, preload.MaxRetries), apiErr.Details)
}

func (s *HandlersTestSuite) TestLockedImageStatusIsHidden() {
	locked := s.items[2]
	path := "/api/v1/gallery/" + locked.ID + "/image"

	s.Require().Equal(http.StatusAccepted, s.do(http.MethodPost, path+"/load", vipToken, nil).Code)
	status := s.waitForImageStateAs(locked.ID, vipToken, preload.StateLoaded)
	s.Equal(locked.ImageURL, status.Load.URL)

	for _, token := range []string{"", fanToken} {
		w := s.do(http.MethodGet, path+"/status", token, nil)
		s.Equal(http.StatusForbidden, w.Code)
		s.Contains(w.Body.String(), "TIER_LOCKED")
		s.NotContains(w.Body.String(), locked.ImageURL)

		w = s.do(http.MethodPost, path+"/retry", token, nil)
		s.Equal(http.StatusForbidden, w.Code)
		s.NotContains(w.Body.String(), locked.ImageURL)
	}
}

func (s *HandlersTestSuite) TestImageRetryBudgetIsPerViewer() {
	s.failing.Store(true)
	item := s.items[3]
	path := "/api/v1/gallery/" + item.ID + "/image"

	s.Require().Equal(http.StatusAccepted, s.do(http.MethodPost, path+"/load", "", nil).Code)
	s.waitForImageState(item.ID, preload.StateError)
	for i := 0; i < preload.MaxRetries; i++ {
		s.Require().Equal(http.StatusAccepted, s.do(http.MethodPost, path+"/retry", "", nil).Code)
		s.waitForImageState(item.ID, preload.StateError)
	}
	s.Equal(http.StatusConflict, s.do(http.MethodPost, path+"/retry", "", nil).Code)

	// The CDN recovers; a signed-in viewer is not held to the anonymous budget
	s.failing.Store(false)
	_, code := s.imageStatusAs(item.ID, vipToken)
	s.Equal(http.StatusNotFound, code)

	w := s.do(http.MethodPost, path+"/load", vipToken, nil)
	s.Require().Equal(http.StatusAccepted, w.Code)
	var load preload.ImageLoad
	s.decode(w, &load)
	s.Equal(preload.StateLoading, load.State)
	s.Zero(load.Retries)

	status := s.waitForImageStateAs(item.ID, vipToken, preload.StateLoaded)
	s.False(status.MaxRetriesReached)

	// A lightbox session id separates anonymous viewers too
	w = s.do(http.MethodPost, path+"/load?session_id=abc", "", nil)
	s.Require().Equal(http.StatusAccepted, w.Code)
	s.decode(w, &load)
	s.Zero(load.Retries)

	anon, code := s.imageStatus(item.ID)
	s.Equal(http.StatusOK, code)
	s.True(anon.MaxRetriesReached)
}
