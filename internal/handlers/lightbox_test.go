package handlers

import (
	"net/http"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/lightbox"
	"github.com/gin-gonic/gin"
)

type sessionJSON struct {
	ID               string        `json:"id"`
	IsOpen           bool          `json:"is_open"`
	CurrentIndex     int           `json:"current_index"`
	Zoom             lightbox.Zoom `json:"zoom"`
	NavigationLocked bool          `json:"navigation_locked"`
	CanNext          bool          `json:"can_next"`
	CanPrev          bool          `json:"can_prev"`
	Length           int           `json:"length"`
	CurrentItem      *itemJSON     `json:"current_item"`
	Changed          bool          `json:"changed"`
	RestoreFocus     string        `json:"restore_focus"`
}

func (s *HandlersTestSuite) session(method, path, token string, body interface{}, wantStatus int) sessionJSON {
	w := s.do(method, path, token, body)
	s.Require().Equal(wantStatus, w.Code, w.Body.String())
	var resp sessionJSON
	s.decode(w, &resp)
	return resp
}

func (s *HandlersTestSuite) itemIDs() []string {
	ids := make([]string, 0, len(s.items))
	for _, item := range s.items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (s *HandlersTestSuite) createSession(token string, body gin.H) sessionJSON {
	return s.session(http.MethodPost, "/api/v1/lightbox/sessions", token, body, http.StatusCreated)
}

func (s *HandlersTestSuite) TestLightboxNavigation() {
	created := s.createSession("", gin.H{"item_ids": s.itemIDs()})
	s.False(created.IsOpen)
	s.Equal(4, created.Length)
	base := "/api/v1/lightbox/sessions/" + created.ID

	opened := s.session(http.MethodPost, base+"/open", "", gin.H{"index": 0, "focus_id": "thumb-0"}, http.StatusOK)
	s.True(opened.IsOpen)
	s.True(opened.Changed)
	s.Require().NotNil(opened.CurrentItem)
	s.Equal("Soundcheck", opened.CurrentItem.Title)
	s.False(opened.CanPrev)
	s.True(opened.CanNext)

	next := s.session(http.MethodPost, base+"/next", "", nil, http.StatusOK)
	s.True(next.Changed)
	s.Equal(1, next.CurrentIndex)
	s.True(next.NavigationLocked)

	locked := s.session(http.MethodPost, base+"/next", "", nil, http.StatusOK)
	s.False(locked.Changed)
	s.Equal(1, locked.CurrentIndex)

	s.clock.Advance(lightbox.DefaultNavigationCooldown)
	moved := s.session(http.MethodPost, base+"/next", "", nil, http.StatusOK)
	s.True(moved.Changed)
	s.Equal(2, moved.CurrentIndex)
	s.Require().NotNil(moved.CurrentItem)
	s.True(moved.CurrentItem.Locked)
	s.Empty(moved.CurrentItem.ImageURL)

	s.clock.Advance(lightbox.DefaultNavigationCooldown)
	prev := s.session(http.MethodPost, base+"/previous", "", nil, http.StatusOK)
	s.Equal(1, prev.CurrentIndex)

	jumped := s.session(http.MethodPost, base+"/goto", "", gin.H{"index": 3}, http.StatusOK)
	s.True(jumped.Changed, "goto ignores the cooldown")
	s.Equal(3, jumped.CurrentIndex)
	s.False(jumped.CanNext)

	rejected := s.session(http.MethodPost, base+"/goto", "", gin.H{"index": 9}, http.StatusOK)
	s.False(rejected.Changed)
	s.Equal(3, rejected.CurrentIndex)

	closed := s.session(http.MethodPost, base+"/close", "", nil, http.StatusOK)
	s.False(closed.IsOpen)
	s.True(closed.Changed)
	s.Equal("thumb-0", closed.RestoreFocus)
	s.Nil(closed.CurrentItem)

	again := s.session(http.MethodPost, base+"/close", "", nil, http.StatusOK)
	s.False(again.Changed)
	s.Empty(again.RestoreFocus)
}

func (s *HandlersTestSuite) TestLightboxCreateFromListing() {
	created := s.createSession(vipToken, gin.H{"tag": "tour", "start_index": 5, "focus_id": "grid"})
	s.Equal(2, created.Length)
	s.True(created.IsOpen)
	s.Equal(1, created.CurrentIndex, "start index is clamped into range")
	s.Require().NotNil(created.CurrentItem)
	s.Equal("Soundcheck", created.CurrentItem.Title)

	empty := s.createSession("", gin.H{"tag": "nothing-tagged-this", "start_index": 0})
	s.Equal(0, empty.Length)
	s.False(empty.IsOpen)
	s.False(empty.Changed)
}

func (s *HandlersTestSuite) TestLightboxZoomAndPan() {
	created := s.createSession("", gin.H{"item_ids": s.itemIDs(), "start_index": 0})
	base := "/api/v1/lightbox/sessions/" + created.ID

	zoomed := s.session(http.MethodPost, base+"/zoom", "", gin.H{"action": "in"}, http.StatusOK)
	s.Equal(1.5, zoomed.Zoom.Scale)

	panned := s.session(http.MethodPost, base+"/pan", "", gin.H{"dx": 1000, "dy": -10, "width": 800, "height": 600}, http.StatusOK)
	s.True(panned.Changed)
	s.Equal(200.0, panned.Zoom.OffsetX, "pan is clamped to half the overflow")
	s.Equal(-10.0, panned.Zoom.OffsetY)

	set := s.session(http.MethodPost, base+"/zoom", "", gin.H{"scale": 2.5, "offset_x": 5}, http.StatusOK)
	s.Equal(2.5, set.Zoom.Scale)
	s.Equal(5.0, set.Zoom.OffsetX)

	reset := s.session(http.MethodPost, base+"/zoom", "", gin.H{"action": "reset"}, http.StatusOK)
	s.Equal(lightbox.IdentityZoom, reset.Zoom)

	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodPost, base+"/zoom", "", gin.H{}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, base+"/zoom", "", gin.H{"action": "sideways"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, base+"/pan", "", gin.H{"dx": 1, "width": 0, "height": 600}).Code)
}

func (s *HandlersTestSuite) TestLightboxKeys() {
	created := s.createSession("", gin.H{"item_ids": s.itemIDs()})
	base := "/api/v1/lightbox/sessions/" + created.ID

	ignored := s.session(http.MethodPost, base+"/keys", "", gin.H{"key": "ArrowRight"}, http.StatusOK)
	s.False(ignored.Changed, "keys do nothing while closed")

	s.session(http.MethodPost, base+"/open", "", gin.H{"index": 0, "focus_id": "thumb-0"}, http.StatusOK)

	right := s.session(http.MethodPost, base+"/keys", "", gin.H{"key": "ArrowRight"}, http.StatusOK)
	s.True(right.Changed)
	s.Equal(1, right.CurrentIndex)

	modified := s.session(http.MethodPost, base+"/keys", "", gin.H{"key": "+", "ctrl": true}, http.StatusOK)
	s.False(modified.Changed)

	s.clock.Advance(lightbox.DefaultNavigationCooldown)
	escaped := s.session(http.MethodPost, base+"/keys", "", gin.H{"key": "Escape"}, http.StatusOK)
	s.True(escaped.Changed)
	s.False(escaped.IsOpen)
	s.Equal("thumb-0", escaped.RestoreFocus)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, base+"/keys", "", gin.H{"ctrl": true}).Code)
}

func (s *HandlersTestSuite) TestLightboxSessionLifecycle() {
	created := s.createSession("", gin.H{"item_ids": s.itemIDs()[:2]})
	base := "/api/v1/lightbox/sessions/" + created.ID

	got := s.session(http.MethodGet, base, "", nil, http.StatusOK)
	s.Equal(created.ID, got.ID)
	s.Equal(2, got.Length)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, base+"/open", "", gin.H{"focus_id": "x"}).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, base, "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, base, "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, base, "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, base+"/next", "", nil).Code)
}

func (s *HandlersTestSuite) TestLightboxPreloadsAhead() {
	created := s.createSession(vipToken, gin.H{"item_ids": s.itemIDs(), "start_index": 0})
	s.True(created.IsOpen)

	preloader := s.kernel.Preloader()
	s.Eventually(func() bool {
		return preloader.IsTracked(s.items[1].ImageURL) && preloader.IsTracked(s.items[2].ImageURL)
	}, time.Second, 5*time.Millisecond)
}
