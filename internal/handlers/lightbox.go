package handlers

import (
	"errors"
	"net/http"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/lightbox"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/telemetry"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxSessionItems caps how many items one lightbox session can hold
const maxSessionItems = 200

// CreateSessionRequest builds a lightbox over explicit item ids, or over a
// gallery listing when ItemIDs is empty
type CreateSessionRequest struct {
	ItemIDs    []string `json:"item_ids"`
	Tag        string   `json:"tag"`
	CreatorID  string   `json:"creator_id"`
	Limit      int      `json:"limit" binding:"gte=0"`
	StartIndex *int     `json:"start_index"`
	FocusID    string   `json:"focus_id"`
}

// OpenRequest opens the lightbox at an index
type OpenRequest struct {
	Index   *int   `json:"index" binding:"required"`
	FocusID string `json:"focus_id"`
}

// GoToRequest jumps to an index
type GoToRequest struct {
	Index *int `json:"index" binding:"required"`
}

// ZoomRequest is either a step action or an explicit zoom state
type ZoomRequest struct {
	Action  string  `json:"action" binding:"omitempty,oneof=in out reset"`
	Scale   float64 `json:"scale" binding:"gte=0"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// PanRequest drags a zoomed image inside a container of the given size
type PanRequest struct {
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Width  float64 `json:"width" binding:"gt=0"`
	Height float64 `json:"height" binding:"gt=0"`
}

// sessionResponse is a session snapshot with the current item presented for
// the viewer's tier
type sessionResponse struct {
	lightbox.State
	CurrentItem  *galleryItemResponse `json:"current_item,omitempty"`
	Changed      bool                 `json:"changed"`
	RestoreFocus string               `json:"restore_focus,omitempty"`
}

func (h *Handlers) respondSession(c *gin.Context, status int, s *lightbox.Session, changed bool) {
	resp := sessionResponse{State: s.Snapshot(), Changed: changed}
	if resp.State.CurrentItem != nil {
		item := presentItem(*resp.State.CurrentItem, util.ViewerTier(c))
		resp.CurrentItem = &item
	}
	c.JSON(status, resp)
}

// session loads the session named by :id, responding 404 when it is gone
func (h *Handlers) session(c *gin.Context) (*lightbox.Session, bool) {
	s, err := h.kernel.Sessions().Get(c.Param("id"))
	if errors.Is(err, lightbox.ErrSessionNotFound) {
		util.RespondNotFound(c, "lightbox session")
		return nil, false
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load lightbox session", err)
		return nil, false
	}
	return s, true
}

// CreateLightboxSession creates a closed lightbox session, opening it at
// start_index when given
// POST /api/v1/lightbox/sessions
func (h *Handlers) CreateLightboxSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if len(req.ItemIDs) > maxSessionItems {
		util.RespondValidationError(c, "item_ids", "too many items for one session")
		return
	}

	ctx := c.Request.Context()
	var (
		items []models.GalleryItem
		err   error
	)
	if len(req.ItemIDs) > 0 {
		items, err = h.kernel.Gallery().GetByIDs(ctx, req.ItemIDs)
	} else {
		items, err = h.kernel.Gallery().List(ctx, repository.GalleryFilter{
			Tag:       req.Tag,
			CreatorID: req.CreatorID,
			Limit:     req.Limit,
		})
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load gallery items", err)
		return
	}

	tier := util.ViewerTier(c)
	s := h.kernel.Sessions().Create(items, lightbox.WithViewerTier(tier))

	_, span := telemetry.TraceGalleryEvent(ctx, "lightbox.create", telemetry.GalleryEventAttrs{
		SessionID: s.ID(),
		UserID:    util.ViewerID(c),
		Count:     len(items),
	})
	defer span.End()

	logger.Log.Debug("Lightbox session created",
		logger.WithSessionID(s.ID()),
		logger.WithUserID(util.ViewerID(c)),
		zap.Int("items", len(items)),
	)

	opened := false
	if req.StartIndex != nil {
		if req.FocusID != "" {
			setActive(s, req.FocusID)
		}
		opened = s.Open(*req.StartIndex)
	}

	h.respondSession(c, http.StatusCreated, s, opened)
}

// GetLightboxSession returns the current session state
// GET /api/v1/lightbox/sessions/:id
func (h *Handlers) GetLightboxSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respondSession(c, http.StatusOK, s, false)
}

// DeleteLightboxSession discards a session
// DELETE /api/v1/lightbox/sessions/:id
func (h *Handlers) DeleteLightboxSession(c *gin.Context) {
	if err := h.kernel.Sessions().Delete(c.Param("id")); err != nil {
		if errors.Is(err, lightbox.ErrSessionNotFound) {
			util.RespondNotFound(c, "lightbox session")
			return
		}
		util.RespondInternalError(c, "failed to delete lightbox session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// OpenLightbox shows the item at index. focus_id names the element that had
// focus before opening so it can be restored on close.
// POST /api/v1/lightbox/sessions/:id/open
func (h *Handlers) OpenLightbox(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.FocusID != "" {
		setActive(s, req.FocusID)
	}
	opened := s.Open(*req.Index)
	h.traceNavigation(c, s, "lightbox.open")
	h.respondSession(c, http.StatusOK, s, opened)
}

// CloseLightbox hides the lightbox and reports which element gets focus back
// POST /api/v1/lightbox/sessions/:id/close
func (h *Handlers) CloseLightbox(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	wasOpen := s.IsOpen()
	s.Close()

	resp := sessionResponse{State: s.Snapshot(), Changed: wasOpen}
	if rec, ok := s.Focus().(*lightbox.FocusRecorder); ok {
		resp.RestoreFocus = rec.TakeRestored()
	}
	c.JSON(http.StatusOK, resp)
}

// NextLightboxItem advances one item
// POST /api/v1/lightbox/sessions/:id/next
func (h *Handlers) NextLightboxItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	moved := s.Next()
	h.traceNavigation(c, s, "lightbox.next")
	h.respondSession(c, http.StatusOK, s, moved)
}

// PreviousLightboxItem goes back one item
// POST /api/v1/lightbox/sessions/:id/previous
func (h *Handlers) PreviousLightboxItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	moved := s.Previous()
	h.traceNavigation(c, s, "lightbox.previous")
	h.respondSession(c, http.StatusOK, s, moved)
}

// GoToLightboxItem jumps directly to an index
// POST /api/v1/lightbox/sessions/:id/goto
func (h *Handlers) GoToLightboxItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req GoToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	moved := s.GoToIndex(*req.Index)
	h.traceNavigation(c, s, "lightbox.goto")
	h.respondSession(c, http.StatusOK, s, moved)
}

// ZoomLightbox steps the zoom with action, or sets scale and offsets directly
// POST /api/v1/lightbox/sessions/:id/zoom
func (h *Handlers) ZoomLightbox(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req ZoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	switch {
	case req.Action == "in":
		s.ZoomIn()
	case req.Action == "out":
		s.ZoomOut()
	case req.Action == "reset":
		s.ResetZoom()
	case req.Scale > 0:
		s.SetZoom(func(lightbox.Zoom) lightbox.Zoom {
			return lightbox.Zoom{Scale: req.Scale, OffsetX: req.OffsetX, OffsetY: req.OffsetY}
		})
	default:
		util.RespondValidationError(c, "action", "either action or scale is required")
		return
	}
	h.respondSession(c, http.StatusOK, s, true)
}

// PanLightbox moves a zoomed image, clamped to the container
// POST /api/v1/lightbox/sessions/:id/pan
func (h *Handlers) PanLightbox(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req PanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	moved := s.Pan(req.DX, req.DY, req.Width, req.Height)
	h.respondSession(c, http.StatusOK, s, moved)
}

// LightboxKey applies a keyboard shortcut
// POST /api/v1/lightbox/sessions/:id/keys
func (h *Handlers) LightboxKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req lightbox.KeyEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	wasOpen := s.IsOpen()
	handled := s.HandleKey(req)

	resp := sessionResponse{State: s.Snapshot(), Changed: handled}
	if resp.State.CurrentItem != nil {
		item := presentItem(*resp.State.CurrentItem, util.ViewerTier(c))
		resp.CurrentItem = &item
	}
	if wasOpen && !resp.IsOpen {
		if rec, ok := s.Focus().(*lightbox.FocusRecorder); ok {
			resp.RestoreFocus = rec.TakeRestored()
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) traceNavigation(c *gin.Context, s *lightbox.Session, op string) {
	st := s.Snapshot()
	attrs := telemetry.GalleryEventAttrs{
		SessionID: st.ID,
		UserID:    util.ViewerID(c),
		Index:     st.CurrentIndex,
		Count:     st.Length,
	}
	if st.CurrentItem != nil {
		attrs.ItemID = st.CurrentItem.ID
	}
	_, span := telemetry.TraceGalleryEvent(c.Request.Context(), op, attrs)
	span.End()
}

// setActive records the element a remote client reported as focused
func setActive(s *lightbox.Session, focusID string) {
	if rec, ok := s.Focus().(*lightbox.FocusRecorder); ok {
		rec.SetActive(focusID)
	}
}
