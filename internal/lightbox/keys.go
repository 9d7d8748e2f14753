package lightbox

// Key names follow the DOM KeyboardEvent.key values clients already send
const (
	KeyEscape     = "Escape"
	KeyArrowRight = "ArrowRight"
	KeyArrowLeft  = "ArrowLeft"
	KeySpace      = " "
	KeyPlus       = "+"
	KeyEquals     = "="
	KeyMinus      = "-"
)

// KeyEvent is a single key press
type KeyEvent struct {
	Key  string `json:"key" binding:"required"`
	Ctrl bool   `json:"ctrl"`
	Meta bool   `json:"meta"`
	Alt  bool   `json:"alt"`
}

func (e KeyEvent) modified() bool {
	return e.Ctrl || e.Meta || e.Alt
}

// HandleKey applies the lightbox shortcut for e and reports whether the key
// was consumed. Keys are ignored while closed, while navigation is locked,
// and when a modifier is held.
func (s *Session) HandleKey(e KeyEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !s.isOpen || s.navigationLocked() || e.modified() {
		return false
	}

	switch e.Key {
	case KeyEscape:
		s.closeLocked()
	case KeyArrowRight, KeySpace:
		s.stepLocked(1, "next")
	case KeyArrowLeft:
		s.stepLocked(-1, "previous")
	case KeyPlus, KeyEquals:
		s.zoom = zoomBy(s.zoom, ZoomStep)
	case KeyMinus:
		s.zoom = zoomBy(s.zoom, -ZoomStep)
	default:
		return false
	}
	return true
}
