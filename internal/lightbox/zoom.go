package lightbox

import "math"

const (
	// MinScale is the unzoomed scale; pan offsets reset at it
	MinScale = 1.0
	// MaxScale caps ZoomIn
	MaxScale = 3.0
	// ZoomStep is the scale change of one zoom in or out
	ZoomStep = 0.5
)

// Zoom is the magnification and pan offset of the displayed image
type Zoom struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// IdentityZoom is the unzoomed, centered view
var IdentityZoom = Zoom{Scale: MinScale}

// zoomBy steps the scale and keeps it in [MinScale, MaxScale]. Landing on
// MinScale recenters the image.
func zoomBy(z Zoom, delta float64) Zoom {
	z.Scale = math.Min(MaxScale, math.Max(MinScale, z.Scale+delta))
	if z.Scale == MinScale {
		z.OffsetX, z.OffsetY = 0, 0
	}
	return z
}

// ClampPan limits offset so a zoomed image cannot be dragged past its edge:
// at scale s the image overhangs the viewport by (s-1)/2 of the dimension on
// each side.
func ClampPan(offset, scale, dimension float64) float64 {
	limit := (scale - 1) / 2 * dimension
	if limit <= 0 {
		return 0
	}
	return math.Max(-limit, math.Min(limit, offset))
}
