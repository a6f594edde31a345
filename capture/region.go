// Package capture turns an ephemeral on-page selection into pipeline input:
// a screen-region rectangle cropped out of a full-viewport raster, or a text
// highlight lifted from the live page via the browser.
package capture

import (
	"math"
	"time"
)

// MinRegionCSS is the minimum selectable region edge in CSS pixels. Regions
// below it are accidental drags, not capture requests, and are discarded
// before the pipeline — a non-event, not an error.
const MinRegionCSS = 5.0

// Region is a user-drawn rectangle in viewport CSS pixels plus the device
// pixel ratio needed to map it onto the physical raster.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPR    float64 `json:"dpr"`
}

// TooSmall reports whether the region is below the capture threshold.
func (r Region) TooSmall() bool {
	return r.Width < MinRegionCSS || r.Height < MinRegionCSS
}

// rasterRect maps the region onto a raster of the given pixel dimensions:
// coordinates scaled by DPR, rounded, then clamped so the crop rectangle
// always lies inside the raster and is at least 1x1.
func (r Region) rasterRect(rasterW, rasterH int) (sx, sy, sw, sh int) {
	scale := r.DPR
	if scale <= 0 {
		scale = 1
	}

	sx = clamp(round(r.X*scale), 0, rasterW-1)
	sy = clamp(round(r.Y*scale), 0, rasterH-1)
	sw = clamp(round(r.Width*scale), 1, rasterW-sx)
	sh = clamp(round(r.Height*scale), 1, rasterH-sy)
	return sx, sy, sw, sh
}

func round(f float64) int { return int(math.Round(f)) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SelectionPayload is the highlight captured when the user triggers an
// insertion. It is immutable for the lifetime of one attempt.
type SelectionPayload struct {
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"`
	PageURL   string    `json:"page_url"`
	PageTitle string    `json:"page_title"`
	Timestamp time.Time `json:"timestamp"`
}
