package layout

import (
	"errors"
	"fmt"
	"math"
)

// Layout is the arrangement strategy for a composition.
type Layout string

const (
	LayoutHorizontal Layout = "horizontal"
	LayoutVertical   Layout = "vertical"
	LayoutGrid       Layout = "grid"
)

// SizeMode reconciles differing source dimensions in horizontal and vertical layouts.
type SizeMode string

const (
	// SizeModeDefault scales every image to the largest shared dimension.
	SizeModeDefault SizeMode = "default"

	// SizeModeMinimum scales every image to the smallest shared dimension.
	SizeModeMinimum SizeMode = "minimum"
)

// DefaultColumns is used for grid layouts when Settings.Columns is zero.
const DefaultColumns = 2

var (
	// ErrEmptyInput is returned when a composition is requested with no images.
	ErrEmptyInput = errors.New("no images supplied")

	// ErrInvalidDimensions is returned when an image has a non-positive width or height.
	ErrInvalidDimensions = errors.New("image dimensions must be positive")

	// ErrInvalidSettings is returned for unknown layouts or size modes, negative
	// gaps, or negative column counts.
	ErrInvalidSettings = errors.New("invalid layout settings")
)

// Settings describes how a set of images is combined.
//
// Settings is a value type: the resolver never modifies the caller's copy.
// JSON field names match the worker protocol.
type Settings struct {
	// Layout selects horizontal, vertical or grid arrangement.
	Layout Layout `json:"layout"`

	// Gap is the spacing in pixels between adjacent images. Must be >= 0.
	Gap float64 `json:"gap"`

	// BackgroundColor fills the canvas before images are drawn. It is not
	// interpreted by this package; see imaging.ParseColor.
	BackgroundColor string `json:"backgroundColor,omitempty"`

	// Columns is the number of grid columns. Zero means DefaultColumns.
	// Ignored for horizontal and vertical layouts.
	Columns int `json:"columns,omitempty"`

	// SizeMode picks the reference dimension for horizontal and vertical
	// layouts. Empty means SizeModeDefault. Ignored for grid layouts.
	SizeMode SizeMode `json:"sizeMode,omitempty"`
}

// Normalize returns a copy of s with defaults applied.
func (s Settings) Normalize() Settings {
	if s.Columns == 0 {
		s.Columns = DefaultColumns
	}
	if s.SizeMode == "" {
		s.SizeMode = SizeModeDefault
	}
	return s
}

// Validate reports whether the normalized settings can be resolved.
func (s Settings) Validate() error {
	s = s.Normalize()

	switch s.Layout {
	case LayoutHorizontal, LayoutVertical, LayoutGrid:
	default:
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidSettings, s.Layout)
	}

	switch s.SizeMode {
	case SizeModeDefault, SizeModeMinimum:
	default:
		return fmt.Errorf("%w: unknown size mode %q", ErrInvalidSettings, s.SizeMode)
	}

	if s.Gap < 0 || math.IsNaN(s.Gap) || math.IsInf(s.Gap, 0) {
		return fmt.Errorf("%w: gap must be a non-negative number, got %v", ErrInvalidSettings, s.Gap)
	}
	if s.Columns < 1 {
		return fmt.Errorf("%w: columns must be positive, got %d", ErrInvalidSettings, s.Columns)
	}
	return nil
}

// Dimensions is the natural size of one input image in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is the resolved placement of one image on the canvas.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is the size of the composite canvas.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Plan bundles the canvas size with the placements computed for it.
type Plan struct {
	Canvas     Size   `json:"canvas"`
	Placements []Rect `json:"placements"`
}
