package layout

import (
	"fmt"
	"math"
)

// ComputeCanvasSize returns the minimal canvas that holds every image placed
// according to settings, including the configured gaps.
//
// Returns ErrEmptyInput if images is empty, ErrInvalidDimensions if any image
// has a non-positive side, and ErrInvalidSettings if settings fail Validate.
func ComputeCanvasSize(images []Dimensions, settings Settings) (Size, error) {
	s, err := prepare(images, settings)
	if err != nil {
		return Size{}, err
	}

	n := float64(len(images))
	switch s.Layout {
	case LayoutHorizontal:
		ref := referenceHeight(images, s.SizeMode)
		width := 0.0
		for _, img := range images {
			width += scaleToHeight(img, ref)
		}
		return Size{Width: width + s.Gap*(n-1), Height: ref}, nil

	case LayoutVertical:
		ref := referenceWidth(images, s.SizeMode)
		height := 0.0
		for _, img := range images {
			height += scaleToWidth(img, ref)
		}
		return Size{Width: ref, Height: height + s.Gap*(n-1)}, nil

	default:
		g := newGrid(images, s.Columns)
		return Size{
			Width:  sum(g.columnWidths) + s.Gap*float64(g.columns-1),
			Height: sum(g.rowHeights) + s.Gap*float64(g.rows-1),
		}, nil
	}
}

// ComputePlacements returns one rectangle per image, in input order.
//
// canvas should be the value returned by ComputeCanvasSize for the same images
// and settings; horizontal and vertical layouts center each image on the
// canvas's cross axis.
func ComputePlacements(images []Dimensions, settings Settings, canvas Size) ([]Rect, error) {
	s, err := prepare(images, settings)
	if err != nil {
		return nil, err
	}

	placements := make([]Rect, 0, len(images))
	switch s.Layout {
	case LayoutHorizontal:
		ref := referenceHeight(images, s.SizeMode)
		x := 0.0
		for _, img := range images {
			w := scaleToHeight(img, ref)
			placements = append(placements, Rect{
				X:      x,
				Y:      (canvas.Height - ref) / 2,
				Width:  w,
				Height: ref,
			})
			x += w + s.Gap
		}

	case LayoutVertical:
		ref := referenceWidth(images, s.SizeMode)
		y := 0.0
		for _, img := range images {
			h := scaleToWidth(img, ref)
			placements = append(placements, Rect{
				X:      (canvas.Width - ref) / 2,
				Y:      y,
				Width:  ref,
				Height: h,
			})
			y += h + s.Gap
		}

	default:
		g := newGrid(images, s.Columns)
		for i, img := range images {
			col := i % g.columns
			row := i / g.columns
			cellW := g.columnWidths[col]
			cellH := g.rowHeights[row]

			w, h := float64(img.Width), float64(img.Height)
			scale := math.Min(cellW/w, cellH/h)
			w *= scale
			h *= scale

			placements = append(placements, Rect{
				X:      sum(g.columnWidths[:col]) + float64(col)*s.Gap + (cellW-w)/2,
				Y:      sum(g.rowHeights[:row]) + float64(row)*s.Gap + (cellH-h)/2,
				Width:  w,
				Height: h,
			})
		}
	}

	return placements, nil
}

// Resolve computes the canvas size and the placements in one call.
func Resolve(images []Dimensions, settings Settings) (*Plan, error) {
	canvas, err := ComputeCanvasSize(images, settings)
	if err != nil {
		return nil, err
	}
	placements, err := ComputePlacements(images, settings, canvas)
	if err != nil {
		return nil, err
	}
	return &Plan{Canvas: canvas, Placements: placements}, nil
}

// prepare validates the inputs and returns the normalized settings.
func prepare(images []Dimensions, settings Settings) (Settings, error) {
	if len(images) == 0 {
		return Settings{}, ErrEmptyInput
	}
	for i, img := range images {
		if img.Width <= 0 || img.Height <= 0 {
			return Settings{}, fmt.Errorf("%w: image %d is %dx%d", ErrInvalidDimensions, i, img.Width, img.Height)
		}
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings.Normalize(), nil
}

func referenceHeight(images []Dimensions, mode SizeMode) float64 {
	ref := images[0].Height
	for _, img := range images[1:] {
		if mode == SizeModeMinimum {
			ref = min(ref, img.Height)
		} else {
			ref = max(ref, img.Height)
		}
	}
	return float64(ref)
}

func referenceWidth(images []Dimensions, mode SizeMode) float64 {
	ref := images[0].Width
	for _, img := range images[1:] {
		if mode == SizeModeMinimum {
			ref = min(ref, img.Width)
		} else {
			ref = max(ref, img.Width)
		}
	}
	return float64(ref)
}

// scaleToHeight returns the width of img after uniform scaling to height ref.
func scaleToHeight(img Dimensions, ref float64) float64 {
	return float64(img.Width) * ref / float64(img.Height)
}

// scaleToWidth returns the height of img after uniform scaling to width ref.
func scaleToWidth(img Dimensions, ref float64) float64 {
	return float64(img.Height) * ref / float64(img.Width)
}

// grid holds the cell geometry of a grid layout. Columns never exceed the
// number of images, so unused columns add neither width nor gaps.
type grid struct {
	columns      int
	rows         int
	columnWidths []float64
	rowHeights   []float64
}

func newGrid(images []Dimensions, columns int) grid {
	if columns > len(images) {
		columns = len(images)
	}
	rows := (len(images) + columns - 1) / columns

	g := grid{
		columns:      columns,
		rows:         rows,
		columnWidths: make([]float64, columns),
		rowHeights:   make([]float64, rows),
	}
	for i, img := range images {
		col, row := i%columns, i/columns
		g.columnWidths[col] = math.Max(g.columnWidths[col], float64(img.Width))
		g.rowHeights[row] = math.Max(g.rowHeights[row], float64(img.Height))
	}
	return g
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
