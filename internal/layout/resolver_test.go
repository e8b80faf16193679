package layout

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func dims(pairs ...int) []Dimensions {
	out := make([]Dimensions, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Dimensions{Width: pairs[i], Height: pairs[i+1]})
	}
	return out
}

func TestComputeCanvasSize(t *testing.T) {
	tests := []struct {
		name     string
		images   []Dimensions
		settings Settings
		want     Size
	}{
		{
			"horizontal default uses max height",
			dims(100, 200, 150, 300, 200, 100),
			Settings{Layout: LayoutHorizontal, Gap: 10, SizeMode: SizeModeDefault},
			Size{Width: 920, Height: 300},
		},
		{
			"horizontal minimum uses min height",
			dims(100, 200, 150, 300, 200, 100),
			Settings{Layout: LayoutHorizontal, Gap: 10, SizeMode: SizeModeMinimum},
			Size{Width: 320, Height: 100},
		},
		{
			"horizontal empty size mode means default",
			dims(100, 200, 150, 300, 200, 100),
			Settings{Layout: LayoutHorizontal, Gap: 10},
			Size{Width: 920, Height: 300},
		},
		{
			"horizontal single image",
			dims(200, 100),
			Settings{Layout: LayoutHorizontal, Gap: 10},
			Size{Width: 200, Height: 100},
		},
		{
			"horizontal zero gap",
			dims(100, 100, 100, 100),
			Settings{Layout: LayoutHorizontal},
			Size{Width: 200, Height: 100},
		},
		{
			"vertical default uses max width",
			dims(200, 100, 300, 150, 100, 200),
			Settings{Layout: LayoutVertical, Gap: 10, SizeMode: SizeModeDefault},
			Size{Width: 300, Height: 920},
		},
		{
			"vertical minimum uses min width",
			dims(200, 100, 300, 150, 100, 200),
			Settings{Layout: LayoutVertical, Gap: 10, SizeMode: SizeModeMinimum},
			Size{Width: 100, Height: 320},
		},
		{
			"vertical single image",
			dims(120, 80),
			Settings{Layout: LayoutVertical, Gap: 25},
			Size{Width: 120, Height: 80},
		},
		{
			"grid two columns",
			dims(100, 100, 200, 200, 150, 150, 100, 200),
			Settings{Layout: LayoutGrid, Columns: 2, Gap: 10},
			Size{Width: 360, Height: 410},
		},
		{
			"grid default columns",
			dims(100, 100, 200, 200, 150, 150, 100, 200),
			Settings{Layout: LayoutGrid, Gap: 10},
			Size{Width: 360, Height: 410},
		},
		{
			"grid partial last row",
			dims(100, 50, 80, 60, 40, 40, 90, 30, 70, 20),
			Settings{Layout: LayoutGrid, Columns: 3, Gap: 5},
			// columns: max(100,90)=100, max(80,70)=80, 40; rows: 60, 30
			Size{Width: 230, Height: 95},
		},
		{
			"grid columns exceed image count",
			dims(100, 50, 80, 60),
			Settings{Layout: LayoutGrid, Columns: 5, Gap: 10},
			Size{Width: 190, Height: 60},
		},
		{
			"grid single image",
			dims(64, 48),
			Settings{Layout: LayoutGrid, Gap: 10},
			Size{Width: 64, Height: 48},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeCanvasSize(tt.images, tt.settings)
			if err != nil {
				t.Fatalf("ComputeCanvasSize failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("canvas: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeCanvasSize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		images   []Dimensions
		settings Settings
		want     error
	}{
		{"empty", nil, Settings{Layout: LayoutHorizontal}, ErrEmptyInput},
		{"zero width", dims(0, 10), Settings{Layout: LayoutHorizontal}, ErrInvalidDimensions},
		{"negative height", dims(10, -1), Settings{Layout: LayoutGrid}, ErrInvalidDimensions},
		{"unknown layout", dims(10, 10), Settings{Layout: "diagonal"}, ErrInvalidSettings},
		{"unknown size mode", dims(10, 10), Settings{Layout: LayoutVertical, SizeMode: "huge"}, ErrInvalidSettings},
		{"negative gap", dims(10, 10), Settings{Layout: LayoutVertical, Gap: -1}, ErrInvalidSettings},
		{"NaN gap", dims(10, 10), Settings{Layout: LayoutVertical, Gap: math.NaN()}, ErrInvalidSettings},
		{"negative columns", dims(10, 10), Settings{Layout: LayoutGrid, Columns: -3}, ErrInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeCanvasSize(tt.images, tt.settings)
			if !errors.Is(err, tt.want) {
				t.Errorf("error: got %v, want %v", err, tt.want)
			}
			_, err = ComputePlacements(tt.images, tt.settings, Size{Width: 1, Height: 1})
			if !errors.Is(err, tt.want) {
				t.Errorf("placements error: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestComputePlacements_Horizontal(t *testing.T) {
	images := dims(100, 200, 150, 300, 200, 100)
	settings := Settings{Layout: LayoutHorizontal, Gap: 10}

	plan, err := Resolve(images, settings)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []Rect{
		{X: 0, Y: 0, Width: 150, Height: 300},
		{X: 160, Y: 0, Width: 150, Height: 300},
		{X: 320, Y: 0, Width: 600, Height: 300},
	}
	if !reflect.DeepEqual(plan.Placements, want) {
		t.Errorf("placements: got %+v, want %+v", plan.Placements, want)
	}

	// Every rectangle shares the canvas's vertical center.
	for i, r := range plan.Placements {
		if center := r.Y + r.Height/2; center != plan.Canvas.Height/2 {
			t.Errorf("placement %d: vertical center %v, want %v", i, center, plan.Canvas.Height/2)
		}
	}
}

func TestComputePlacements_HorizontalMinimum(t *testing.T) {
	images := dims(100, 200, 150, 300, 200, 100)
	settings := Settings{Layout: LayoutHorizontal, Gap: 10, SizeMode: SizeModeMinimum}

	plan, err := Resolve(images, settings)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []Rect{
		{X: 0, Y: 0, Width: 50, Height: 100},
		{X: 60, Y: 0, Width: 50, Height: 100},
		{X: 120, Y: 0, Width: 200, Height: 100},
	}
	if !reflect.DeepEqual(plan.Placements, want) {
		t.Errorf("placements: got %+v, want %+v", plan.Placements, want)
	}
}

func TestComputePlacements_Vertical(t *testing.T) {
	images := dims(200, 100, 300, 150, 100, 200)
	settings := Settings{Layout: LayoutVertical, Gap: 10}

	plan, err := Resolve(images, settings)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []Rect{
		{X: 0, Y: 0, Width: 300, Height: 150},
		{X: 0, Y: 160, Width: 300, Height: 150},
		{X: 0, Y: 320, Width: 300, Height: 600},
	}
	if !reflect.DeepEqual(plan.Placements, want) {
		t.Errorf("placements: got %+v, want %+v", plan.Placements, want)
	}

	for i, r := range plan.Placements {
		if center := r.X + r.Width/2; center != plan.Canvas.Width/2 {
			t.Errorf("placement %d: horizontal center %v, want %v", i, center, plan.Canvas.Width/2)
		}
	}
}

func TestComputePlacements_Grid(t *testing.T) {
	images := dims(100, 100, 200, 200, 150, 150, 100, 200)
	settings := Settings{Layout: LayoutGrid, Columns: 2, Gap: 10}

	plan, err := Resolve(images, settings)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Column widths 150, 200; row heights 200, 200.
	want := []Rect{
		{X: 0, Y: 25, Width: 150, Height: 150},
		{X: 160, Y: 0, Width: 200, Height: 200},
		{X: 0, Y: 235, Width: 150, Height: 150},
		{X: 210, Y: 210, Width: 100, Height: 200},
	}
	if !reflect.DeepEqual(plan.Placements, want) {
		t.Errorf("placements: got %+v, want %+v", plan.Placements, want)
	}
}

func TestComputePlacements_GridCentersWithinCells(t *testing.T) {
	images := dims(100, 50, 80, 60, 40, 40, 90, 30, 70, 20)
	settings := Settings{Layout: LayoutGrid, Columns: 3, Gap: 5}

	plan, err := Resolve(images, settings)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	columnWidths := []float64{100, 80, 40}
	rowHeights := []float64{60, 30}
	for i, r := range plan.Placements {
		col, row := i%3, i/3
		cellX := sum(columnWidths[:col]) + float64(col)*settings.Gap
		cellY := sum(rowHeights[:row]) + float64(row)*settings.Gap

		if got, want := r.X+r.Width/2, cellX+columnWidths[col]/2; math.Abs(got-want) > 1e-9 {
			t.Errorf("placement %d: horizontal center %v, want %v", i, got, want)
		}
		if got, want := r.Y+r.Height/2, cellY+rowHeights[row]/2; math.Abs(got-want) > 1e-9 {
			t.Errorf("placement %d: vertical center %v, want %v", i, got, want)
		}
		if r.Width > columnWidths[col]+1e-9 || r.Height > rowHeights[row]+1e-9 {
			t.Errorf("placement %d: %vx%v overflows cell %vx%v", i, r.Width, r.Height, columnWidths[col], rowHeights[row])
		}
	}
}

func TestComputePlacements_PreservesAspectRatio(t *testing.T) {
	images := dims(1000, 3, 7, 900, 123, 457, 1, 1)
	for _, layout := range []Layout{LayoutHorizontal, LayoutVertical, LayoutGrid} {
		for _, mode := range []SizeMode{SizeModeDefault, SizeModeMinimum} {
			plan, err := Resolve(images, Settings{Layout: layout, SizeMode: mode, Gap: 3, Columns: 3})
			if err != nil {
				t.Fatalf("%s/%s: Resolve failed: %v", layout, mode, err)
			}
			for i, r := range plan.Placements {
				want := float64(images[i].Width) / float64(images[i].Height)
				got := r.Width / r.Height
				if math.Abs(got-want)/want > 1e-9 {
					t.Errorf("%s/%s placement %d: aspect %v, want %v", layout, mode, i, got, want)
				}
			}
		}
	}
}

func TestGridSumsMatchCanvas(t *testing.T) {
	images := dims(10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 11, 13, 17)
	for columns := 1; columns <= 8; columns++ {
		settings := Settings{Layout: LayoutGrid, Columns: columns, Gap: 7}
		canvas, err := ComputeCanvasSize(images, settings)
		if err != nil {
			t.Fatalf("columns=%d: %v", columns, err)
		}
		g := newGrid(images, columns)
		if got := sum(g.columnWidths) + settings.Gap*float64(g.columns-1); got != canvas.Width {
			t.Errorf("columns=%d: width sum %v != canvas %v", columns, got, canvas.Width)
		}
		if got := sum(g.rowHeights) + settings.Gap*float64(g.rows-1); got != canvas.Height {
			t.Errorf("columns=%d: height sum %v != canvas %v", columns, got, canvas.Height)
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	images := dims(333, 127, 91, 419, 250, 250, 17, 3)
	for _, layout := range []Layout{LayoutHorizontal, LayoutVertical, LayoutGrid} {
		settings := Settings{Layout: layout, Gap: 2.5, Columns: 3}
		first, err := Resolve(images, settings)
		if err != nil {
			t.Fatalf("%s: Resolve failed: %v", layout, err)
		}
		for i := 0; i < 5; i++ {
			again, err := Resolve(images, settings)
			if err != nil {
				t.Fatalf("%s: Resolve failed: %v", layout, err)
			}
			if !reflect.DeepEqual(first, again) {
				t.Fatalf("%s: run %d differs: %+v vs %+v", layout, i, first, again)
			}
		}
	}
}

func TestResolve_DoesNotMutateSettings(t *testing.T) {
	settings := Settings{Layout: LayoutGrid, Gap: 4}
	if _, err := Resolve(dims(10, 10, 20, 20, 30, 30), settings); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if settings.Columns != 0 || settings.SizeMode != "" {
		t.Errorf("settings were modified: %+v", settings)
	}
}

func TestSettings_Normalize(t *testing.T) {
	got := Settings{Layout: LayoutGrid}.Normalize()
	if got.Columns != DefaultColumns {
		t.Errorf("Columns: got %d, want %d", got.Columns, DefaultColumns)
	}
	if got.SizeMode != SizeModeDefault {
		t.Errorf("SizeMode: got %q, want %q", got.SizeMode, SizeModeDefault)
	}

	kept := Settings{Layout: LayoutGrid, Columns: 4, SizeMode: SizeModeMinimum}.Normalize()
	if kept.Columns != 4 || kept.SizeMode != SizeModeMinimum {
		t.Errorf("explicit values overwritten: %+v", kept)
	}
}
