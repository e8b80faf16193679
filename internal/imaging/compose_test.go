package imaging

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

func TestCompose_Horizontal(t *testing.T) {
	sources := []Source{
		pngSource(t, 100, 200, red),
		pngSource(t, 150, 300, green),
		pngSource(t, 200, 100, blue),
	}
	settings := layout.Settings{Layout: layout.LayoutHorizontal, Gap: 10, BackgroundColor: "#000000"}

	out, err := Compose(context.Background(), sources, settings, NewCompositor())
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out.Width != 920 || out.Height != 300 {
		t.Fatalf("dimensions: got %dx%d, want 920x300", out.Width, out.Height)
	}

	img := decodeOutput(t, out)
	assertPixel(t, img, 75, 150, red)
	assertPixel(t, img, 155, 150, color.RGBA{0, 0, 0, 255}) // gap
	assertPixel(t, img, 235, 150, green)
	assertPixel(t, img, 620, 150, blue)
}

func TestCompose_GridCentersInCells(t *testing.T) {
	sources := []Source{
		pngSource(t, 100, 100, red),
		pngSource(t, 200, 200, green),
		pngSource(t, 150, 150, blue),
		pngSource(t, 100, 200, red),
	}
	settings := layout.Settings{Layout: layout.LayoutGrid, Columns: 2, Gap: 10, BackgroundColor: "white"}

	out, err := Compose(context.Background(), sources, settings, NewCompositor())
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out.Width != 360 || out.Height != 410 {
		t.Fatalf("dimensions: got %dx%d, want 360x410", out.Width, out.Height)
	}

	img := decodeOutput(t, out)
	white := color.RGBA{255, 255, 255, 255}
	// First cell is 150x200; the 100x100 image is fitted to 150x150 at y=25.
	assertPixel(t, img, 75, 10, white)
	assertPixel(t, img, 75, 100, red)
	// Last cell holds the 100x200 image centered horizontally at x=210..310.
	assertPixel(t, img, 180, 300, white)
	assertPixel(t, img, 260, 300, red)
}

func TestCompose_Idempotent(t *testing.T) {
	sources := []Source{
		pngSource(t, 31, 17, red),
		pngSource(t, 12, 40, green),
		pngSource(t, 25, 25, blue),
	}
	for _, l := range []layout.Layout{layout.LayoutHorizontal, layout.LayoutVertical, layout.LayoutGrid} {
		settings := layout.Settings{Layout: l, Gap: 3, BackgroundColor: "#336699"}

		first, err := Compose(context.Background(), sources, settings, NewCompositor())
		if err != nil {
			t.Fatalf("%s: Compose failed: %v", l, err)
		}
		second, err := Compose(context.Background(), sources, settings, NewCompositor())
		if err != nil {
			t.Fatalf("%s: Compose failed: %v", l, err)
		}
		if !bytes.Equal(first.Data, second.Data) {
			t.Errorf("%s: composing twice produced different bytes", l)
		}
	}
}

func TestCompose_Errors(t *testing.T) {
	valid := pngSource(t, 10, 10, red)

	tests := []struct {
		name     string
		sources  []Source
		settings layout.Settings
		want     error
	}{
		{"empty input", nil, layout.Settings{Layout: layout.LayoutHorizontal}, layout.ErrEmptyInput},
		{"bad layout", []Source{valid}, layout.Settings{Layout: "spiral"}, layout.ErrInvalidSettings},
		{"bad color", []Source{valid}, layout.Settings{Layout: layout.LayoutGrid, BackgroundColor: "#nothex"}, layout.ErrInvalidSettings},
		{"undecodable", []Source{valid, {Data: []byte("junk")}}, layout.Settings{Layout: layout.LayoutVertical}, ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compose(context.Background(), tt.sources, tt.settings, NewCompositor())
			if out != nil {
				t.Error("Compose returned output alongside an error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompose_SurfaceBudget(t *testing.T) {
	c := NewCompositor()
	c.MaxPixels = 100

	_, err := Compose(context.Background(), []Source{pngSource(t, 20, 20, red)}, layout.Settings{Layout: layout.LayoutHorizontal}, c)
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("error: got %v, want ErrSurfaceUnavailable", err)
	}
}

func TestPlan(t *testing.T) {
	sources := []Source{pngSource(t, 100, 200, red), pngSource(t, 200, 100, blue)}

	plan, err := Plan(context.Background(), sources, layout.Settings{Layout: layout.LayoutHorizontal, SizeMode: layout.SizeModeMinimum})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Canvas != (layout.Size{Width: 250, Height: 100}) {
		t.Errorf("canvas: got %+v, want 250x100", plan.Canvas)
	}
	if len(plan.Placements) != 2 {
		t.Fatalf("got %d placements, want 2", len(plan.Placements))
	}
}

func TestOutput_Save(t *testing.T) {
	dir := t.TempDir()
	out := &Output{Data: []byte("png bytes"), MimeType: MimeType, Width: 1, Height: 1}
	now := time.UnixMilli(1700000000123)

	path, err := out.Save(dir, now)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if want := filepath.Join(dir, "composed-image-1700000000123.png"); path != want {
		t.Errorf("path: got %s, want %s", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("saved data: got %q", data)
	}
}
