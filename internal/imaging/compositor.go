package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

// DefaultMaxPixels is the largest surface a Compositor allocates by default
// (64 megapixels, 256 MB of RGBA).
const DefaultMaxPixels int64 = 64 * 1024 * 1024

// Compositor draws placed images onto a background-filled surface and encodes
// the result as PNG.
//
// A Compositor holds configuration only and is safe for concurrent use.
type Compositor struct {
	// Filter is the resampling filter used when a placement's size differs
	// from the image's natural size.
	Filter imaging.ResampleFilter

	// MaxPixels bounds width*height of the surface. Zero means DefaultMaxPixels.
	MaxPixels int64

	encoder encoder

	// track, when set, observes every bitmap opened during Rasterize.
	track func(*Bitmap)
}

// NewCompositor returns a Compositor using Lanczos resampling and the default
// pixel budget.
func NewCompositor() *Compositor {
	return &Compositor{Filter: imaging.Lanczos, MaxPixels: DefaultMaxPixels}
}

// Bitmap is the pixel buffer of one image, sized for its placement.
//
// Bitmaps are opened by Rasterize for a single draw and released right after.
type Bitmap struct {
	img      image.Image
	released bool
}

// Release drops the pixel buffer. It is safe to call more than once.
func (b *Bitmap) Release() {
	b.img = nil
	b.released = true
}

// Released reports whether Release has been called.
func (b *Bitmap) Released() bool {
	return b.released
}

// Rasterize draws each image at its placement, in input order, on a surface of
// canvas size filled with background, and encodes the surface.
//
// Later images are drawn over earlier ones where placements overlap. Every
// bitmap opened here is released before Rasterize returns, on success or
// failure.
//
// Errors:
//   - ErrSurfaceUnavailable if the rounded canvas is empty or exceeds MaxPixels
//   - *EncodeError if the surface cannot be encoded
func (c *Compositor) Rasterize(images []*DecodedImage, placements []layout.Rect, canvas layout.Size, background color.Color) (*Output, error) {
	if len(images) != len(placements) {
		return nil, fmt.Errorf("got %d placements for %d images", len(placements), len(images))
	}

	surface, err := c.newSurface(canvas, background)
	if err != nil {
		return nil, err
	}

	for i, img := range images {
		if img.Image() == nil {
			return nil, fmt.Errorf("image %d was released before drawing", i)
		}
		c.drawImage(surface, img, pixelRect(placements[i]))
	}

	enc := c.encoder
	if enc == nil {
		enc = pngEncoder{}
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, surface); err != nil {
		return nil, &EncodeError{Err: err}
	}

	b := surface.Bounds()
	return &Output{
		Data:     buf.Bytes(),
		MimeType: MimeType,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// newSurface allocates the canvas and fills it with the background.
func (c *Compositor) newSurface(canvas layout.Size, background color.Color) (*image.RGBA, error) {
	width := int(math.Round(canvas.Width))
	height := int(math.Round(canvas.Height))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d is empty", ErrSurfaceUnavailable, width, height)
	}

	limit := c.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if pixels := int64(width) * int64(height); pixels > limit {
		return nil, fmt.Errorf("%w: canvas %dx%d has %d pixels, limit is %d",
			ErrSurfaceUnavailable, width, height, pixels, limit)
	}

	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(surface, surface.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return surface, nil
}

// drawImage opens a bitmap for img sized to dst, draws it and releases it,
// even if drawing panics.
func (c *Compositor) drawImage(surface draw.Image, img *DecodedImage, dst image.Rectangle) {
	bm := c.openBitmap(img, dst.Dx(), dst.Dy())
	defer bm.Release()

	draw.Draw(surface, dst, bm.img, bm.img.Bounds().Min, draw.Over)
}

// openBitmap produces the pixels for one placement of width x height.
func (c *Compositor) openBitmap(img *DecodedImage, width, height int) *Bitmap {
	var pixels image.Image
	if width == img.Width && height == img.Height {
		pixels = clone.AsRGBA(img.Image())
	} else {
		pixels = imaging.Resize(img.Image(), width, height, c.Filter)
	}

	bm := &Bitmap{img: pixels}
	if c.track != nil {
		c.track(bm)
	}
	return bm
}

// pixelRect rounds a placement to whole pixels. Placements never collapse to
// zero size, so every image leaves at least one pixel on the surface.
func pixelRect(r layout.Rect) image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.Width))
	y1 := int(math.Round(r.Y + r.Height))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}
