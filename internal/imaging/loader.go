package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

// MaxSourceBytes bounds how much data is read from a single file or URL.
const MaxSourceBytes = 64 << 20

// Source is the raw, still-encoded bytes of one input image.
//
// Sources are plain values and can cross process boundaries; the worker
// protocol carries them instead of decoded images.
type Source struct {
	// Name identifies the image in errors and logs (file name, URL, upload
	// field). Optional.
	Name string `json:"name,omitempty"`

	// Data holds the encoded image (PNG, JPEG, GIF, WebP, BMP or TIFF).
	Data []byte `json:"data"`
}

// DecodedImage is a drawable image with known natural dimensions.
//
// A DecodedImage is owned by the composition call that decoded it and must
// not be used after Release.
type DecodedImage struct {
	Width  int
	Height int

	img image.Image
}

// Image returns the decoded pixels, or nil after Release.
func (d *DecodedImage) Image() image.Image {
	return d.img
}

// Dimensions returns the natural size used for layout.
func (d *DecodedImage) Dimensions() layout.Dimensions {
	return layout.Dimensions{Width: d.Width, Height: d.Height}
}

// Release drops the reference to the decoded pixels. It is safe to call more
// than once.
func (d *DecodedImage) Release() {
	d.img = nil
}

// NewDecodedImage wraps an in-memory image.
func NewDecodedImage(img image.Image) *DecodedImage {
	b := img.Bounds()
	return &DecodedImage{Width: b.Dx(), Height: b.Dy(), img: img}
}

// Decode turns one source into a DecodedImage, rejecting images larger than
// DefaultMaxPixels.
func Decode(src Source, index int) (*DecodedImage, error) {
	return DecodeLimited(src, index, DefaultMaxPixels)
}

// DecodeLimited turns one source into a DecodedImage.
//
// The header is read first and images of more than maxPixels pixels are
// rejected with ErrImageTooLarge before any pixel data is decoded. Zero
// means DefaultMaxPixels. EXIF orientation is applied, so the natural
// dimensions match how the image is displayed. index is recorded in the
// returned *DecodeError.
func DecodeLimited(src Source, index int, maxPixels int64) (*DecodedImage, error) {
	fail := func(err error) (*DecodedImage, error) {
		return nil, &DecodeError{Index: index, Name: src.Name, Err: err}
	}

	if len(src.Data) == 0 {
		return fail(errors.New("empty image data"))
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src.Data))
	if err != nil {
		return fail(err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return fail(fmt.Errorf("%w: %dx%d has %d pixels, limit is %d",
			ErrImageTooLarge, cfg.Width, cfg.Height, pixels, maxPixels))
	}

	img, err := imaging.Decode(bytes.NewReader(src.Data), imaging.AutoOrientation(true))
	if err != nil {
		return fail(err)
	}

	d := NewDecodedImage(img)
	if d.Width <= 0 || d.Height <= 0 {
		return fail(fmt.Errorf("image has empty bounds %dx%d", d.Width, d.Height))
	}
	return d, nil
}

// DecodeAll decodes the sources on at most GOMAXPROCS goroutines and returns
// the images in input order. Each source is limited to maxPixels as in
// DecodeLimited. If any source fails, the first error is returned and nothing
// is kept.
func DecodeAll(ctx context.Context, sources []Source, maxPixels int64) ([]*DecodedImage, error) {
	images := make([]*DecodedImage, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := DecodeLimited(src, i, maxPixels)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		ReleaseAll(images)
		return nil, err
	}
	return images, nil
}

// ReleaseAll releases every non-nil image.
func ReleaseAll(images []*DecodedImage) {
	for _, img := range images {
		if img != nil {
			img.Release()
		}
	}
}

// Dimensions returns the natural dimensions of each image, in order.
func Dimensions(images []*DecodedImage) []layout.Dimensions {
	out := make([]layout.Dimensions, len(images))
	for i, img := range images {
		out[i] = img.Dimensions()
	}
	return out
}

// LoadFile reads an image file into a Source named after the file.
//
// The bytes are not decoded here; decoding happens once per composition.
func LoadFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return ReadSource(filepath.Base(path), f)
}

// ReadSource reads an encoded image from r, up to MaxSourceBytes.
func ReadSource(name string, r io.Reader) (Source, error) {
	data, err := readLimited(r)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read image %s: %w", name, err)
	}
	return Source{Name: name, Data: data}, nil
}

// Fetch downloads an image over HTTP(S) into a Source named after the URL.
//
// The client's timeout applies in addition to ctx.
func Fetch(ctx context.Context, client *http.Client, url string) (Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Source{}, fmt.Errorf("invalid image URL %q: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("failed to fetch image %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("failed to fetch image %s: unexpected status %s", url, resp.Status)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read image %s: %w", url, err)
	}
	return Source{Name: url, Data: data}, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSourceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSourceBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxSourceBytes)
	}
	return data, nil
}
