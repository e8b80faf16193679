package imaging

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// MimeType is the content type of every composed image.
const MimeType = "image/png"

// encoder converts the finished surface into bytes. The PNG encoder is the
// only production implementation; tests swap in failing ones.
type encoder interface {
	Encode(w io.Writer, img image.Image) error
}

type pngEncoder struct{}

func (pngEncoder) Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// Output is an encoded composite image.
//
// Ownership of Output passes to the caller: nothing in this package keeps a
// reference to it once returned.
type Output struct {
	// Data is the encoded image.
	Data []byte `json:"-"`

	// MimeType is always MimeType.
	MimeType string `json:"mime_type"`

	// Width of the composed image in pixels.
	Width int `json:"width"`

	// Height of the composed image in pixels.
	Height int `json:"height"`
}

// FileName returns the download name for an output produced at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("composed-image-%d.png", t.UnixMilli())
}

// Save writes the output into dir as FileName(now) and returns the full path.
func (o *Output) Save(dir string, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, o.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write composed image: %w", err)
	}
	return path, nil
}
