package imaging

import (
	"context"
	"fmt"

	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

// Compose runs a full composition on the calling goroutine: decode every
// source, resolve the layout, rasterize and encode.
//
// Decoded images are released before Compose returns, whatever the outcome.
// No partial output is ever returned.
//
// Errors:
//   - layout.ErrEmptyInput if sources is empty
//   - layout.ErrInvalidSettings for bad settings or an unparseable background
//   - *DecodeError if any source cannot be decoded or exceeds c.MaxPixels
//   - ErrSurfaceUnavailable or *EncodeError from Rasterize
func Compose(ctx context.Context, sources []Source, settings layout.Settings, c *Compositor) (*Output, error) {
	if len(sources) == 0 {
		return nil, layout.ErrEmptyInput
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	background, err := ParseColor(settings.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", layout.ErrInvalidSettings, err)
	}

	images, err := DecodeAll(ctx, sources, c.MaxPixels)
	if err != nil {
		return nil, err
	}
	defer ReleaseAll(images)

	plan, err := layout.Resolve(Dimensions(images), settings)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Rasterize(images, plan.Placements, plan.Canvas, background)
}

// Plan decodes sources and resolves their layout without rasterizing.
func Plan(ctx context.Context, sources []Source, settings layout.Settings) (*layout.Plan, error) {
	if len(sources) == 0 {
		return nil, layout.ErrEmptyInput
	}
	images, err := DecodeAll(ctx, sources, DefaultMaxPixels)
	if err != nil {
		return nil, err
	}
	defer ReleaseAll(images)

	return layout.Resolve(Dimensions(images), settings)
}
