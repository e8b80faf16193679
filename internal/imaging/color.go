package imaging

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// DefaultBackground is used when no background color is configured.
var DefaultBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// ParseColor converts a background color setting into a color.Color.
//
// Accepted forms:
//   - "" -> DefaultBackground (white)
//   - "transparent" -> fully transparent
//   - CSS color names such as "white" or "cornflowerblue" (case-insensitive)
//   - "#RGB" and "#RRGGBB" hex values
//   - "#RRGGBBAA" hex values with a non-premultiplied alpha channel
//
// The leading '#' is optional for hex values.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultBackground, nil
	}

	lower := strings.ToLower(s)
	if lower == "transparent" {
		return color.NRGBA{}, nil
	}
	if c, ok := colornames.Map[lower]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(lower, "#")
	switch len(hex) {
	case 3, 6:
		c, err := colorful.Hex("#" + hex)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return color.NRGBA{
			R: uint8(val >> 24),
			G: uint8(val >> 16),
			B: uint8(val >> 8),
			A: uint8(val),
		}, nil
	default:
		return nil, fmt.Errorf("invalid color %q", s)
	}
}
