// Package imaging loads, rasterizes and encodes composite images.
//
// This package holds the raster half of composition. The layout math lives in
// package layout; everything here works with the placements it produces.
//
// # Loading
//
// A Source is the raw bytes of one input image plus an optional name. Sources
// come from files (LoadFile), URLs (Fetch) or uploads, and are decoded with
// Decode or DecodeAll into DecodedImage values with known natural dimensions.
// PNG, JPEG, GIF, WebP, BMP and TIFF are supported; EXIF orientation is applied.
//
// # Rasterizing
//
// Compositor.Rasterize allocates a surface of the canvas size, fills it with
// the background color, draws each image scaled to its placement in input
// order, and encodes the surface as PNG. Every per-image bitmap it opens is
// released before it returns.
//
// Compose runs the whole pipeline (decode, resolve, rasterize) on the calling
// goroutine and is the Inline path of the dispatcher.
//
// # Ownership
//
// Decoded images belong to the composition call that decoded them and are
// released when it returns. Nothing in this package caches images between
// calls. The returned Output belongs to the caller.
//
// # Error Handling
//
// Failures are reported as typed errors:
//   - *DecodeError (matches ErrDecode) for unreadable input images
//   - ErrSurfaceUnavailable when the canvas is empty or too large
//   - *EncodeError (matches ErrEncode) when PNG encoding fails
package imaging
