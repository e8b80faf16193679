// Package layout computes canvas sizes and image placements for composite images.
//
// The resolver is a pure function of its inputs: given the natural dimensions of
// an ordered list of images and a Settings value, it returns the size of the
// canvas and one placement rectangle per image, in input order. Nothing is
// cached between calls, so identical inputs always produce identical outputs.
//
// # Layouts
//
//   - LayoutHorizontal: images side by side, scaled to a shared height
//   - LayoutVertical: images stacked top to bottom, scaled to a shared width
//   - LayoutGrid: images assigned row-major to cells, each fitted and centered
//     within its cell
//
// # Size Modes
//
// For horizontal and vertical layouts the shared dimension is either the largest
// (SizeModeDefault) or the smallest (SizeModeMinimum) of the inputs. Scaling is
// always uniform, so aspect ratios are preserved.
//
// # Coordinate System
//
// Coordinates are floating point pixels with (0,0) at the top-left of the canvas,
// X increasing rightward and Y increasing downward. Rounding to whole pixels is
// left to the rasterizer.
package layout
