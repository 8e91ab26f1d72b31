// Package media derives display metadata from local image files.
//
// An Analyzer combines three pieces:
//   - AspectRatio reads width and height from the image header
//   - a Renderer (VipsRenderer or ImagingRenderer) writes width variants
//     and returns a <picture> fragment, from which ExtractVariants pulls one
//     srcset per output format
//   - Thumbnail3x3 optionally produces an inline placeholder image
//
// VipsRenderer needs InitVips at startup and ShutdownVips on exit.
package media
