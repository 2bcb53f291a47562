// Package imaging loads, encodes, crops and annotates images for the text
// extraction pipeline.
//
// It is a thin layer over disintegration/imaging (decoding, cropping),
// anthonynsimon/bild (PNG encoding) and go-colorful (annotation colours). The
// recognition engines never see Go image values directly: they receive the
// PNG bytes produced by EncodePNG.
//
// GridOverlay draws a labelled coordinate grid, which makes it easy to read
// off the rectangle to pass to region extraction.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions use
// image.Rectangle semantics: Min is inclusive, Max is exclusive.
//
// # Thread Safety
//
// Every function is stateless and may be called concurrently. Images passed
// in are only read; Annotate and GridOverlay draw on a copy.
//
// # Error Handling
//
// Functions return errors for:
//   - Missing, unreadable or corrupt image files
//   - Regions that do not overlap the image
//   - Invalid annotation colours or grid spacing
//   - Encoding and file write errors
package imaging
