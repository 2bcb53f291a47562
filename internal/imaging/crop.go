package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropRegion extracts region from img.
//
// The region is given in the coordinate space of img.Bounds() and is clipped
// to the image. The returned rectangle is the clipped region actually used;
// the returned image has its origin at (0,0), so callers translate any
// coordinates found in it by clipped.Min to get back to img's space.
//
// A region that does not overlap the image is an error.
func CropRegion(img image.Image, region image.Rectangle) (image.Image, image.Rectangle, error) {
	if img == nil {
		return nil, image.Rectangle{}, fmt.Errorf("nil image")
	}

	region = region.Canon()
	clipped := region.Intersect(img.Bounds())
	if clipped.Empty() {
		bounds := img.Bounds()
		return nil, image.Rectangle{}, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			region.Min.X, region.Min.Y, region.Max.X, region.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	return imaging.Crop(img, clipped), clipped, nil
}
